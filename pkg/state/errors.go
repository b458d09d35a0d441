package state

import (
	"errors"
	"fmt"
)

type ErrRoomNotFound struct {
	Code string
}

func (e *ErrRoomNotFound) Error() string {
	return fmt.Sprintf("room %s not found", e.Code)
}

func IsRoomNotFound(err error) bool {
	var target *ErrRoomNotFound
	return errors.As(err, &target)
}

type ErrRoomFull struct {
	Code string
}

func (e *ErrRoomFull) Error() string {
	return fmt.Sprintf("room %s is full", e.Code)
}

func IsRoomFull(err error) bool {
	var target *ErrRoomFull
	return errors.As(err, &target)
}

// ErrAlreadyInRoom is returned when a connection that is already a member
// of a room tries to create or join another one.
type ErrAlreadyInRoom struct {
	MemberID string
	Code     string
}

func (e *ErrAlreadyInRoom) Error() string {
	return fmt.Sprintf("already in room %s", e.Code)
}

func IsAlreadyInRoom(err error) bool {
	var target *ErrAlreadyInRoom
	return errors.As(err, &target)
}

// ErrCodeSpaceExhausted is returned when every possible room code is in use.
type ErrCodeSpaceExhausted struct {
	Live int
}

func (e *ErrCodeSpaceExhausted) Error() string {
	return fmt.Sprintf("no room codes available: %d rooms live", e.Live)
}

func IsCodeSpaceExhausted(err error) bool {
	var target *ErrCodeSpaceExhausted
	return errors.As(err, &target)
}
