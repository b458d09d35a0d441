package state

import (
	"encoding/json"
	"time"
)

// RoomStore owns the mapping from room code to Room.
// Implementations must be thread-safe, and every method must be atomic with
// respect to every other: a room never exceeds RoomCapacity members and is
// deleted exactly once. Rooms returned by a RoomStore are copies.
type RoomStore interface {
	// Get returns the room with the given code.
	Get(code string) (*Room, bool)
	// Create stores a new room hosted by hostID under a freshly generated code.
	Create(hostID string, now time.Time) (*Room, error)
	// Delete removes a room. It returns false if the room was already gone.
	Delete(code string) bool
	// DeleteOlderThan removes every room created before cutoff and returns them.
	DeleteOlderThan(cutoff time.Time) []*Room
	// List returns every live room, oldest first.
	List() []*Room
	// Stats returns aggregate counts across live rooms.
	Stats() Stats
	// AddMember appends memberID to a room and returns the room after the change.
	AddMember(code string, memberID string) (*Room, error)
	// RemoveMember removes memberID from a room and deletes the room once it is empty.
	// It returns the room after the change, and whether memberID was removed.
	RemoveMember(code string, memberID string) (*Room, bool)
	// SetGameState stores gameState if authorID is a member of the room.
	// It returns the room after the change, and whether the state was accepted.
	SetGameState(code string, authorID string, gameState json.RawMessage, now time.Time) (*Room, bool)
	// RoomsWithMember returns the codes of every room memberID belongs to.
	RoomsWithMember(memberID string) []string
}
