package messages

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ClientMessage is one of the inbound message kinds. The set is closed:
// only types in this package implement it.
type ClientMessage interface {
	clientMessage()
}

type CreateRoom struct{}

type JoinRoom struct {
	RoomCode string `json:"roomCode"`
}

type UpdateGameState struct {
	RoomCode  string          `json:"roomCode"`
	GameState json.RawMessage `json:"gameState"`
}

type GameAction struct {
	RoomCode string          `json:"roomCode"`
	Action   json.RawMessage `json:"action"`
}

type LeaveRoom struct {
	RoomCode string `json:"roomCode"`
}

func (*CreateRoom) clientMessage()      {}
func (*JoinRoom) clientMessage()        {}
func (*UpdateGameState) clientMessage() {}
func (*GameAction) clientMessage()      {}
func (*LeaveRoom) clientMessage()       {}

// ErrValidation is returned for malformed or unknown inbound messages.
type ErrValidation struct {
	Reason string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid message: %s", e.Reason)
}

func IsValidation(err error) bool {
	var target *ErrValidation
	return errors.As(err, &target)
}

func invalid(format string, args ...interface{}) error {
	return &ErrValidation{Reason: fmt.Sprintf(format, args...)}
}

// DecodeClientMessage maps an envelope onto its ClientMessage variant.
func DecodeClientMessage(m *Message) (ClientMessage, error) {
	switch m.Type {
	case MessageTypeCreateRoom:
		return &CreateRoom{}, nil
	case MessageTypeJoinRoom:
		msg := &JoinRoom{}
		if err := decodePayload(m, msg); err != nil {
			return nil, err
		}
		if msg.RoomCode == "" {
			return nil, invalid("%s requires roomCode", m.Type)
		}
		return msg, nil
	case MessageTypeUpdateGameState:
		msg := &UpdateGameState{}
		if err := decodePayload(m, msg); err != nil {
			return nil, err
		}
		if msg.RoomCode == "" {
			return nil, invalid("%s requires roomCode", m.Type)
		}
		if len(msg.GameState) == 0 {
			return nil, invalid("%s requires gameState", m.Type)
		}
		return msg, nil
	case MessageTypeGameAction:
		msg := &GameAction{}
		if err := decodePayload(m, msg); err != nil {
			return nil, err
		}
		if msg.RoomCode == "" {
			return nil, invalid("%s requires roomCode", m.Type)
		}
		if len(msg.Action) == 0 {
			return nil, invalid("%s requires action", m.Type)
		}
		return msg, nil
	case MessageTypeLeaveRoom:
		msg := &LeaveRoom{}
		if err := decodePayload(m, msg); err != nil {
			return nil, err
		}
		if msg.RoomCode == "" {
			return nil, invalid("%s requires roomCode", m.Type)
		}
		return msg, nil
	case "":
		return nil, invalid("missing type")
	default:
		return nil, invalid("unknown type %q", m.Type)
	}
}

func decodePayload(m *Message, dst interface{}) error {
	if len(m.Payload) == 0 {
		return invalid("%s requires a payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, dst); err != nil {
		return invalid("%s payload: %v", m.Type, err)
	}
	return nil
}
