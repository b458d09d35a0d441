package messages

import (
	"encoding/json"
	"fmt"
)

const (
	// MaxMessageSize is the largest frame a client may send, after decompression.
	MaxMessageSize = 1 << 20
)

// Message types sent by clients.
const (
	MessageTypeCreateRoom      = "createRoom"
	MessageTypeJoinRoom        = "joinRoom"
	MessageTypeUpdateGameState = "updateGameState"
	MessageTypeGameAction      = "gameAction"
	MessageTypeLeaveRoom       = "leaveRoom"
)

// Message types sent by the server. gameAction is shared with the client direction.
const (
	MessageTypeRoomCreated     = "roomCreated"
	MessageTypeRoomJoined      = "roomJoined"
	MessageTypeRoomError       = "roomError"
	MessageTypeOpponentJoined  = "opponentJoined"
	MessageTypeOpponentLeft    = "opponentLeft"
	MessageTypeGameStateUpdate = "gameStateUpdate"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RoomCreated struct {
	RoomCode string `json:"roomCode"`
}

type RoomJoined struct {
	RoomCode string `json:"roomCode"`
}

type RoomError struct {
	Message string `json:"message"`
}

type OpponentJoined struct {
	OpponentID string `json:"opponentId"`
}

func NewRoomCreated(code string) (*Message, error) {
	return newMessage(MessageTypeRoomCreated, &RoomCreated{RoomCode: code})
}

func NewRoomJoined(code string) (*Message, error) {
	return newMessage(MessageTypeRoomJoined, &RoomJoined{RoomCode: code})
}

func NewRoomError(message string) (*Message, error) {
	return newMessage(MessageTypeRoomError, &RoomError{Message: message})
}

func NewOpponentJoined(opponentID string) (*Message, error) {
	return newMessage(MessageTypeOpponentJoined, &OpponentJoined{OpponentID: opponentID})
}

func NewOpponentLeft() *Message {
	return &Message{Type: MessageTypeOpponentLeft}
}

// NewGameStateUpdate relays a state blob untouched.
func NewGameStateUpdate(state json.RawMessage) *Message {
	return &Message{Type: MessageTypeGameStateUpdate, Payload: state}
}

// NewGameAction relays an action blob untouched.
func NewGameAction(action json.RawMessage) *Message {
	return &Message{Type: MessageTypeGameAction, Payload: action}
}

func newMessage(messageType string, payload interface{}) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", messageType, err)
	}
	return &Message{Type: messageType, Payload: b}, nil
}
