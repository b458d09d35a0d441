package messages

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		message *Message
		want    ClientMessage
	}{
		{
			name:    "create room without payload",
			message: &Message{Type: MessageTypeCreateRoom},
			want:    &CreateRoom{},
		},
		{
			name:    "create room ignores payload",
			message: &Message{Type: MessageTypeCreateRoom, Payload: json.RawMessage(`{"x":1}`)},
			want:    &CreateRoom{},
		},
		{
			name:    "join room",
			message: &Message{Type: MessageTypeJoinRoom, Payload: json.RawMessage(`{"roomCode":"QWER"}`)},
			want:    &JoinRoom{RoomCode: "QWER"},
		},
		{
			name:    "update game state",
			message: &Message{Type: MessageTypeUpdateGameState, Payload: json.RawMessage(`{"roomCode":"QWER","gameState":{"turn":2}}`)},
			want:    &UpdateGameState{RoomCode: "QWER", GameState: json.RawMessage(`{"turn":2}`)},
		},
		{
			name:    "game action",
			message: &Message{Type: MessageTypeGameAction, Payload: json.RawMessage(`{"roomCode":"QWER","action":["swap",1,2]}`)},
			want:    &GameAction{RoomCode: "QWER", Action: json.RawMessage(`["swap",1,2]`)},
		},
		{
			name:    "leave room",
			message: &Message{Type: MessageTypeLeaveRoom, Payload: json.RawMessage(`{"roomCode":"QWER"}`)},
			want:    &LeaveRoom{RoomCode: "QWER"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeClientMessage(tt.message)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeClientMessage_validation(t *testing.T) {
	tests := []struct {
		name    string
		message *Message
	}{
		{name: "missing type", message: &Message{}},
		{name: "unknown type", message: &Message{Type: "startMatchmaking"}},
		{name: "server-only type", message: &Message{Type: MessageTypeRoomCreated}},
		{name: "join without payload", message: &Message{Type: MessageTypeJoinRoom}},
		{name: "join without code", message: &Message{Type: MessageTypeJoinRoom, Payload: json.RawMessage(`{}`)}},
		{name: "join with numeric code", message: &Message{Type: MessageTypeJoinRoom, Payload: json.RawMessage(`{"roomCode":1234}`)}},
		{name: "update without state", message: &Message{Type: MessageTypeUpdateGameState, Payload: json.RawMessage(`{"roomCode":"QWER"}`)}},
		{name: "action without action", message: &Message{Type: MessageTypeGameAction, Payload: json.RawMessage(`{"roomCode":"QWER"}`)}},
		{name: "leave with string payload", message: &Message{Type: MessageTypeLeaveRoom, Payload: json.RawMessage(`"QWER"`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeClientMessage(tt.message)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}
}
