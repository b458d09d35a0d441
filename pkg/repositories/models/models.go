package models

// RoomEventType names a step in a room's lifecycle.
type RoomEventType string

const (
	RoomEventCreated RoomEventType = "created"
	RoomEventJoined  RoomEventType = "joined"
	RoomEventLeft    RoomEventType = "left"
	RoomEventClosed  RoomEventType = "closed"
	RoomEventExpired RoomEventType = "expired"
)

// RoomEvent is one entry of the room history log. It deliberately carries
// no connection identities and no game state.
type RoomEvent struct {
	ID          int64         `json:"id"`
	RoomCode    string        `json:"roomCode"`
	Type        RoomEventType `json:"type"`
	MemberCount int           `json:"memberCount"`
	Timestamp   int64         `json:"timestamp"`
}
