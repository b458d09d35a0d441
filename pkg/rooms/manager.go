// Package rooms applies the room lifecycle protocol on top of a state.RoomStore:
// it creates and joins rooms, relays state and actions between members, and
// tears rooms down when members leave or disconnect.
//
// The manager never touches sockets. Outbound messages are handed to a
// Notifier, which delivers them at most once on a best-effort basis.
package rooms

import (
	"encoding/json"
	"time"

	"github.com/cbodonnell/matchrelay/pkg/log"
	"github.com/cbodonnell/matchrelay/pkg/messages"
	"github.com/cbodonnell/matchrelay/pkg/queue"
	"github.com/cbodonnell/matchrelay/pkg/repositories/models"
	"github.com/cbodonnell/matchrelay/pkg/state"
)

// Notifier delivers a message to a single connection.
// Implementations must not block and may drop messages.
type Notifier interface {
	Send(clientID string, msg *messages.Message)
}

type Manager struct {
	store    state.RoomStore
	notifier Notifier
	history  queue.Queue[models.RoomEvent]
	now      func() time.Time
}

type NewManagerOptions struct {
	Store    state.RoomStore
	Notifier Notifier
	// History receives room lifecycle events. Optional.
	History queue.Queue[models.RoomEvent]
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewManager(opts NewManagerOptions) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:    opts.Store,
		notifier: opts.Notifier,
		history:  opts.History,
		now:      now,
	}
}

// CreateRoom opens a room hosted by hostID and returns its code.
func (m *Manager) CreateRoom(hostID string) (string, error) {
	room, err := m.store.Create(hostID, m.now())
	if err != nil {
		if state.IsCodeSpaceExhausted(err) {
			log.Error("Failed to create room for %s: %v", hostID, err)
		}
		return "", err
	}

	log.Info("Room %s created by %s", room.Code, hostID)
	m.record(room.Code, models.RoomEventCreated, len(room.Members))

	return room.Code, nil
}

// JoinRoom adds guestID to the room, confirms the join to the guest and then
// tells the existing members. The guest's roomJoined is queued before anything
// the other members might send in response.
// The returned room is a snapshot taken right after the join.
func (m *Manager) JoinRoom(code string, guestID string) (*state.Room, error) {
	room, err := m.store.AddMember(code, guestID)
	if err != nil {
		log.Debug("Client %s failed to join room %s: %v", guestID, code, err)
		return nil, err
	}

	log.Info("Client %s joined room %s", guestID, code)
	m.record(code, models.RoomEventJoined, len(room.Members))

	joined, err := messages.NewRoomJoined(room.Code)
	if err != nil {
		log.Error("Failed to build room joined message: %v", err)
	} else {
		m.notifier.Send(guestID, joined)
	}

	msg, err := messages.NewOpponentJoined(guestID)
	if err != nil {
		log.Error("Failed to build opponent joined message: %v", err)
		return room, nil
	}
	m.broadcast(room.Others(guestID), msg)

	return room, nil
}

// UpdateState stores gameState and relays it to the author's opponents.
// Updates for rooms that no longer exist, or from non-members, are dropped.
func (m *Manager) UpdateState(code string, authorID string, gameState json.RawMessage) {
	room, ok := m.store.SetGameState(code, authorID, gameState, m.now())
	if !ok {
		log.Debug("Dropping state update from %s for room %s", authorID, code)
		return
	}

	m.broadcast(room.Others(authorID), messages.NewGameStateUpdate(gameState))
}

// RelayAction forwards action to the author's opponents without touching room state.
func (m *Manager) RelayAction(code string, authorID string, action json.RawMessage) {
	room, ok := m.store.Get(code)
	if !ok || !room.HasMember(authorID) {
		log.Debug("Dropping action from %s for room %s", authorID, code)
		return
	}

	m.broadcast(room.Others(authorID), messages.NewGameAction(action))
}

// Leave removes memberID from the room. The remaining members are told the
// opponent left; if nobody remains the room is gone. Leaving twice is a no-op.
func (m *Manager) Leave(code string, memberID string) {
	room, removed := m.store.RemoveMember(code, memberID)
	if !removed {
		return
	}

	if len(room.Members) == 0 {
		log.Info("Room %s closed after %s left", code, memberID)
		m.record(code, models.RoomEventClosed, 0)
		return
	}

	log.Info("Client %s left room %s", memberID, code)
	m.record(code, models.RoomEventLeft, len(room.Members))
	m.broadcast(room.Members, messages.NewOpponentLeft())
}

// DisconnectAll applies Leave to every room memberID belongs to.
func (m *Manager) DisconnectAll(memberID string) {
	codes := m.store.RoomsWithMember(memberID)
	if len(codes) > 1 {
		log.Warn("Client %s was a member of %d rooms", memberID, len(codes))
	}
	for _, code := range codes {
		m.Leave(code, memberID)
	}
}

func (m *Manager) broadcast(recipients []string, msg *messages.Message) {
	for _, id := range recipients {
		m.notifier.Send(id, msg)
	}
}

func (m *Manager) record(code string, eventType models.RoomEventType, memberCount int) {
	Record(m.history, models.RoomEvent{
		RoomCode:    code,
		Type:        eventType,
		MemberCount: memberCount,
		Timestamp:   m.now().UnixMilli(),
	})
}

// Record pushes event onto history without blocking. A nil queue discards it.
func Record(history queue.Queue[models.RoomEvent], event models.RoomEvent) {
	if history == nil {
		return
	}
	if err := history.Enqueue(event); err != nil {
		log.Warn("Failed to record %s event for room %s: %v", event.Type, event.RoomCode, err)
	}
}
