package state

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

var _ RoomStore = &InMemoryRoomStore{}

// InMemoryRoomStore is a RoomStore guarded by a single lock.
type InMemoryRoomStore struct {
	lock      sync.RWMutex
	rooms     map[string]*Room
	memberOf  map[string]string
	generator CodeGenerator
	codeSpace int
}

func NewInMemoryRoomStore(generator CodeGenerator) *InMemoryRoomStore {
	if generator == nil {
		generator = NewRandomCodeGenerator()
	}
	return &InMemoryRoomStore{
		rooms:     make(map[string]*Room),
		memberOf:  make(map[string]string),
		generator: generator,
		codeSpace: CodeSpace,
	}
}

func (s *InMemoryRoomStore) Get(code string) (*Room, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, false
	}
	return room.copy(), true
}

func (s *InMemoryRoomStore) Create(hostID string, now time.Time) (*Room, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if code, ok := s.memberOf[hostID]; ok {
		return nil, &ErrAlreadyInRoom{MemberID: hostID, Code: code}
	}

	code, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	room := &Room{
		Code:         code,
		HostID:       hostID,
		Members:      []string{hostID},
		CreatedAt:    now,
		LastUpdateAt: now,
	}
	s.rooms[code] = room
	s.memberOf[hostID] = code

	return room.copy(), nil
}

// generateUniqueCode retries until the generator yields a code no live room holds.
// It reads from the rooms, so it needs to be locked before calling.
func (s *InMemoryRoomStore) generateUniqueCode() (string, error) {
	if len(s.rooms) >= s.codeSpace {
		return "", &ErrCodeSpaceExhausted{Live: len(s.rooms)}
	}
	for {
		code := s.generator.Generate()
		if _, ok := s.rooms[code]; !ok {
			return code, nil
		}
	}
}

func (s *InMemoryRoomStore) Delete(code string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.deleteLocked(code)
}

func (s *InMemoryRoomStore) deleteLocked(code string) bool {
	room, ok := s.rooms[code]
	if !ok {
		return false
	}
	for _, m := range room.Members {
		if s.memberOf[m] == code {
			delete(s.memberOf, m)
		}
	}
	delete(s.rooms, code)
	return true
}

func (s *InMemoryRoomStore) DeleteOlderThan(cutoff time.Time) []*Room {
	s.lock.Lock()
	defer s.lock.Unlock()

	var deleted []*Room
	for code, room := range s.rooms {
		if room.CreatedAt.Before(cutoff) {
			deleted = append(deleted, room.copy())
			s.deleteLocked(code)
		}
	}
	sortRooms(deleted)
	return deleted
}

func (s *InMemoryRoomStore) List() []*Room {
	s.lock.RLock()
	defer s.lock.RUnlock()

	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.copy())
	}
	sortRooms(rooms)
	return rooms
}

func (s *InMemoryRoomStore) Stats() Stats {
	s.lock.RLock()
	defer s.lock.RUnlock()

	stats := Stats{Rooms: len(s.rooms)}
	for _, room := range s.rooms {
		stats.Members += len(room.Members)
	}
	return stats
}

func (s *InMemoryRoomStore) AddMember(code string, memberID string) (*Room, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return nil, &ErrRoomNotFound{Code: code}
	}
	if len(room.Members) >= RoomCapacity {
		return nil, &ErrRoomFull{Code: code}
	}
	if current, ok := s.memberOf[memberID]; ok {
		return nil, &ErrAlreadyInRoom{MemberID: memberID, Code: current}
	}

	room.Members = append(room.Members, memberID)
	s.memberOf[memberID] = code

	return room.copy(), nil
}

func (s *InMemoryRoomStore) RemoveMember(code string, memberID string) (*Room, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return nil, false
	}

	idx := -1
	for i, m := range room.Members {
		if m == memberID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return room.copy(), false
	}

	room.Members = append(room.Members[:idx], room.Members[idx+1:]...)
	if s.memberOf[memberID] == code {
		delete(s.memberOf, memberID)
	}

	snapshot := room.copy()
	if len(room.Members) == 0 {
		delete(s.rooms, code)
	}

	return snapshot, true
}

func (s *InMemoryRoomStore) SetGameState(code string, authorID string, gameState json.RawMessage, now time.Time) (*Room, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	room, ok := s.rooms[code]
	if !ok || !room.HasMember(authorID) {
		return nil, false
	}

	room.GameState = append(json.RawMessage(nil), gameState...)
	room.LastUpdateAt = now

	return room.copy(), true
}

func (s *InMemoryRoomStore) RoomsWithMember(memberID string) []string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var codes []string
	for code, room := range s.rooms {
		if room.HasMember(memberID) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

func sortRooms(rooms []*Room) {
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].Code < rooms[j].Code
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
}
