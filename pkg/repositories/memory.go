package repositories

import (
	"context"
	"sync"

	"github.com/cbodonnell/matchrelay/pkg/repositories/models"
)

// DefaultMemoryCapacity is how many events an InMemoryRepository keeps.
const DefaultMemoryCapacity = 1000

var _ Repository = &InMemoryRepository{}

// InMemoryRepository keeps the most recent events in a fixed-size ring.
// It is used when no database is configured.
type InMemoryRepository struct {
	lock   sync.RWMutex
	events []models.RoomEvent
	next   int
	count  int
	lastID int64
}

func NewInMemoryRepository(capacity int) *InMemoryRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &InMemoryRepository{
		events: make([]models.RoomEvent, capacity),
	}
}

func (r *InMemoryRepository) Close(ctx context.Context) error {
	return nil
}

func (r *InMemoryRepository) SaveRoomEvents(ctx context.Context, events []models.RoomEvent) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, event := range events {
		r.lastID++
		event.ID = r.lastID
		r.events[r.next] = event
		r.next = (r.next + 1) % len(r.events)
		if r.count < len(r.events) {
			r.count++
		}
	}
	return nil
}

func (r *InMemoryRepository) ListRoomEvents(ctx context.Context, limit int) ([]models.RoomEvent, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	limit = ClampLimit(limit)
	if limit > r.count {
		limit = r.count
	}
	out := make([]models.RoomEvent, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.events)) % len(r.events)
		out = append(out, r.events[idx])
	}
	return out, nil
}
