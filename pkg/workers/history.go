package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/matchrelay/pkg/log"
	"github.com/cbodonnell/matchrelay/pkg/queue"
	"github.com/cbodonnell/matchrelay/pkg/repositories"
	"github.com/cbodonnell/matchrelay/pkg/repositories/models"
)

// saveTimeout bounds a single write to the repository, including the final flush.
const saveTimeout = 5 * time.Second

type HistoryWorker struct {
	repository repositories.Repository
	events     queue.Queue[models.RoomEvent]
}

type NewHistoryWorkerOptions struct {
	Repository repositories.Repository
	Events     queue.Queue[models.RoomEvent]
}

// NewHistoryWorker creates a new HistoryWorker.
// The worker drains room events from the queue and saves them to the
// repository in batches. Events still queued when the context is done
// are flushed before Start returns.
func NewHistoryWorker(opts NewHistoryWorkerOptions) *HistoryWorker {
	return &HistoryWorker{
		repository: opts.Repository,
		events:     opts.Events,
	}
}

func (w *HistoryWorker) Start(ctx context.Context) {
	for {
		event, err := w.events.Dequeue(ctx)
		if err != nil {
			w.Flush()
			return
		}
		batch := append([]models.RoomEvent{event}, w.events.ReadAllMessages()...)
		w.save(batch)
	}
}

// Flush saves whatever is currently queued.
func (w *HistoryWorker) Flush() {
	if batch := w.events.ReadAllMessages(); len(batch) > 0 {
		w.save(batch)
	}
}

func (w *HistoryWorker) save(batch []models.RoomEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := w.repository.SaveRoomEvents(ctx, batch); err != nil {
		log.Error("Failed to save %d room events: %v", len(batch), err)
	}
}
