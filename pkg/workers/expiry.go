package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/matchrelay/pkg/log"
	"github.com/cbodonnell/matchrelay/pkg/queue"
	"github.com/cbodonnell/matchrelay/pkg/repositories/models"
	"github.com/cbodonnell/matchrelay/pkg/rooms"
	"github.com/cbodonnell/matchrelay/pkg/state"
)

const (
	DefaultSweepInterval = 30 * time.Minute
	DefaultMaxRoomAge    = 30 * time.Minute
)

type ExpiryWorker struct {
	store    state.RoomStore
	history  queue.Queue[models.RoomEvent]
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
}

type NewExpiryWorkerOptions struct {
	Store   state.RoomStore
	History queue.Queue[models.RoomEvent]
	// Interval between sweeps. Defaults to DefaultSweepInterval.
	Interval time.Duration
	// MaxAge is how long after creation a room is removed. Defaults to DefaultMaxRoomAge.
	MaxAge time.Duration
	Now    func() time.Time
}

// NewExpiryWorker creates a new ExpiryWorker.
// The worker periodically deletes rooms that were created more than
// MaxAge ago, whether or not they are still in use. Members of an
// expired room are not notified.
func NewExpiryWorker(opts NewExpiryWorkerOptions) *ExpiryWorker {
	w := &ExpiryWorker{
		store:    opts.Store,
		history:  opts.History,
		interval: opts.Interval,
		maxAge:   opts.MaxAge,
		now:      opts.Now,
	}
	if w.interval <= 0 {
		w.interval = DefaultSweepInterval
	}
	if w.maxAge <= 0 {
		w.maxAge = DefaultMaxRoomAge
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

func (w *ExpiryWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep deletes every room older than the max age and returns how many were removed.
func (w *ExpiryWorker) Sweep() int {
	now := w.now()
	expired := w.store.DeleteOlderThan(now.Add(-w.maxAge))
	for _, room := range expired {
		log.Info("Room %s expired after %v", room.Code, now.Sub(room.CreatedAt).Round(time.Second))
		rooms.Record(w.history, models.RoomEvent{
			RoomCode:    room.Code,
			Type:        models.RoomEventExpired,
			MemberCount: len(room.Members),
			Timestamp:   now.UnixMilli(),
		})
	}
	if len(expired) > 0 {
		log.Debug("Expiry sweep removed %d rooms", len(expired))
	}
	return len(expired)
}
