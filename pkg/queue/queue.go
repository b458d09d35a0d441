package queue

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by Enqueue when the queue has no free slot.
var ErrQueueFull = errors.New("queue is full")

// Queue represents a bounded FIFO queue that is safe for concurrent use.
type Queue[T any] interface {
	// Enqueue adds an item without blocking, or returns ErrQueueFull.
	Enqueue(item T) error
	// Dequeue blocks until an item is available or ctx is done.
	Dequeue(ctx context.Context) (T, error)
	Size() int
	// ReadAllMessages drains every pending item without blocking.
	ReadAllMessages() []T
}
