package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue_EnqueueDequeue(t *testing.T) {
	q := NewInMemoryQueue[int](2)

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	assert.ErrorIs(t, q.Enqueue(3), ErrQueueFull)
	assert.Equal(t, 2, q.Size())

	ctx := context.Background()
	item, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, item)
	item, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, item)
	assert.Equal(t, 0, q.Size())
}

func TestInMemoryQueue_DequeueCanceled(t *testing.T) {
	q := NewInMemoryQueue[string](1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	item, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, item)
}

func TestInMemoryQueue_ReadAllMessages(t *testing.T) {
	q := NewInMemoryQueue[int](0)
	assert.Empty(t, q.ReadAllMessages())

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, q.ReadAllMessages())
	assert.Equal(t, 0, q.Size())
}
