package repositories

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/cbodonnell/matchrelay/pkg/repositories/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvents(n int) []models.RoomEvent {
	events := make([]models.RoomEvent, n)
	for i := range events {
		events[i] = models.RoomEvent{
			RoomCode:    fmt.Sprintf("AA%c%c", 'A'+i/26, 'A'+i%26),
			Type:        models.RoomEventCreated,
			MemberCount: 1,
			Timestamp:   int64(1000 + i),
		}
	}
	return events
}

func testRepository(t *testing.T, repo Repository) {
	ctx := context.Background()

	events, err := repo.ListRoomEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, repo.SaveRoomEvents(ctx, testEvents(3)))
	require.NoError(t, repo.SaveRoomEvents(ctx, []models.RoomEvent{{
		RoomCode:    "AAAA",
		Type:        models.RoomEventClosed,
		MemberCount: 0,
		Timestamp:   2000,
	}}))
	require.NoError(t, repo.SaveRoomEvents(ctx, nil))

	events, err = repo.ListRoomEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "AAAA", events[0].RoomCode)
	assert.Equal(t, models.RoomEventClosed, events[0].Type)
	assert.Equal(t, int64(2000), events[0].Timestamp)
	assert.Equal(t, "AAAC", events[1].RoomCode)
	assert.Greater(t, events[0].ID, events[1].ID)

	events, err = repo.ListRoomEvents(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestInMemoryRepository(t *testing.T) {
	repo := NewInMemoryRepository(10)
	defer repo.Close(context.Background())
	testRepository(t, repo)
}

func TestInMemoryRepository_wrapsAround(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository(3)
	require.NoError(t, repo.SaveRoomEvents(ctx, testEvents(5)))

	events, err := repo.ListRoomEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []int64{5, 4, 3}, []int64{events[0].ID, events[1].ID, events[2].ID})
	assert.Equal(t, int64(1004), events[0].Timestamp)
}

func TestSQLiteRepository(t *testing.T) {
	ctx := context.Background()
	repo, err := NewSQLiteRepository(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer repo.Close(ctx)
	testRepository(t, repo)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	repo, err := Open(ctx, "")
	require.NoError(t, err)
	assert.IsType(t, &InMemoryRepository{}, repo)

	repo, err = Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteRepository{}, repo)
	require.NoError(t, repo.Close(ctx))

	_, err = Open(ctx, "mysql://localhost/history")
	assert.Error(t, err)

	_, err = Open(ctx, "sqlite://")
	assert.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, ClampLimit(0))
	assert.Equal(t, DefaultListLimit, ClampLimit(-3))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxListLimit, ClampLimit(MaxListLimit+1))
}
