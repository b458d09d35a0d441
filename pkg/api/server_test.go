package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cbodonnell/matchrelay/pkg/api/handlers"
	authproviders "github.com/cbodonnell/matchrelay/pkg/auth/providers"
	"github.com/cbodonnell/matchrelay/pkg/repositories"
	"github.com/cbodonnell/matchrelay/pkg/repositories/models"
	"github.com/cbodonnell/matchrelay/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixedCounter int

func (c fixedCounter) Count() int { return int(c) }

type mockAuthProvider struct {
	mock.Mock
}

func (m *mockAuthProvider) VerifyToken(ctx context.Context, idToken string) (*authproviders.TokenClaims, error) {
	args := m.Called(ctx, idToken)
	claims, _ := args.Get(0).(*authproviders.TokenClaims)
	return claims, args.Error(1)
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRouter_status(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := state.NewInMemoryRoomStore(nil)
	h := NewRouter(NewAPIServerOptions{
		Store:       store,
		Connections: fixedCounter(3),
		Now:         clock.Now,
	})

	room, err := store.Create("host-connection-id", clock.now)
	require.NoError(t, err)
	_, err = store.AddMember(room.Code, "guest-connection-id")
	require.NoError(t, err)
	_, err = store.Create("lonely", clock.now)
	require.NoError(t, err)

	clock.now = clock.now.Add(90 * time.Second)
	rec := get(t, h, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	status := &handlers.Status{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, 2, status.Rooms)
	assert.Equal(t, 3, status.Players)
	assert.Equal(t, 3, status.Connections)
	assert.Equal(t, int64(90), status.UptimeSeconds)
	assert.Equal(t, "dev", status.Version)
}

func TestRouter_rooms(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := state.NewInMemoryRoomStore(nil)
	h := NewRouter(NewAPIServerOptions{Store: store, Now: clock.Now})

	rec := get(t, h, "/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	room, err := store.Create("0123456789abcdef", clock.now)
	require.NoError(t, err)
	_, ok := store.SetGameState(room.Code, "0123456789abcdef", json.RawMessage(`{"secret":"board"}`), clock.now)
	require.True(t, ok)

	clock.now = clock.now.Add(2 * time.Minute)
	rec = get(t, h, "/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.NotContains(t, rec.Body.String(), "0123456789abcdef")

	var summaries []state.RoomSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	assert.Equal(t, []state.RoomSummary{{
		Code:        room.Code,
		MemberCount: 1,
		Host:        "01234567",
		AgeSeconds:  120,
	}}, summaries)

	// Once the last member leaves the room is gone from the listing.
	_, removed := store.RemoveMember(room.Code, "0123456789abcdef")
	require.True(t, removed)
	assert.JSONEq(t, `[]`, get(t, h, "/rooms").Body.String())
}

func TestRouter_history(t *testing.T) {
	repo := repositories.NewInMemoryRepository(10)
	require.NoError(t, repo.SaveRoomEvents(context.Background(), []models.RoomEvent{
		{RoomCode: "ABCD", Type: models.RoomEventCreated, MemberCount: 1, Timestamp: 1},
		{RoomCode: "ABCD", Type: models.RoomEventJoined, MemberCount: 2, Timestamp: 2},
		{RoomCode: "ABCD", Type: models.RoomEventClosed, Timestamp: 3},
	}))
	h := NewRouter(NewAPIServerOptions{Store: state.NewInMemoryRoomStore(nil), Repository: repo})

	rec := get(t, h, "/history?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.RoomEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, models.RoomEventClosed, events[0].Type)
	assert.Equal(t, models.RoomEventJoined, events[1].Type)

	rec = get(t, h, "/history")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events, 3)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/history?limit=lots").Code)

	empty := NewRouter(NewAPIServerOptions{
		Store:      state.NewInMemoryRoomStore(nil),
		Repository: repositories.NewInMemoryRepository(10),
	})
	assert.JSONEq(t, `[]`, get(t, empty, "/history").Body.String())
}

func TestRouter_preflight(t *testing.T) {
	h := NewRouter(NewAPIServerOptions{Store: state.NewInMemoryRoomStore(nil), AllowOrigin: "https://example.com"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/rooms", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_unknownPath(t *testing.T) {
	h := NewRouter(NewAPIServerOptions{Store: state.NewInMemoryRoomStore(nil)})
	assert.Equal(t, http.StatusNotFound, get(t, h, "/history").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/ws").Code)
}

func TestRouter_websocketAuth(t *testing.T) {
	provider := &mockAuthProvider{}
	provider.On("VerifyToken", mock.Anything, "good").Return(&authproviders.TokenClaims{UID: "user-1"}, nil)
	provider.On("VerifyToken", mock.Anything, "bad").Return(nil, errors.New("revoked"))

	var uid string
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authproviders.ClaimsFromContext(r.Context())
		require.True(t, ok)
		uid = claims.UID
		w.WriteHeader(http.StatusSwitchingProtocols)
	})
	h := NewRouter(NewAPIServerOptions{
		Store:        state.NewInMemoryRoomStore(nil),
		WebSocket:    ws,
		AuthProvider: provider,
	})

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/ws").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/ws?token=bad").Code)
	assert.Equal(t, http.StatusSwitchingProtocols, get(t, h, "/ws?token=good").Code)
	assert.Equal(t, "user-1", uid)

	// The read-only endpoints do not require a token.
	assert.Equal(t, http.StatusOK, get(t, h, "/status").Code)
}
