package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cbodonnell/matchrelay/pkg/log"
	"github.com/cbodonnell/matchrelay/pkg/repositories"
	"github.com/cbodonnell/matchrelay/pkg/repositories/models"
	"github.com/cbodonnell/matchrelay/pkg/state"
	"github.com/cbodonnell/matchrelay/pkg/version"
)

// ConnectionCounter reports how many clients are connected.
type ConnectionCounter interface {
	Count() int
}

type Status struct {
	Status        string `json:"status"`
	Rooms         int    `json:"rooms"`
	Players       int    `json:"players"`
	Connections   int    `json:"connections"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Version       string `json:"version"`
}

func HandleStatus(store state.RoomStore, connections ConnectionCounter, startedAt time.Time, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := store.Stats()
		status := &Status{
			Status:        "ok",
			Rooms:         stats.Rooms,
			Players:       stats.Members,
			UptimeSeconds: int64(now().Sub(startedAt) / time.Second),
			Version:       version.Get(),
		}
		if connections != nil {
			status.Connections = connections.Count()
		}
		writeJSON(w, status)
	}
}

func HandleListRooms(store state.RoomStore, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		at := now()
		rooms := store.List()
		summaries := make([]state.RoomSummary, 0, len(rooms))
		for _, room := range rooms {
			summaries = append(summaries, room.Summary(at))
		}
		writeJSON(w, summaries)
	}
}

func HandleListHistory(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		events, err := repository.ListRoomEvents(r.Context(), repositories.ClampLimit(limit))
		if err != nil {
			log.Error("failed to list room events: %v", err)
			http.Error(w, "Failed to list room events", http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []models.RoomEvent{}
		}
		writeJSON(w, events)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
