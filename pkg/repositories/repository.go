package repositories

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/cbodonnell/matchrelay/pkg/repositories/models"
)

const (
	// DefaultListLimit is used when a caller asks for a non-positive number of events.
	DefaultListLimit = 50
	// MaxListLimit caps how many events a single list call returns.
	MaxListLimit = 500
)

//go:embed migrations
var migrations embed.FS

// Repository stores the room history log.
type Repository interface {
	Close(ctx context.Context) error
	// SaveRoomEvents appends events to the log in order.
	SaveRoomEvents(ctx context.Context, events []models.RoomEvent) error
	// ListRoomEvents returns up to limit of the most recent events, newest first.
	ListRoomEvents(ctx context.Context, limit int) ([]models.RoomEvent, error)
}

// ClampLimit normalizes a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// readMigrations returns the migrations for a dialect, sorted by file name.
func readMigrations(dialect string) ([]string, error) {
	dir := "migrations/" + dialect
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		b, err := fs.ReadFile(migrations, dir+"/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}
		out = append(out, string(b))
	}
	return out, nil
}
