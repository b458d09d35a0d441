package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cbodonnell/matchrelay/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

var _ Repository = &SQLiteRepository{}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite serializes writers anyway; one connection also keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	migrations, err := readMigrations("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	for i, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute migration %d: %w", i+1, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveRoomEvents(ctx context.Context, events []models.RoomEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := `
	INSERT INTO room_events (room_code, event, member_count, created_at)
	VALUES (?, ?, ?, ?);
	`
	for _, event := range events {
		if _, err := tx.ExecContext(ctx, q, event.RoomCode, string(event.Type), event.MemberCount, event.Timestamp); err != nil {
			return fmt.Errorf("failed to insert room event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) ListRoomEvents(ctx context.Context, limit int) ([]models.RoomEvent, error) {
	q := `
	SELECT id, room_code, event, member_count, created_at
	FROM room_events
	ORDER BY id DESC
	LIMIT ?;
	`
	rows, err := r.db.QueryContext(ctx, q, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query room events: %w", err)
	}
	defer rows.Close()

	events := []models.RoomEvent{}
	for rows.Next() {
		var event models.RoomEvent
		var eventType string
		if err := rows.Scan(&event.ID, &event.RoomCode, &eventType, &event.MemberCount, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan room event: %w", err)
		}
		event.Type = models.RoomEventType(eventType)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate room events: %w", err)
	}

	return events, nil
}
