package repositories

import (
	"context"
	"fmt"

	"github.com/cbodonnell/matchrelay/pkg/log"
	"github.com/cbodonnell/matchrelay/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Repository = &PostgresRepository{}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the database and applies migrations.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	var username string
	var database string
	err = pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %w", err)
	}
	log.Info("Connected to %s as %s", database, username)

	migrations, err := readMigrations("postgres")
	if err != nil {
		pool.Close()
		return nil, err
	}
	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to execute migration %d: %w", i+1, err)
		}
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) SaveRoomEvents(ctx context.Context, events []models.RoomEvent) error {
	if len(events) == 0 {
		return nil
	}

	q := `
	INSERT INTO room_events (room_code, event, member_count, created_at)
	VALUES ($1, $2, $3, $4);
	`
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(q, event.RoomCode, string(event.Type), event.MemberCount, event.Timestamp)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert room events: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListRoomEvents(ctx context.Context, limit int) ([]models.RoomEvent, error) {
	q := `
	SELECT id, room_code, event, member_count, created_at
	FROM room_events
	ORDER BY id DESC
	LIMIT $1;
	`
	rows, err := r.pool.Query(ctx, q, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query room events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RoomEvent, error) {
		var event models.RoomEvent
		var eventType string
		if err := row.Scan(&event.ID, &event.RoomCode, &eventType, &event.MemberCount, &event.Timestamp); err != nil {
			return event, err
		}
		event.Type = models.RoomEventType(eventType)
		return event, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan room events: %w", err)
	}

	return events, nil
}
