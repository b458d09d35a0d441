package repositories

import (
	"context"
	"fmt"
	"net/url"
)

// Open returns the repository described by connStr:
// an empty string keeps history in memory, sqlite://<path> and
// postgres(ql)://... select a database.
func Open(ctx context.Context, connStr string) (Repository, error) {
	if connStr == "" {
		return NewInMemoryRepository(DefaultMemoryCapacity), nil
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	switch u.Scheme {
	case "sqlite":
		path := u.Host + u.Path
		if path == "" {
			return nil, fmt.Errorf("sqlite connection string has no path: %s", connStr)
		}
		return NewSQLiteRepository(ctx, path)
	case "postgres", "postgresql":
		return NewPostgresRepository(ctx, connStr)
	default:
		return nil, fmt.Errorf("unknown database type %s", u.Scheme)
	}
}
