package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/record-service-go/internal/record"
	"go.uber.org/zap"
)

// ErrUnsupportedStorage is returned for storage locations with an unknown scheme.
var ErrUnsupportedStorage = errors.New("unsupported storage location")

// Open returns the repository described by location.
// Supported schemes are memory:// and postgres:// (or postgresql://).
func Open(ctx context.Context, location string, logger *zap.Logger) (record.Repository, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", ErrUnsupportedStorage)
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedStorage, err)
	}

	switch u.Scheme {
	case "memory":
		logger.Info("store open", zap.String("backend", "memory"))

		return NewMemoryStore(logger), nil
	case "postgres", "postgresql":
		pool, err := pgxpool.New(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}

		pg := NewPostgresStore(pool, logger)

		if err := pg.Migrate(ctx); err != nil {
			pool.Close()

			return nil, err
		}

		logger.Info("store open", zap.String("backend", "postgres"), zap.String("host", u.Host))

		return pg, nil
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedStorage, u.Scheme)
	}
}
