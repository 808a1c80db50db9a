package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/record-service-go/internal/record"
	"go.uber.org/zap"
)

const schema = `
	CREATE TABLE IF NOT EXISTS records (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS records_name_key ON records (name);
`

// PostgresStore is a PostgreSQL implementation of record.Repository.
// Uniqueness is enforced by the records_name_key index; writes are a single upsert.
type PostgresStore struct {
	mu     sync.Mutex
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a new PostgreSQL-backed record store.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Migrate creates the records table and its unique index if missing.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate records schema: %w", err)
	}

	return nil
}

func (p *PostgresStore) Get(ctx context.Context, name string) (*record.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// LIMIT 2 is enough to tell a single match from an anomalous one.
	query := `
		SELECT id, name, updated_at
		FROM records
		WHERE name = $1
		LIMIT 2
	`

	rows, err := p.pool.Query(context.WithoutCancel(ctx), query, name)
	if err != nil {
		return nil, fmt.Errorf("get record %q: %w", name, err)
	}
	defer rows.Close()

	var matches []record.Record

	for rows.Next() {
		var rec record.Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan record %q: %w", name, err)
		}

		matches = append(matches, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get record %q: %w", name, err)
	}

	switch len(matches) {
	case 0:
		return nil, record.ErrNotFound
	case 1:
		return &matches[0], nil
	default:
		p.logger.Error("multiple records share a name", zap.String("name", name))

		return nil, record.ErrNotFound
	}
}

func (p *PostgresStore) Set(ctx context.Context, name string) (*record.Record, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The update branch rewrites the same name on purpose so updated_at moves.
	// xmax is zero only for freshly inserted tuples.
	query := `
		INSERT INTO records (name, updated_at)
		VALUES ($1, now())
		ON CONFLICT (name) DO UPDATE
			SET name = EXCLUDED.name, updated_at = now()
		RETURNING id, name, updated_at, (xmax = 0) AS inserted
	`

	var (
		rec     record.Record
		created bool
	)

	err := p.pool.QueryRow(context.WithoutCancel(ctx), query, name).Scan(
		&rec.ID,
		&rec.Name,
		&rec.UpdatedAt,
		&created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("set record %q: %w", name, err)
	}

	return &rec, created, nil
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

// Compile-time checks.
var (
	_ record.Repository = (*PostgresStore)(nil)
	_ record.Pinger     = (*PostgresStore)(nil)
)
