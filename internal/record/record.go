package record

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no single record matches a name.
	ErrNotFound = errors.New("record not found")
	// ErrIntegrity is returned when more than one record shares a name.
	ErrIntegrity = errors.New("record integrity violation")
)

// Record is the single entity managed by the service, unique by Name.
type Record struct {
	ID        int64
	Name      string
	UpdatedAt time.Time
}

// Repository defines the storage operations for records.
type Repository interface {
	// Get returns the record whose name matches exactly.
	// Returns ErrNotFound when zero or more than one record matches.
	Get(ctx context.Context, name string) (*Record, error)

	// Set creates the record if absent, otherwise rewrites it by ID.
	// The boolean reports whether a new record was created.
	Set(ctx context.Context, name string) (*Record, bool, error)
}

// Pinger is implemented by repositories backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
