package migrate

import (
	"context"
	"database/sql"
	"time"
)

// Record is one applied migration.
type Record struct {
	Version   string    `json:"version"`
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"appliedAt"`
}

// State persists which migrations have been applied. Implementations must
// return records sorted ascending by version.
type State interface {
	// Init prepares the backing store, creating it when absent.
	Init(ctx context.Context) error
	// Applied returns every applied-migration record.
	Applied(ctx context.Context) ([]Record, error)
	// MarkApplied records a migration as applied.
	MarkApplied(ctx context.Context, r Record) error
	// Remove deletes the record for version, moving it back to pending.
	Remove(ctx context.Context, version string) error
}

// Execer is the database surface shared by the engine and the table-backed
// state; *sql.DB and *sql.Tx both satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
