// Package sink appends extracted rows to the destination table.
//
// The writer owns the create-if-needed / append-only disposition: the table
// is created from the declared output schema when absent, an existing
// table's schema is never altered, and writes only ever add rows. Delivery
// is at-least-once; the pipeline performs no deduplication and downstream
// consumers must tolerate duplicate rows.
package sink

import (
	"context"

	"github.com/kramano/log-export/extract"
)

// Writer writes extracted rows to a downstream table store.
type Writer interface {
	// EnsureTable creates the destination table from the output schema if it
	// does not already exist. It never alters an existing table.
	EnsureTable(ctx context.Context) error

	// Append adds rows to the destination table. It never truncates or
	// overwrites pre-existing data. Failures are classified transient and
	// are eligible for retry by the caller.
	Append(ctx context.Context, rows []extract.Row) error

	// Close releases the writer's resources.
	Close(ctx context.Context) error
}

// Config holds destination store connection settings.
type Config struct {
	// URL is the Postgres connection string.
	URL string `json:"url"`
}
