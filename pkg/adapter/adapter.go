// Package adapter defines how rendered statements reach a database.
//
// An adapter executes a template.Result: the prepared SQL with its bound
// arguments goes to the driver, the display SQL goes to the log. Concrete
// adapters live in pkg/adapters and register themselves by name.
package adapter

import (
	"context"
	"database/sql"
	"time"

	"github.com/leapstack-labs/twowaysql/pkg/template"
)

// Config holds configuration for connecting to a database.
type Config struct {
	Type     string
	Path     string // file path for embedded databases
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string

	// Params carries adapter-specific settings decoded by the adapter.
	Params map[string]any

	// StatementTimeout bounds each Exec and Query. Zero means no limit.
	StatementTimeout time.Duration
}

// Adapter executes rendered statements against a database.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a statement that doesn't return rows and reports the
	// number of affected rows.
	Exec(ctx context.Context, res *template.Result) (int64, error)

	// Query executes a statement that returns rows. The caller closes them.
	Query(ctx context.Context, res *template.Result) (*Rows, error)

	// Placeholder returns the placeholder style the driver expects.
	Placeholder() template.PlaceholderStyle
}

// Rows wraps query results.
type Rows struct {
	*sql.Rows
}
