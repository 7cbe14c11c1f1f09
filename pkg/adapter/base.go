package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/twowaysql/pkg/template"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, and Query implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		b.logger().Debug("closing database connection")
		return b.DB.Close()
	}
	return nil
}

// Exec executes a rendered statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, res *template.Result) (int64, error) {
	if b.DB == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	b.logStatement("exec", res)
	result, err := b.DB.ExecContext(ctx, res.SQL, res.Args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute SQL: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		// Not every driver reports affected rows.
		return 0, nil
	}
	return n, nil
}

// Query executes a rendered statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, res *template.Result) (*Rows, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	b.logStatement("query", res)
	// The timeout is left to the caller: cancelling here would close the rows.
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, res.SQL, res.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &Rows{Rows: rows}, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// WithTimeout applies the configured statement timeout to ctx.
func (b *BaseSQLAdapter) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return b.withTimeout(ctx)
}

func (b *BaseSQLAdapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.Cfg.StatementTimeout > 0 {
		return context.WithTimeout(ctx, b.Cfg.StatementTimeout)
	}
	return ctx, func() {}
}

func (b *BaseSQLAdapter) logStatement(op string, res *template.Result) {
	b.logger().Debug("executing statement",
		slog.String("op", op),
		slog.String("sql", res.DisplaySQL),
		slog.Int("args", len(res.Args)),
	)
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}
