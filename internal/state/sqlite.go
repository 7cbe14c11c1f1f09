package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // sqlite driver
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite state store instance.
// If logger is nil, a discard logger is used.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database and applies migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}

	s.logger.Debug("opened state store", slog.String("path", path))
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// Record stores e. ID and ExecutedAt are filled in when empty.
func (s *SQLiteStore) Record(e *Entry) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if e.ID == "" {
		e.ID = generateID()
	}
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = StatusSuccess
	}

	s.logger.Debug("recording execution", slog.String("id", e.ID), slog.String("template", e.Template))

	_, err := s.db.Exec(
		`INSERT INTO executions (id, template, target, adapter, display_sql, arg_count, rows_affected, status, error, duration_ms, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Template, e.Target, e.Adapter, e.DisplaySQL, e.ArgCount, e.RowsAffected,
		string(e.Status), nullString(e.Error), e.Duration.Milliseconds(), e.ExecutedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

const selectEntry = `SELECT id, template, target, adapter, display_sql, arg_count, rows_affected, status, error, duration_ms, executed_at FROM executions`

// Get retrieves an entry by ID.
func (s *SQLiteStore) Get(id string) (*Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	e, err := scanEntry(s.db.QueryRow(selectEntry+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("execution not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return e, nil
}

// List returns entries newest first.
func (s *SQLiteStore) List(opts ListOptions) ([]*Entry, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := selectEntry
	var args []any
	if opts.Template != "" {
		query += ` WHERE template = ?`
		args = append(args, opts.Template)
	}
	query += ` ORDER BY executed_at DESC, rowid DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	e := &Entry{}
	var (
		status     string
		errMsg     sql.NullString
		durationMS int64
		executedAt int64
	)
	if err := row.Scan(&e.ID, &e.Template, &e.Target, &e.Adapter, &e.DisplaySQL, &e.ArgCount,
		&e.RowsAffected, &status, &errMsg, &durationMS, &executedAt); err != nil {
		return nil, err
	}
	e.Status = Status(status)
	e.Error = errMsg.String
	e.Duration = time.Duration(durationMS) * time.Millisecond
	e.ExecutedAt = time.UnixMilli(executedAt).UTC()
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
