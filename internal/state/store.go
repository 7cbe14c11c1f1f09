// Package state keeps a local journal of executed statements in SQLite.
package state

import "time"

// Status is the outcome of an execution.
type Status string

// Status constants.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Entry is one journaled execution.
type Entry struct {
	ID           string
	Template     string
	Target       string
	Adapter      string
	DisplaySQL   string
	ArgCount     int
	RowsAffected int64
	Status       Status
	Error        string
	Duration     time.Duration
	ExecutedAt   time.Time
}

// ListOptions filters List.
type ListOptions struct {
	Template string // exact template name; empty matches all
	Limit    int    // zero means no limit
}

// Store records executions.
type Store interface {
	Record(e *Entry) error
	Get(id string) (*Entry, error)
	List(opts ListOptions) ([]*Entry, error)
	Close() error
}
