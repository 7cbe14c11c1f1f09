// Package config provides shared configuration types for twowaysql.
// This package is decoupled from CLI concerns so that the loader and other
// tools can read project configuration without the command layer.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/twowaysql/pkg/adapter"
	"github.com/leapstack-labs/twowaysql/pkg/template"
)

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // sqlite, duckdb, postgres, mysql

	// File path for embedded databases, database name otherwise
	Database string `koanf:"database"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// StatementTimeout bounds each statement, e.g. "30s".
	StatementTimeout time.Duration `koanf:"statement_timeout"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, settings)
	Params map[string]any `koanf:"params"`
}

// Validate checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	return nil
}

// ToAdapterConfig converts the target to an adapter.Config. Embedded
// database types take Database as a file path.
func (t *TargetConfig) ToAdapterConfig() adapter.Config {
	cfg := adapter.Config{
		Type:             strings.ToLower(t.Type),
		Host:             t.Host,
		Port:             t.Port,
		Database:         t.Database,
		Username:         t.User,
		Password:         t.Password,
		Options:          t.Options,
		Params:           t.Params,
		StatementTimeout: t.StatementTimeout,
	}
	if isEmbedded(cfg.Type) {
		cfg.Path = t.Database
	}
	return cfg
}

func isEmbedded(dbType string) bool {
	return dbType == "sqlite" || dbType == "duckdb"
}

// RenderConfig holds template rendering options.
type RenderConfig struct {
	DateFormat          string   `koanf:"date_format"`
	Timezone            string   `koanf:"timezone"`
	LoopSeparator       string   `koanf:"loop_separator"`
	UnsafeEmbed         bool     `koanf:"unsafe_embed"`
	Connectors          []string `koanf:"connectors"`
	ClauseKeywords      []string `koanf:"clause_keywords"`
	Placeholder         string   `koanf:"placeholder"` // question, dollar; empty follows the adapter
	KeepSubQueryMarkers bool     `koanf:"keep_subquery_markers"`
}

// ToRenderConfig converts r to a template.Config. A nil receiver yields
// the defaults.
func (r *RenderConfig) ToRenderConfig() (template.Config, error) {
	cfg := template.DefaultConfig()
	if r == nil {
		return cfg, nil
	}

	if r.DateFormat != "" {
		cfg.DateFormat = r.DateFormat
	}
	if r.LoopSeparator != "" {
		cfg.LoopSeparator = r.LoopSeparator
	}
	if r.Timezone != "" {
		loc, err := time.LoadLocation(r.Timezone)
		if err != nil {
			return cfg, fmt.Errorf("invalid render.timezone %q: %w", r.Timezone, err)
		}
		cfg.Location = loc
	}
	if r.Connectors != nil {
		cfg.Connectors = r.Connectors
	}
	if r.ClauseKeywords != nil {
		cfg.ClauseKeywords = r.ClauseKeywords
	}
	style, ok := template.ParsePlaceholderStyle(r.Placeholder)
	if !ok {
		return cfg, fmt.Errorf("invalid render.placeholder %q (expected question or dollar)", r.Placeholder)
	}
	cfg.Placeholder = style
	cfg.UnsafeEmbed = r.UnsafeEmbed
	cfg.KeepSubQueryMarkers = r.KeepSubQueryMarkers
	return cfg, nil
}

// HasPlaceholder reports whether the placeholder style was set explicitly.
func (r *RenderConfig) HasPlaceholder() bool {
	return r != nil && strings.TrimSpace(r.Placeholder) != ""
}

// ProjectConfig holds the minimal project configuration needed outside the CLI.
type ProjectConfig struct {
	TemplatesDir string        `koanf:"templates_dir"`
	Target       *TargetConfig `koanf:"target"`
	Render       *RenderConfig `koanf:"render"`
}
