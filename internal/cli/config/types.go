// Package config provides configuration management for the twowaysql CLI.
//
// This package extends the shared configuration types from internal/config
// with CLI-specific fields. The shared types are re-exported here via type
// aliases for convenience.
package config

import (
	sharedcfg "github.com/leapstack-labs/twowaysql/internal/config"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = sharedcfg.TargetConfig

// RenderConfig is an alias for the shared render configuration.
type RenderConfig = sharedcfg.RenderConfig

// Config holds all CLI configuration options.
type Config struct {
	TemplatesDir string               `koanf:"templates_dir"`
	StatePath    string               `koanf:"state_path"`
	Journal      bool                 `koanf:"journal"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Target       *TargetConfig        `koanf:"target"`
	Render       *RenderConfig        `koanf:"render"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	TemplatesDir string        `koanf:"templates_dir"`
	Target       *TargetConfig `koanf:"target"`
	Render       *RenderConfig `koanf:"render"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultTemplatesDir = sharedcfg.DefaultTemplatesDir
	DefaultStateFile    = ".twowaysql/state.db"
	DefaultEnv          = "dev"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
