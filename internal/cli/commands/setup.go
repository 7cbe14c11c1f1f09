package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/twowaysql/internal/cli/config"
	"github.com/leapstack-labs/twowaysql/internal/cli/output"
	"github.com/leapstack-labs/twowaysql/internal/loader"
	"github.com/leapstack-labs/twowaysql/internal/state"
	"github.com/leapstack-labs/twowaysql/pkg/template"

	// Register the built-in adapters.
	_ "github.com/leapstack-labs/twowaysql/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/twowaysql/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/twowaysql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/twowaysql/pkg/adapters/sqlite"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// NewLoader creates a template loader for the templates directory. When
// the configuration leaves the placeholder style unset, adapterStyle (if
// given) is used instead.
func (c *CommandContext) NewLoader(adapterStyle ...template.PlaceholderStyle) (*loader.Loader, error) {
	renderCfg, err := c.Cfg.Render.ToRenderConfig()
	if err != nil {
		return nil, err
	}
	if len(adapterStyle) > 0 && !c.Cfg.Render.HasPlaceholder() {
		renderCfg.Placeholder = adapterStyle[0]
	}

	if err := c.Cfg.ValidateDirectories(); err != nil {
		return nil, err
	}

	eng := template.New(template.WithConfig(renderCfg))
	return loader.New(c.Cfg.TemplatesDir, eng, c.Logger), nil
}

// OpenJournal opens the execution journal. It returns a nil store when the
// journal is disabled.
func (c *CommandContext) OpenJournal() (state.Store, error) {
	if !c.Cfg.Journal {
		return nil, nil
	}

	stateDir := filepath.Dir(c.Cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return store, nil
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		TemplatesDir: getEnvOrDefault("TWOWAYSQL_TEMPLATES_DIR", config.DefaultTemplatesDir),
		StatePath:    getEnvOrDefault("TWOWAYSQL_STATE_PATH", config.DefaultStateFile),
		Journal:      os.Getenv("TWOWAYSQL_JOURNAL") != "false",
		Environment:  getEnvOrDefault("TWOWAYSQL_ENVIRONMENT", config.DefaultEnv),
		Verbose:      os.Getenv("TWOWAYSQL_VERBOSE") == "true",
		OutputFormat: os.Getenv("TWOWAYSQL_OUTPUT"),
		Target:       &config.TargetConfig{Type: "sqlite", Database: ":memory:"},
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// templateArg normalizes a template argument given as a name or a file path.
func templateArg(templatesDir, arg string) string {
	if filepath.IsAbs(arg) {
		if rel, err := filepath.Rel(templatesDir, arg); err == nil && !strings.HasPrefix(rel, "..") {
			arg = rel
		}
	}
	return loader.NameFromPath(filepath.ToSlash(arg))
}
