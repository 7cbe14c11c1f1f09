package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/twowaysql/pkg/adapter"
	"github.com/leapstack-labs/twowaysql/pkg/template"

	_ "github.com/leapstack-labs/twowaysql/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/twowaysql/pkg/adapters/sqlite"
)

func TestTargetConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		target    TargetConfig
		errSubstr string
	}{
		{name: "empty type", target: TargetConfig{}, errSubstr: "target type is required"},
		{name: "sqlite", target: TargetConfig{Type: "sqlite"}},
		{name: "uppercase", target: TargetConfig{Type: "Postgres"}},
		{name: "unknown", target: TargetConfig{Type: "oracle"}, errSubstr: "unknown adapter type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestTargetConfig_ToAdapterConfig(t *testing.T) {
	tests := []struct {
		name   string
		target TargetConfig
		want   adapter.Config
	}{
		{
			name:   "embedded uses database as path",
			target: TargetConfig{Type: "SQLite", Database: "app.db"},
			want:   adapter.Config{Type: "sqlite", Path: "app.db", Database: "app.db"},
		},
		{
			name: "network",
			target: TargetConfig{
				Type:             "postgres",
				Host:             "db",
				Port:             5432,
				Database:         "app",
				User:             "u",
				Password:         "p",
				StatementTimeout: time.Second,
				Options:          map[string]string{"sslmode": "require"},
			},
			want: adapter.Config{
				Type:             "postgres",
				Host:             "db",
				Port:             5432,
				Database:         "app",
				Username:         "u",
				Password:         "p",
				StatementTimeout: time.Second,
				Options:          map[string]string{"sslmode": "require"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.target.ToAdapterConfig())
		})
	}
}

func TestApplyTargetDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   TargetConfig
		want TargetConfig
	}{
		{name: "empty", in: TargetConfig{}, want: TargetConfig{Type: "sqlite", Database: ":memory:"}},
		{name: "postgres port", in: TargetConfig{Type: "postgres"}, want: TargetConfig{Type: "postgres", Port: 5432}},
		{name: "mysql port", in: TargetConfig{Type: "mysql"}, want: TargetConfig{Type: "mysql", Port: 3306}},
		{name: "keeps values", in: TargetConfig{Type: "duckdb", Database: "a.duckdb"}, want: TargetConfig{Type: "duckdb", Database: "a.duckdb"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			ApplyTargetDefaults(&got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderConfig_ToRenderConfig(t *testing.T) {
	t.Run("nil is default", func(t *testing.T) {
		var r *RenderConfig
		cfg, err := r.ToRenderConfig()
		require.NoError(t, err)
		assert.Equal(t, template.DefaultConfig(), cfg)
		assert.False(t, r.HasPlaceholder())
	})

	t.Run("overrides", func(t *testing.T) {
		r := &RenderConfig{
			DateFormat:     "%Y/%m/%d",
			Timezone:       "UTC",
			LoopSeparator:  " | ",
			UnsafeEmbed:    true,
			Connectors:     []string{},
			ClauseKeywords: []string{"WHERE"},
			Placeholder:    "dollar",
		}
		cfg, err := r.ToRenderConfig()
		require.NoError(t, err)
		assert.Equal(t, "%Y/%m/%d", cfg.DateFormat)
		assert.Equal(t, time.UTC, cfg.Location)
		assert.Equal(t, " | ", cfg.LoopSeparator)
		assert.True(t, cfg.UnsafeEmbed)
		assert.Empty(t, cfg.Connectors)
		assert.NotNil(t, cfg.Connectors)
		assert.Equal(t, []string{"WHERE"}, cfg.ClauseKeywords)
		assert.Equal(t, template.PlaceholderDollar, cfg.Placeholder)
		assert.True(t, r.HasPlaceholder())
	})

	t.Run("bad timezone", func(t *testing.T) {
		_, err := (&RenderConfig{Timezone: "Mars/Olympus"}).ToRenderConfig()
		assert.ErrorContains(t, err, "invalid render.timezone")
	})

	t.Run("bad placeholder", func(t *testing.T) {
		_, err := (&RenderConfig{Placeholder: "colon"}).ToRenderConfig()
		assert.ErrorContains(t, err, "invalid render.placeholder")
	})
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Nil(t, cfg, "no config file is not an error")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`
target:
  type: postgres
  database: app
  statement_timeout: 15s
render:
  placeholder: dollar
`), 0o600))

	cfg, err = LoadFromDir(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultTemplatesDir, cfg.TemplatesDir)
	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, 5432, cfg.Target.Port)
	assert.Equal(t, 15*time.Second, cfg.Target.StatementTimeout)
	assert.Equal(t, "dollar", cfg.Render.Placeholder)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileNameAlt), []byte("{}"), 0o600))

	assert.Equal(t, root, FindProjectRoot(nested))
	assert.Equal(t, "", FindProjectRoot(t.TempDir()))
}
