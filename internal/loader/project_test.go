package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/twowaysql/internal/testutil"
	"github.com/leapstack-labs/twowaysql/pkg/params"

	_ "github.com/leapstack-labs/twowaysql/pkg/adapters/postgres"
)

func TestFromProject(t *testing.T) {
	pc := params.Map{"pmb": map[string]any{"a": 1, "b": 2}}
	const query = "SELECT /*pmb.a*/1, /*pmb.b*/2"

	tests := []struct {
		name      string
		config    string
		templates string
		want      string
	}{
		{
			name:      "no config file",
			templates: "sql",
			want:      "SELECT ?, ?",
		},
		{
			name:      "templates dir and adapter placeholder",
			config:    "templates_dir: queries\ntarget:\n  type: postgres\n",
			templates: "queries",
			want:      "SELECT $1, $2",
		},
		{
			name:      "explicit placeholder wins",
			config:    "templates_dir: queries\ntarget:\n  type: postgres\nrender:\n  placeholder: question\n",
			templates: "queries",
			want:      "SELECT ?, ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.config != "" {
				writeFile(t, filepath.Join(dir, "twowaysql.yaml"), tt.config)
			}
			writeFile(t, filepath.Join(dir, tt.templates, "q.sql"), query)

			l, err := FromProject(dir, testutil.NewTestLogger(t))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.templates), l.Dir())

			res, _, err := l.Render("q", pc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.SQL)
		})
	}
}

func TestFromProject_SearchesUpward(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "twowaysql.yaml"), "templates_dir: queries\n")
	writeFile(t, filepath.Join(dir, "queries", "q.sql"), "SELECT 1")

	l, err := FromProject(filepath.Join(dir, "queries"), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "queries"), l.Dir())
}

func TestFromProject_InvalidRender(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "twowaysql.yaml"), "render:\n  placeholder: colon\n")

	_, err := FromProject(dir, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid render.placeholder")
}
