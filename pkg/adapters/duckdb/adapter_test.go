package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/twowaysql/pkg/adapter"
	"github.com/leapstack-labs/twowaysql/pkg/params"
	"github.com/leapstack-labs/twowaysql/pkg/template"
)

func render(t *testing.T, input string, pc params.Map) *template.Result {
	t.Helper()
	res, err := template.RenderString(input, "test.sql", pc, template.DefaultConfig())
	require.NoError(t, err)
	return res
}

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				tmpDir := t.TempDir()
				return filepath.Join(tmpDir, "test.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			dbPath := tt.setupPath(t)
			require.NoError(t, adp.Connect(ctx, adapter.Config{Path: dbPath}))
			defer func() { _ = adp.Close() }()

			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_ConnectSettings(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, adapter.Config{
		Path:   ":memory:",
		Params: map[string]any{"settings": map[string]any{"threads": 1}},
	}))
	defer func() { _ = adp.Close() }()

	var threads int
	require.NoError(t, adp.DB.QueryRowContext(ctx, "SELECT current_setting('threads')").Scan(&threads))
	assert.Equal(t, 1, threads)
}

func TestAdapter_ConnectInvalidParams(t *testing.T) {
	adp := New(nil)
	err := adp.Connect(context.Background(), adapter.Config{
		Params: map[string]any{"unknown": true},
	})
	require.Error(t, err)
	assert.False(t, adp.IsConnected())
}

func TestAdapter_NotConnected(t *testing.T) {
	res := &template.Result{SQL: "SELECT 1", Args: []any{}, DisplaySQL: "SELECT 1"}

	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "exec without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.Exec(ctx, res)
				return err
			},
		},
		{
			name: "query without connect",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.Query(ctx, res)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			err := tt.operation(ctx, adp)
			assert.Error(t, err, "expected error when operating without connection")
		})
	}
}

func TestAdapter_Close(t *testing.T) {
	tests := []struct {
		name    string
		connect bool
	}{
		{"close without connect", false},
		{"close after connect", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			if tt.connect {
				require.NoError(t, adp.Connect(ctx, adapter.Config{Path: ":memory:"}))
			}

			assert.NoError(t, adp.Close())
		})
	}
}

func TestAdapter_RenderedStatements(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, adapter.Config{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	_, err := adp.Exec(ctx, render(t, `CREATE TABLE member (id INTEGER, name VARCHAR, status VARCHAR)`, nil))
	require.NoError(t, err)

	insert := `INSERT INTO member VALUES (/*pmb.id*/1, /*pmb.name*/'x', /*pmb.status*/'FML')`
	for _, m := range []map[string]any{
		{"id": 1, "name": "alice", "status": "FML"},
		{"id": 2, "name": "bob", "status": "PRV"},
		{"id": 3, "name": "carol", "status": "WDL"},
	} {
		n, err := adp.Exec(ctx, render(t, insert, params.Map{"pmb": m}))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}

	query := `SELECT name FROM member
 /*BEGIN*/WHERE
 /*IF pmb.statusList != null*/status IN /*pmb.statusList*/('X')/*END*/
 /*IF pmb.name != null*/AND name = /*pmb.name*/'x'/*END*/
 /*END*/
ORDER BY id`

	tests := []struct {
		name  string
		pmb   map[string]any
		names []any
	}{
		{name: "no filters", pmb: map[string]any{"statusList": nil, "name": nil}, names: []any{"alice", "bob", "carol"}},
		{name: "status list", pmb: map[string]any{"statusList": []string{"FML", "PRV"}, "name": nil}, names: []any{"alice", "bob"}},
		{name: "name only", pmb: map[string]any{"statusList": nil, "name": "carol"}, names: []any{"carol"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := adp.Query(ctx, render(t, query, params.Map{"pmb": tt.pmb}))
			require.NoError(t, err)

			rs, err := adapter.ReadAll(rows)
			require.NoError(t, err)

			var names []any
			for _, row := range rs.Rows {
				names = append(names, row[0])
			}
			assert.Equal(t, tt.names, names)
		})
	}
}
