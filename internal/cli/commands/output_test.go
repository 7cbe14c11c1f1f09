package commands

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/twowaysql/internal/cli/output"
	"github.com/leapstack-labs/twowaysql/internal/cli/testutil"
	"github.com/leapstack-labs/twowaysql/internal/loader"
	"github.com/leapstack-labs/twowaysql/internal/state"
	"github.com/leapstack-labs/twowaysql/pkg/adapter"
	"github.com/leapstack-labs/twowaysql/pkg/template"
)

var sampleResult = &template.Result{
	SQL:        "SELECT * FROM MEMBER WHERE MEMBER_ID = ? AND STATUS IN (?, ?)",
	Args:       []any{3, "FML", "PRV"},
	DisplaySQL: "SELECT * FROM MEMBER WHERE MEMBER_ID = 3 AND STATUS IN ('FML', 'PRV')",
}

var sampleTemplate = &loader.Template{Name: "member/search", Config: &loader.FrontmatterConfig{}}

func TestWriteRenderResult(t *testing.T) {
	tests := []struct {
		name  string
		tr    *testutil.TestRenderer
		mode  output.OutputMode
		check func(t *testing.T, out string)
	}{
		{
			name: "markdown",
			tr:   testutil.NewTestRendererMarkdown(),
			mode: output.ModeMarkdown,
			check: func(t *testing.T, out string) {
				testutil.AssertValidMarkdown(t, out)
				assert.Contains(t, out, "# Rendered SQL: member/search")
				assert.Contains(t, out, "```sql\n"+sampleResult.SQL+"\n```")
				assert.Contains(t, out, "| 3 | string | PRV |")
				assert.Contains(t, out, "## Display SQL")
			},
		},
		{
			name: "json",
			tr:   testutil.NewTestRendererJSON(),
			mode: output.ModeJSON,
			check: func(t *testing.T, out string) {
				var got output.RenderOutput
				require.NoError(t, json.Unmarshal([]byte(out), &got))
				assert.Equal(t, sampleResult.SQL, got.SQL)
				assert.Equal(t, sampleResult.DisplaySQL, got.DisplaySQL)
				assert.Len(t, got.Args, 3)
			},
		},
		{
			name: "text",
			tr:   testutil.NewTestRendererText(),
			mode: output.ModeText,
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, sampleResult.SQL+"\n")
				assert.Contains(t, out, "FML")
				assert.Contains(t, out, "MEMBER_ID = 3")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeRenderResult(tt.tr.Renderer, sampleTemplate, sampleResult)
			testutil.AssertOutputMode(t, tt.tr, tt.mode)
			tt.check(t, tt.tr.Output())
		})
	}
}

func TestWriteExecResult(t *testing.T) {
	rs := &adapter.ResultSet{
		Columns: []string{"MEMBER_ID", "MEMBER_NAME"},
		Rows:    [][]any{{int64(3), "Stojkovic"}},
	}
	out := output.ExecOutput{Template: "member/search", RowsAffected: 1, DurationMS: 4, ExecutionID: "abc"}

	tr := testutil.NewTestRendererMarkdown()
	writeExecResult(tr.Renderer, out, rs)
	assert.Contains(t, tr.Output(), "| 3 | Stojkovic |")
	assert.Contains(t, tr.Output(), "- **Result**: member/search: 1 row(s) in 4ms")
	assert.Contains(t, tr.Output(), "- **Execution**: abc")

	tr = testutil.NewTestRendererJSON()
	writeExecResult(tr.Renderer, out, rs)
	var got output.ExecOutput
	require.NoError(t, json.Unmarshal([]byte(tr.Output()), &got))
	assert.Equal(t, []string{"MEMBER_ID", "MEMBER_NAME"}, got.Columns)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "Stojkovic", got.Rows[0]["MEMBER_NAME"])

	tr = testutil.NewTestRendererMarkdown()
	writeExecResult(tr.Renderer, out, &adapter.ResultSet{Columns: []string{"A"}})
	assert.Contains(t, tr.Output(), "(0 rows)")
}

func TestWriteHistoryEntry(t *testing.T) {
	e := &state.Entry{
		ID:         "0b6f3c2e-1111-2222-3333-444455556666",
		Template:   "member/update",
		Target:     "dev",
		DisplaySQL: "UPDATE MEMBER SET STATUS = 'FML'",
		Status:     state.StatusFailed,
		Error:      "no such table: MEMBER",
		Duration:   12 * time.Millisecond,
		ExecutedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	tr := testutil.NewTestRendererMarkdown()
	require.NoError(t, writeHistoryEntry(tr.Renderer, e))
	testutil.AssertValidMarkdown(t, tr.Output())
	assert.Contains(t, tr.Output(), "- **Status**: failed")
	assert.Contains(t, tr.Output(), "- **Error**: no such table: MEMBER")

	tr = testutil.NewTestRendererJSON()
	require.NoError(t, writeHistoryEntry(tr.Renderer, e))
	var got output.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(tr.Output()), &got))
	assert.Equal(t, int64(12), got.DurationMS)
	assert.Equal(t, "2026-01-02T03:04:05Z", got.ExecutedAt)

	assert.Equal(t, "0b6f3c2e", shortID(e.ID))
	assert.Equal(t, "abc", shortID("abc"))
}
