package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/twowaysql/internal/cli/output"
	"github.com/leapstack-labs/twowaysql/internal/state"
	"github.com/leapstack-labs/twowaysql/pkg/adapter"
	"github.com/leapstack-labs/twowaysql/pkg/template"
)

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <template>",
		Short: "Render a template and execute it against the target",
		Long: `Render a template and run the prepared statement with its bound
arguments against the configured target database.

The placeholder style follows the target adapter ($1 for postgres, ? for
the others) unless render.placeholder is set. Each execution is recorded
in the local journal; see 'twowaysql history'.`,
		Example: `  # Run an update
  twowaysql exec member/update_status --set pmb.memberId=3 --set pmb.status=FML

  # Run a query and print the rows
  twowaysql exec member/search --query --params search.yaml

  # Run against another environment
  twowaysql exec member/search --query --target prod`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args[0])
		},
	}

	addParamFlags(cmd)
	cmd.Flags().BoolP("query", "q", false, "Statement returns rows; print them")

	return cmd
}

func runExec(cmd *cobra.Command, name string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	pc, err := paramsFromFlags(cmd)
	if err != nil {
		return err
	}

	adapterCfg := cfg.Target.ToAdapterConfig()
	db, err := adapter.Open(ctx, adapterCfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ldr, err := cmdCtx.NewLoader(db.Placeholder())
	if err != nil {
		return err
	}

	name = templateArg(ldr.Dir(), name)
	res, tmpl, err := ldr.Render(name, pc)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	journal, err := cmdCtx.OpenJournal()
	if err != nil {
		return err
	}
	if journal != nil {
		defer func() { _ = journal.Close() }()
	}

	query, _ := cmd.Flags().GetBool("query")
	out := output.ExecOutput{Template: tmpl.Name, DisplaySQL: res.DisplaySQL}

	start := time.Now()
	var rs *adapter.ResultSet
	if query {
		rs, err = runQuery(cmd, db, res)
		if rs != nil {
			out.RowsAffected = int64(len(rs.Rows))
		}
	} else {
		out.RowsAffected, err = db.Exec(ctx, res)
	}
	elapsed := time.Since(start)
	out.DurationMS = elapsed.Milliseconds()

	entry := &state.Entry{
		Template:     tmpl.Name,
		Target:       cfg.Environment,
		Adapter:      adapterCfg.Type,
		DisplaySQL:   res.DisplaySQL,
		ArgCount:     len(res.Args),
		RowsAffected: out.RowsAffected,
		Status:       state.StatusSuccess,
		Duration:     elapsed,
	}
	if err != nil {
		entry.Status = state.StatusFailed
		entry.Error = err.Error()
	}
	if journal != nil {
		if jerr := journal.Record(entry); jerr != nil {
			cmdCtx.Logger.Warn("failed to record execution", slog.String("error", jerr.Error()))
		}
		out.ExecutionID = entry.ID
	}
	if err != nil {
		return err
	}

	writeExecResult(r, out, rs)
	return nil
}

func runQuery(cmd *cobra.Command, db adapter.Adapter, res *template.Result) (*adapter.ResultSet, error) {
	rows, err := db.Query(cmd.Context(), res)
	if err != nil {
		return nil, err
	}
	rs, err := adapter.ReadAll(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rs, nil
}

func writeExecResult(r *output.Renderer, out output.ExecOutput, rs *adapter.ResultSet) {
	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		if rs != nil {
			out.Columns = rs.Columns
			out.Rows = rs.Maps()
		}
		_ = r.JSON(out)
		return
	}

	if rs != nil {
		if len(rs.Rows) == 0 {
			r.Println("(0 rows)")
		} else {
			output.WriteTable(r.Writer(), mode, rs.Columns, rs.Rows)
		}
	}

	summary := fmt.Sprintf("%s: %d row(s) in %dms", out.Template, out.RowsAffected, out.DurationMS)
	if mode == output.ModeMarkdown {
		r.Println("")
		r.Println(output.FormatKeyValue("Result", summary))
		if out.ExecutionID != "" {
			r.Println(output.FormatKeyValue("Execution", out.ExecutionID))
		}
		return
	}
	r.Success(summary)
}
