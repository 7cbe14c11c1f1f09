package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/twowaysql/internal/cli/output"
	"github.com/leapstack-labs/twowaysql/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [template]",
		Short: "Show executed statements from the journal",
		Long: `List journaled executions, newest first, optionally limited to one
template. Use --id to show the display SQL of a single execution.`,
		Example: `  # Last 20 executions
  twowaysql history

  # Executions of one template
  twowaysql history member/search --limit 5

  # One execution in full
  twowaysql history --id 0b6f3c2e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runHistory(cmd, name)
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of entries (0 for all)")
	cmd.Flags().String("id", "", "Show a single execution")

	return cmd
}

func runHistory(cmd *cobra.Command, name string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	if !cmdCtx.Cfg.Journal {
		return fmt.Errorf("journal is disabled (set journal: true in twowaysql.yaml)")
	}
	journal, err := cmdCtx.OpenJournal()
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	if id, _ := cmd.Flags().GetString("id"); id != "" {
		e, err := journal.Get(id)
		if err != nil {
			return err
		}
		return writeHistoryEntry(r, e)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if name != "" {
		name = templateArg(cmdCtx.Cfg.TemplatesDir, name)
	}
	entries, err := journal.List(state.ListOptions{Template: name, Limit: limit})
	if err != nil {
		return err
	}

	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		out := make([]output.HistoryEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, historyEntry(e))
		}
		return r.JSON(out)
	}

	if len(entries) == 0 {
		r.Println("No executions recorded.")
		return nil
	}

	if mode == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, fmt.Sprintf("History (%d entries)", len(entries))))
		r.Println("")
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			shortID(e.ID),
			e.ExecutedAt.Local().Format(time.DateTime),
			e.Template,
			e.Target,
			string(e.Status),
			e.RowsAffected,
			e.Duration.Round(time.Millisecond).String(),
		})
	}
	output.WriteTable(r.Writer(), mode, []string{"id", "executed", "template", "target", "status", "rows", "duration"}, rows)
	return nil
}

func writeHistoryEntry(r *output.Renderer, e *state.Entry) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(historyEntry(e))
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Execution %s", e.ID)))
		r.Println("")
		r.Println(output.FormatKeyValue("Template", e.Template))
		r.Println(output.FormatKeyValue("Target", e.Target))
		r.Println(output.FormatKeyValue("Status", string(e.Status)))
		r.Println(output.FormatKeyValue("Rows", fmt.Sprintf("%d", e.RowsAffected)))
		if e.Error != "" {
			r.Println(output.FormatKeyValue("Error", e.Error))
		}
		r.Println("")
		r.Println(output.FormatCodeBlock("sql", e.DisplaySQL))
	default:
		styles := r.Styles()
		r.Header(1, fmt.Sprintf("Execution %s", e.ID))
		r.Printf("  %s: %s\n", styles.Bold.Render("Template"), e.Template)
		r.Printf("  %s: %s\n", styles.Bold.Render("Target"), e.Target)
		r.Printf("  %s: %s\n", styles.Bold.Render("Status"), e.Status)
		r.Printf("  %s: %d\n", styles.Bold.Render("Rows"), e.RowsAffected)
		if e.Error != "" {
			r.Printf("  %s: %s\n", styles.Bold.Render("Error"), styles.Error.Render(e.Error))
		}
		r.Println("")
		r.Println(e.DisplaySQL)
	}
	return nil
}

func historyEntry(e *state.Entry) output.HistoryEntry {
	return output.HistoryEntry{
		ID:           e.ID,
		Template:     e.Template,
		Target:       e.Target,
		Status:       string(e.Status),
		RowsAffected: e.RowsAffected,
		DurationMS:   e.Duration.Milliseconds(),
		ExecutedAt:   e.ExecutedAt.Format(time.RFC3339),
		DisplaySQL:   e.DisplaySQL,
		Error:        e.Error,
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
