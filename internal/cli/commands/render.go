package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/twowaysql/internal/cli/output"
	"github.com/leapstack-labs/twowaysql/internal/loader"
	"github.com/leapstack-labs/twowaysql/pkg/params"
	"github.com/leapstack-labs/twowaysql/pkg/template"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template into SQL and bound arguments",
		Long: `Render a two-way SQL template against parameter values.

Prints the prepared statement, its arguments in placeholder order and the
display SQL with every value inlined. Values missing from --params and
--set fall back to the template's frontmatter params.

Output adapts to environment:
  - Terminal: Plain SQL followed by an argument table
  - Piped/Scripted: Markdown with code blocks`,
		Example: `  # Render with values from a file
  twowaysql render member/search --params search.yaml

  # Override single values
  twowaysql render member/search --set pmb.memberName=S% --set 'pmb.statusList=[FML, PRV]'

  # Render as JSON
  twowaysql render member/search --output json

  # Re-render whenever the template changes
  twowaysql render member/search --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0])
		},
	}

	addParamFlags(cmd)
	cmd.Flags().BoolP("watch", "w", false, "Re-render when template files change")

	return cmd
}

func runRender(cmd *cobra.Command, name string) error {
	cmdCtx := NewCommandContext(cmd)

	ldr, err := cmdCtx.NewLoader()
	if err != nil {
		return err
	}
	pc, err := paramsFromFlags(cmd)
	if err != nil {
		return err
	}

	name = templateArg(ldr.Dir(), name)
	if err := renderOnce(cmdCtx.Renderer, ldr, name, pc); err != nil {
		return err
	}

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return nil
	}
	return watchRender(cmd.Context(), cmdCtx, ldr, name, pc)
}

func renderOnce(r *output.Renderer, ldr *loader.Loader, name string, pc params.Map) error {
	res, tmpl, err := ldr.Render(name, pc)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	writeRenderResult(r, tmpl, res)
	return nil
}

func watchRender(ctx context.Context, cmdCtx *CommandContext, ldr *loader.Loader, name string, pc params.Map) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := cmdCtx.Renderer
	w, err := ldr.Watch(ctx, func(changed string) {
		if changed != name {
			return
		}
		if err := renderOnce(r, ldr, name, pc); err != nil {
			r.Error(err.Error())
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	r.Muted(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", ldr.Dir()))
	<-ctx.Done()
	return nil
}

func writeRenderResult(r *output.Renderer, tmpl *loader.Template, res *template.Result) {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		_ = r.JSON(output.RenderOutput{
			Template:   tmpl.Name,
			SQL:        res.SQL,
			Args:       res.Args,
			DisplaySQL: res.DisplaySQL,
		})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Rendered SQL: %s", tmpl.Name)))
		r.Println("")
		r.Println(output.FormatCodeBlock("sql", res.SQL))
		r.Println("")
		if len(res.Args) > 0 {
			r.Println(output.FormatHeader(2, "Arguments"))
			r.Println("")
			output.WriteTable(r.Writer(), output.ModeMarkdown, []string{"#", "type", "value"}, argRows(res.Args))
			r.Println("")
		}
		r.Println(output.FormatHeader(2, "Display SQL"))
		r.Println("")
		r.Println(output.FormatCodeBlock("sql", res.DisplaySQL))
	default:
		r.Println(res.SQL)
		if len(res.Args) > 0 {
			r.Println("")
			output.WriteTable(r.Writer(), output.ModeText, []string{"#", "type", "value"}, argRows(res.Args))
		}
		r.Println("")
		r.Muted(res.DisplaySQL)
	}
}

func argRows(args []any) [][]any {
	rows := make([][]any, len(args))
	for i, a := range args {
		rows[i] = []any{i + 1, fmt.Sprintf("%T", a), fmt.Sprintf("%v", a)}
	}
	return rows
}
