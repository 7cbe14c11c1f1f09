package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/twowaysql/internal/cli/output"
	"github.com/leapstack-labs/twowaysql/internal/loader"
	"github.com/leapstack-labs/twowaysql/pkg/template"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [template...]",
		Short: "Check templates for directive errors",
		Long: `Parse templates without rendering them and report unterminated
comments, unclosed or stray blocks and invalid directives with their file
positions. With no arguments every template under the templates directory
is checked.`,
		Example: `  # Check every template
  twowaysql check

  # Check specific templates
  twowaysql check member/search member/by_id`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}
	return cmd
}

func runCheck(cmd *cobra.Command, names []string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	ldr, err := cmdCtx.NewLoader()
	if err != nil {
		return err
	}

	results, err := checkTemplates(ldr, names)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if !res.OK {
			failed++
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(output.CheckOutput{
			Templates: results,
			Summary:   output.CheckSummary{Total: len(results), Failed: failed},
		}); err != nil {
			return err
		}
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Template check (%d total, %d failed)", len(results), failed)))
		r.Println("")
		for _, res := range results {
			if res.OK {
				r.Println(fmt.Sprintf("- `%s`: ok", res.Name))
				continue
			}
			r.Println(fmt.Sprintf("- `%s`: %s", res.Name, res.Error))
		}
	default:
		r.Header(1, fmt.Sprintf("Templates (%d total)", len(results)))
		for _, res := range results {
			if res.OK {
				r.Success(res.Name)
				continue
			}
			r.Fail(res.Name)
			r.Muted("  " + res.Error)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d template(s) failed", failed, len(results))
	}
	return nil
}

// checkTemplates checks the named templates, or every template when names
// is empty.
func checkTemplates(ldr *loader.Loader, names []string) ([]output.CheckResult, error) {
	var templates []*loader.Template
	var results []output.CheckResult

	if len(names) == 0 {
		all, err := ldr.Discover()
		if err != nil {
			return nil, err
		}
		templates = all
	} else {
		for _, name := range names {
			t, err := ldr.Load(templateArg(ldr.Dir(), name))
			if err != nil {
				results = append(results, output.CheckResult{Name: name, Error: err.Error()})
				continue
			}
			templates = append(templates, t)
		}
	}

	for _, t := range templates {
		res := output.CheckResult{Name: t.Name, File: t.Path, OK: true}
		if err := ldr.Check(t); err != nil {
			res.OK = false
			res.Error = err.Error()
			var terr template.Error
			if errors.As(err, &terr) {
				pos := terr.Position()
				res.Line, res.Column = pos.Line, pos.Column
			}
		}
		results = append(results, res)
	}
	return results, nil
}
