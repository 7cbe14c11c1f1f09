package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/twowaysql/internal/cli/output"
	"github.com/leapstack-labs/twowaysql/internal/loader"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates with their frontmatter",
		Long: `List every template under the templates directory with its
description, tags and default parameter names.

Use --output to override: auto, text, markdown, json`,
		Example: `  # List templates
  twowaysql list

  # List templates as JSON
  twowaysql list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}
	return cmd
}

func runList(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	ldr, err := cmdCtx.NewLoader()
	if err != nil {
		return err
	}
	templates, err := ldr.Discover()
	if err != nil {
		return fmt.Errorf("failed to discover templates: %w", err)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		infos := make([]output.TemplateInfo, 0, len(templates))
		for _, t := range templates {
			infos = append(infos, templateInfo(t))
		}
		return r.JSON(infos)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Templates (%d total)", len(templates))))
		r.Println("")
		for _, t := range templates {
			info := templateInfo(t)
			r.Println(output.FormatHeader(2, info.Name))
			r.Println(output.FormatKeyValue("File", info.File))
			if info.Description != "" {
				r.Println(output.FormatKeyValue("Description", info.Description))
			}
			if len(info.Tags) > 0 {
				r.Println(output.FormatKeyValue("Tags", strings.Join(info.Tags, ", ")))
			}
			if len(info.Params) > 0 {
				r.Println(output.FormatKeyValue("Params", strings.Join(info.Params, ", ")))
			}
			r.Println("")
		}
	default:
		r.Header(1, fmt.Sprintf("Templates (%d total)", len(templates)))
		for _, t := range templates {
			line := t.Name
			if t.Config.Description != "" {
				line += "  " + r.Styles().Muted.Render(t.Config.Description)
			}
			r.Println(line)
		}
	}
	return nil
}

func templateInfo(t *loader.Template) output.TemplateInfo {
	info := output.TemplateInfo{
		Name:        t.Name,
		File:        t.Path,
		Description: t.Config.Description,
		Tags:        t.Config.Tags,
	}
	for k := range t.Config.Params {
		info.Params = append(info.Params, k)
	}
	sort.Strings(info.Params)
	return info
}
