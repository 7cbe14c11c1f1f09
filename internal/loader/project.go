package loader

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/twowaysql/internal/config"
	"github.com/leapstack-labs/twowaysql/pkg/adapter"
	"github.com/leapstack-labs/twowaysql/pkg/template"
)

// FromProject creates a Loader for the project whose twowaysql.yaml is in
// dir or one of its parents. Without a config file the templates are read
// from dir/sql with default render settings.
//
// When render.placeholder is unset and the target adapter is registered,
// the adapter's placeholder style is used.
func FromProject(dir string, logger *slog.Logger) (*Loader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	root := config.FindProjectRoot(abs)
	if root == "" {
		root = abs
	}

	cfg, err := config.LoadFromDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	if cfg == nil {
		cfg = &config.ProjectConfig{}
		cfg.ApplyDefaults()
	}

	renderCfg, err := cfg.Render.ToRenderConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Render.HasPlaceholder() && cfg.Target != nil {
		if a, err := adapter.NewAdapter(cfg.Target.ToAdapterConfig(), logger); err == nil {
			renderCfg.Placeholder = a.Placeholder()
		}
	}

	templatesDir := cfg.TemplatesDir
	if !filepath.IsAbs(templatesDir) {
		templatesDir = filepath.Join(root, templatesDir)
	}
	return New(templatesDir, template.New(template.WithConfig(renderCfg)), logger), nil
}
