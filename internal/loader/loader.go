package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/twowaysql/pkg/params"
	"github.com/leapstack-labs/twowaysql/pkg/template"
)

// Template is a template file read from disk.
type Template struct {
	Name    string // relative path without .sql, slash separated
	Path    string // absolute file path
	Config  *FrontmatterConfig
	SQL     string // template text after the frontmatter
	Offset  int    // lines taken by the frontmatter
	ModTime time.Time
}

// Defaults returns the frontmatter params as a parameter context.
func (t *Template) Defaults() params.Map {
	if t.Config == nil || t.Config.Params == nil {
		return params.Map{}
	}
	return params.Map(t.Config.Params)
}

// Loader reads templates under a directory and renders them through a
// shared engine. Loaded files are cached until Invalidate is called for
// their name.
type Loader struct {
	dir    string
	engine *template.Engine
	logger *slog.Logger

	mu        sync.RWMutex
	templates map[string]*Template
}

// New creates a Loader for dir. If engine is nil a default engine is used;
// if logger is nil a discard logger is used.
func New(dir string, engine *template.Engine, logger *slog.Logger) *Loader {
	if engine == nil {
		engine = template.New()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Loader{
		dir:       dir,
		engine:    engine,
		logger:    logger,
		templates: make(map[string]*Template),
	}
}

// Dir returns the templates directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Engine returns the engine templates are rendered with.
func (l *Loader) Engine() *template.Engine {
	return l.engine
}

// Discover walks the templates directory and loads every .sql file,
// skipping hidden directories. Templates are returned sorted by name.
func (l *Loader) Discover() ([]*Template, error) {
	var names []string
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".sql" {
			return nil
		}
		rel, err := filepath.Rel(l.dir, path)
		if err != nil {
			return err
		}
		names = append(names, NameFromPath(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan templates directory: %w", err)
	}

	sort.Strings(names)
	out := make([]*Template, 0, len(names))
	for _, name := range names {
		t, err := l.Load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	l.logger.Debug("discovered templates", slog.String("dir", l.dir), slog.Int("count", len(out)))
	return out, nil
}

// Load returns the template called name. name is a path relative to the
// templates directory, with or without the .sql extension.
func (l *Loader) Load(name string) (*Template, error) {
	name = NameFromPath(filepath.ToSlash(name))

	l.mu.RLock()
	t, ok := l.templates[name]
	l.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := l.read(name)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.templates[name] = t
	l.mu.Unlock()
	return t, nil
}

func (l *Loader) read(name string) (*Template, error) {
	path := filepath.Join(l.dir, filepath.FromSlash(name)+".sql")

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("template not found: %s", name)
		}
		return nil, fmt.Errorf("failed to stat template: %w", err)
	}

	content, err := os.ReadFile(path) //nolint:gosec // path is under the templates directory
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	fm, err := ExtractFrontmatter(string(content))
	if err != nil {
		var parseErr *FrontmatterParseError
		var fieldErr *UnknownFieldError
		switch {
		case errors.As(err, &parseErr):
			parseErr.File = path
		case errors.As(err, &fieldErr):
			fieldErr.File = path
		}
		return nil, err
	}

	relName := name + ".sql"
	fm.Config.ApplyDefaults(relName)

	l.logger.Debug("loaded template", slog.String("name", name), slog.Bool("frontmatter", fm.HasYAML))

	return &Template{
		Name:    name,
		Path:    path,
		Config:  fm.Config,
		SQL:     fm.SQL,
		Offset:  fm.Lines,
		ModTime: info.ModTime(),
	}, nil
}

// Check parses the template without rendering it.
func (l *Loader) Check(t *Template) error {
	_, err := l.engine.Parse(t.Name+".sql", t.SQL)
	return l.wrap(t, err)
}

// Render renders the template called name. Paths missing from pc fall back
// to the frontmatter params.
func (l *Loader) Render(name string, pc template.ParameterContext) (*template.Result, *Template, error) {
	t, err := l.Load(name)
	if err != nil {
		return nil, nil, err
	}

	ctx := params.Chain{t.Defaults()}
	if pc != nil {
		ctx = params.Chain{pc, t.Defaults()}
	}

	res, err := l.engine.Render(t.Name+".sql", t.SQL, ctx)
	if err != nil {
		return nil, t, l.wrap(t, err)
	}
	return res, t, nil
}

// Invalidate forgets the cached file and parsed template for name.
func (l *Loader) Invalidate(name string) {
	name = NameFromPath(filepath.ToSlash(name))

	l.mu.Lock()
	delete(l.templates, name)
	l.mu.Unlock()

	l.engine.Invalidate(name + ".sql")
	l.logger.Debug("invalidated template", slog.String("name", name))
}

// wrap shifts template error positions past the frontmatter.
func (l *Loader) wrap(t *Template, err error) error {
	if err == nil {
		return nil
	}
	var terr template.Error
	if !errors.As(err, &terr) {
		return err
	}
	return &TemplateError{Template: t, Err: terr}
}

// TemplateError is a template error located in its source file.
type TemplateError struct {
	Template *Template
	Err      template.Error
}

// Position returns the error position in the source file.
func (e *TemplateError) Position() template.Position {
	pos := e.Err.Position()
	pos.File = e.Template.Path
	pos.Line += e.Template.Offset
	return pos
}

func (e *TemplateError) Error() string {
	inner := e.Err.Position()
	msg := strings.TrimPrefix(e.Err.Error(), fmt.Sprintf("%s:%d:%d: ", inner.File, inner.Line, inner.Column))
	pos := e.Position()
	return fmt.Sprintf("%s:%d:%d: %s", pos.File, pos.Line, pos.Column, msg)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}
