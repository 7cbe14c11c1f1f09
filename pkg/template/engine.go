package template

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Engine parses and renders templates with a shared render configuration.
// Parsed templates are cached by name and text; concurrent misses for the
// same template parse once. An Engine is safe for concurrent use.
type Engine struct {
	cfg Config

	mu    sync.RWMutex
	cache map[cacheKey]*Template
	group singleflight.Group
}

type cacheKey struct {
	name string
	text string
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the render configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:   DefaultConfig(),
		cache: make(map[cacheKey]*Template),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the render configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Parse returns the parsed template for text, from cache when possible.
// name is used in error positions.
func (e *Engine) Parse(name, text string) (*Template, error) {
	key := cacheKey{name: name, text: text}

	e.mu.RLock()
	tmpl, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	v, err, _ := e.group.Do(name+"\x00"+text, func() (any, error) {
		e.mu.RLock()
		cached, ok := e.cache[key]
		e.mu.RUnlock()
		if ok {
			return cached, nil
		}

		parsed, err := ParseString(text, name)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		e.cache[key] = parsed
		e.mu.Unlock()
		return parsed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Template), nil
}

// Render parses (or reuses) the template and renders it against pc.
func (e *Engine) Render(name, text string, pc ParameterContext) (*Result, error) {
	tmpl, err := e.Parse(name, text)
	if err != nil {
		return nil, err
	}
	return tmpl.Render(pc, e.cfg)
}

// Invalidate drops every cached template with the given name.
func (e *Engine) Invalidate(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key := range e.cache {
		if key.name == name {
			delete(e.cache, key)
		}
	}
}

// Purge drops every cached template.
func (e *Engine) Purge() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[cacheKey]*Template)
}

// Len returns the number of cached templates.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
