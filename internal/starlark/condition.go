// Package starlark evaluates template conditions with Starlark.
//
// Conditions are written in a small C-like expression language
// (pmb.name != null && !pmb.flag) and translated to Starlark before
// evaluation. Property paths are resolved lazily through a Resolver, so only
// the properties a condition touches are read.
package starlark

import (
	"errors"
	"fmt"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Resolver looks up dotted property paths such as pmb.member.name.
type Resolver interface {
	Resolve(path string) (any, bool)
}

// Loop variable names as written in templates and as seen by Starlark.
const (
	CurrentName = "#current"
	IndexName   = "#index"

	currentIdent = "__current__"
	indexIdent   = "__index__"
)

const conditionFile = "condition"

var defaultPool = NewThreadPool(0)

// Condition is a compiled IF condition. It is immutable and safe for
// concurrent use.
type Condition struct {
	Source string // condition as written in the template
	Expr   string // translated Starlark expression

	roots []root
	paths []string // dotted attribute chains rooted at a free identifier
}

// root is a free identifier of the expression and the property path that
// backs it.
type root struct {
	ident string
	path  string
}

// Compile translates and parses a condition.
func Compile(src string) (*Condition, error) {
	expr, err := Translate(src)
	if err != nil {
		return nil, err
	}
	if expr == "" {
		return nil, &SyntaxError{Source: src, Message: "empty condition"}
	}

	parsed, err := syntax.ParseExpr(conditionFile, expr, 0) //nolint:staticcheck // SA1019: will migrate to FileOptions later
	if err != nil {
		return nil, &SyntaxError{Source: src, Message: err.Error()}
	}

	return &Condition{
		Source: src,
		Expr:   expr,
		roots:  collectRoots(parsed),
		paths:  collectPaths(parsed),
	}, nil
}

// Roots returns the property paths the condition reads at top level.
func (c *Condition) Roots() []string {
	paths := make([]string, len(c.roots))
	for i, r := range c.roots {
		paths[i] = r.path
	}
	return paths
}

// Eval evaluates the condition against r. The result must be a boolean.
func (c *Condition) Eval(r Resolver) (bool, error) {
	globals := make(starlark.StringDict, len(c.roots)+len(Predeclared()))
	for name, v := range Predeclared() {
		globals[name] = v
	}
	for _, rt := range c.roots {
		v, ok := r.Resolve(rt.path)
		if !ok {
			return false, &PathError{Path: rt.path}
		}
		globals[rt.ident] = ToStarlark(rt.path, v, r)
	}

	thread := defaultPool.Get(conditionFile)
	defer defaultPool.Put(thread)

	result, err := starlark.Eval(thread, conditionFile, c.Expr, globals) //nolint:staticcheck // SA1019: will migrate to EvalOptions later
	if err != nil {
		var pathErr *PathError
		if errors.As(err, &pathErr) {
			return false, pathErr
		}
		if p, ok := c.nilAttrPath(r); ok && strings.Contains(err.Error(), "NoneType has no") {
			return false, &PathError{Path: p}
		}
		return false, &EvalError{Expr: c.Source, Message: err.Error()}
	}

	b, ok := result.(starlark.Bool)
	if !ok {
		return false, &TypeError{Expr: c.Source, Got: result.Type()}
	}
	return bool(b), nil
}

// Translate rewrites a template condition into Starlark syntax:
// && and || become and/or, a lone ! becomes not, null/true/false become
// None/True/False and #current/#index become plain identifiers.
// Quoted strings are copied unchanged.
func Translate(src string) (string, error) {
	var b strings.Builder
	b.Grow(len(src) + 8)

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\'' || c == '"':
			end, ok := quoteEnd(src, i)
			if !ok {
				return "", &SyntaxError{Source: src, Message: "unterminated string"}
			}
			b.WriteString(src[i:end])
			i = end
		case strings.HasPrefix(src[i:], "&&"):
			b.WriteString(" and ")
			i += 2
		case strings.HasPrefix(src[i:], "||"):
			b.WriteString(" or ")
			i += 2
		case c == '!' && !strings.HasPrefix(src[i:], "!="):
			b.WriteString(" not ")
			i++
		case c == '#':
			j := identEnd(src, i+1)
			switch "#" + src[i+1:j] {
			case CurrentName:
				b.WriteString(currentIdent)
			case IndexName:
				b.WriteString(indexIdent)
			default:
				return "", &SyntaxError{Source: src, Message: fmt.Sprintf("unknown loop variable %q", src[i:j])}
			}
			i = j
		case isIdentStart(c):
			j := identEnd(src, i)
			word := src[i:j]
			if !afterDot(src, i) {
				switch word {
				case "null":
					word = "None"
				case "true":
					word = "True"
				case "false":
					word = "False"
				}
			}
			b.WriteString(word)
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// collectRoots finds the free identifiers of expr that are not Starlark
// builtins, attribute names or comprehension and lambda locals.
func collectRoots(expr syntax.Expr) []root {
	skip := make(map[*syntax.Ident]bool)
	local := make(map[string]bool)

	syntax.Walk(expr, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.DotExpr:
			skip[n.Name] = true
		case *syntax.ForClause:
			markLocals(n.Vars, local)
		case *syntax.LambdaExpr:
			for _, p := range n.Params {
				markLocals(p, local)
			}
		case *syntax.CallExpr:
			for _, arg := range n.Args {
				if bin, ok := arg.(*syntax.BinaryExpr); ok && bin.Op == syntax.EQ {
					if id, ok := bin.X.(*syntax.Ident); ok {
						skip[id] = true
					}
				}
			}
		}
		return true
	})

	var roots []root
	seen := make(map[string]bool)
	syntax.Walk(expr, func(n syntax.Node) bool {
		id, ok := n.(*syntax.Ident)
		if !ok || skip[id] || local[id.Name] || seen[id.Name] {
			return true
		}
		if _, builtin := starlark.Universe[id.Name]; builtin {
			return true
		}
		if _, builtin := Predeclared()[id.Name]; builtin {
			return true
		}
		seen[id.Name] = true
		roots = append(roots, root{ident: id.Name, path: identPath(id.Name)})
		return true
	})
	return roots
}

// collectPaths finds attribute chains such as pmb.member.name whose base is
// a free identifier.
func collectPaths(expr syntax.Expr) []string {
	var paths []string
	seen := make(map[string]bool)
	syntax.Walk(expr, func(n syntax.Node) bool {
		dot, ok := n.(*syntax.DotExpr)
		if !ok {
			return true
		}
		if p, ok := dotPath(dot); ok && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
		return true
	})
	return paths
}

func dotPath(e syntax.Expr) (string, bool) {
	switch e := e.(type) {
	case *syntax.Ident:
		return identPath(e.Name), true
	case *syntax.DotExpr:
		base, ok := dotPath(e.X)
		if !ok {
			return "", false
		}
		return base + "." + e.Name.Name, true
	}
	return "", false
}

// nilAttrPath returns the first attribute path read through a null
// property, e.g. pmb.member.name when pmb.member is null.
func (c *Condition) nilAttrPath(r Resolver) (string, bool) {
	for _, p := range c.paths {
		segs := strings.Split(p, ".")
		for i := 1; i < len(segs); i++ {
			v, ok := r.Resolve(strings.Join(segs[:i], "."))
			if !ok {
				break
			}
			if isNull(v) {
				return strings.Join(segs[:i+1], "."), true
			}
		}
	}
	return "", false
}

func markLocals(e syntax.Node, local map[string]bool) {
	syntax.Walk(e, func(n syntax.Node) bool {
		if id, ok := n.(*syntax.Ident); ok {
			local[id.Name] = true
		}
		return true
	})
}

func identPath(ident string) string {
	switch ident {
	case currentIdent:
		return CurrentName
	case indexIdent:
		return IndexName
	default:
		return ident
	}
}

func quoteEnd(s string, i int) (int, bool) {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j + 1, true
		}
	}
	return len(s), false
}

func identEnd(s string, i int) int {
	for i < len(s) && (isIdentStart(s[i]) || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// afterDot reports whether the word at i is an attribute name.
func afterDot(s string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch s[j] {
		case ' ', '\t', '\n', '\r':
			continue
		case '.':
			return true
		default:
			return false
		}
	}
	return false
}

// SyntaxError reports a condition that cannot be translated or parsed.
type SyntaxError struct {
	Source  string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid condition %q: %s", e.Source, e.Message)
}

// PathError reports a property path that the resolver could not read.
type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("property %q not found", e.Path)
}

// TypeError reports a condition whose result is not a boolean.
type TypeError struct {
	Expr string
	Got  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("condition %q evaluated to %s, not bool", e.Expr, e.Got)
}

// EvalError represents an error during Starlark expression evaluation.
type EvalError struct {
	Expr    string
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("error evaluating %q: %s", e.Expr, e.Message)
}
