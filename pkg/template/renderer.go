package template

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	starctx "github.com/leapstack-labs/twowaysql/internal/starlark"
)

// Result is a rendered statement.
type Result struct {
	SQL        string // prepared statement with placeholders
	Args       []any  // bound values, one per placeholder, in order
	DisplaySQL string // statement with every value inlined as a literal
}

// RenderString parses and renders a template in one step.
func RenderString(input, file string, pc ParameterContext, cfg Config) (*Result, error) {
	tmpl, err := ParseString(input, file)
	if err != nil {
		return nil, err
	}
	return tmpl.Render(pc, cfg)
}

// Render renders the template against pc. On error no partial result is
// returned.
func (t *Template) Render(pc ParameterContext, cfg Config) (*Result, error) {
	if pc == nil {
		pc = emptyContext{}
	}

	s := cfg.settings()
	r := &renderer{s: s, out: newSink(s)}
	if err := r.renderNodes(t.Nodes, pc); err != nil {
		return nil, err
	}

	prepared, display := r.out.finish()
	if !s.KeepSubQueryMarkers {
		prepared = RelocateSubQueryEnd(prepared)
		display = RelocateSubQueryEnd(display)
	}

	args := r.out.args
	if args == nil {
		args = []any{}
	}
	return &Result{SQL: prepared, Args: args, DisplaySQL: display}, nil
}

// renderer walks the block tree into a sink.
type renderer struct {
	s   *settings
	out *sink
}

func (r *renderer) renderNodes(nodes []Node, pc ParameterContext) error {
	for _, node := range nodes {
		if err := r.renderNode(node, pc); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderNode(node Node, pc ParameterContext) error {
	switch n := node.(type) {
	case *TextNode:
		r.out.literal(n.Text)

	case *BindNode:
		v, err := resolve(pc, n.Expr, n.Pos())
		if err != nil {
			return err
		}
		if list, ok := listValues(v); ok {
			r.out.bindList(list)
		} else {
			r.out.bind(v)
		}

	case *CurrentBindNode:
		v, err := resolve(pc, starctx.CurrentName, n.Pos())
		if err != nil {
			return err
		}
		r.out.bind(v)

	case *EmbeddedNode:
		v, err := resolve(pc, n.Expr, n.Pos())
		if err != nil {
			return err
		}
		text, err := r.embedText(n, v)
		if err != nil {
			return err
		}
		r.out.embed(text)

	case *MarkerNode:
		r.out.marker(n.Text)

	case *IfBlock:
		return r.renderIf(n, pc)

	case *ForBlock:
		return r.renderFor(n, pc)

	case *BeginBlock:
		return r.renderBegin(n, pc)

	default:
		return fmt.Errorf("unknown node type: %T", node)
	}

	return nil
}

func (r *renderer) renderIf(n *IfBlock, pc ParameterContext) error {
	ok, err := n.cond.Eval(pc)
	if err != nil {
		return conditionError(n, err)
	}

	switch {
	case ok:
		_, err = r.renderBody(n.Body, pc)
	case n.HasElse:
		_, err = r.renderBody(n.Else, pc)
	default:
		r.out.elided()
	}
	return err
}

// renderBody renders a conditional body. A body that produces nothing but
// whitespace is rolled back and counts as elided.
func (r *renderer) renderBody(nodes []Node, pc ParameterContext) (bool, error) {
	m := r.out.mark()
	r.out.enter()
	err := r.renderNodes(nodes, pc)
	r.out.leave()
	if err != nil {
		return false, err
	}

	if r.out.emptySince(m) {
		r.out.rollback(m)
		r.out.elided()
		return false, nil
	}
	r.out.live++
	return true, nil
}

func (r *renderer) renderFor(n *ForBlock, pc ParameterContext) error {
	v, err := resolve(pc, n.IterExpr, n.Pos())
	if err != nil {
		return err
	}
	items, err := iterValues(v, n.IterExpr, n.Pos())
	if err != nil {
		return err
	}

	sep := r.s.LoopSeparator
	if n.HasSeparator {
		sep = n.Separator
	}

	m := r.out.mark()
	r.out.enter()
	count := 0
	for i, item := range items {
		im := r.out.mark()
		if count > 0 {
			r.out.write(sep)
		}
		scope := &loopScope{parent: pc, current: item, index: i}
		if err := r.renderNodes(n.Body, scope); err != nil {
			r.out.leave()
			return err
		}
		if r.out.emptySince(im) {
			r.out.rollback(im)
			continue
		}
		count++
	}
	r.out.leave()

	if count == 0 {
		r.out.rollback(m)
		r.out.elided()
		return nil
	}
	r.out.live++
	return nil
}

// renderBegin renders a BEGIN block. The block disappears when it holds
// conditionals and none of them rendered.
func (r *renderer) renderBegin(n *BeginBlock, pc ParameterContext) error {
	m := r.out.mark()
	live := r.out.live
	r.out.enter()
	err := r.renderNodes(n.Body, pc)
	r.out.leave()
	if err != nil {
		return err
	}

	if (hasConditional(n.Body) && r.out.live == live) || r.out.emptySince(m) {
		r.out.rollback(m)
		r.out.elided()
	}
	return nil
}

// embedText formats an embedded value. Strings are checked against the
// safety rules; generated literals are always safe.
func (r *renderer) embedText(n *EmbeddedNode, v any) (string, error) {
	if list, ok := listValues(v); ok {
		if len(list) == 0 {
			return "(null)", nil
		}
		parts := make([]string, len(list))
		for i, item := range list {
			parts[i] = r.s.literal(item)
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	}

	var text string
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		text = val
	case fmt.Stringer:
		text = val.String()
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.String {
			return r.s.literal(v), nil
		}
		text = rv.String()
	}

	if !r.s.UnsafeEmbed {
		if tok, bad := unsafeToken(text); bad {
			return "", NewUnsafeEmbedError(n.Pos(), n.Expr, text, tok)
		}
	}
	return text, nil
}

func conditionError(n *IfBlock, err error) error {
	var pathErr *starctx.PathError
	if errors.As(err, &pathErr) {
		return WrapPropertyReadError(n.Pos(), pathErr.Path, fmt.Sprintf("condition %q", n.Condition), pathErr)
	}
	var typeErr *starctx.TypeError
	if errors.As(err, &typeErr) {
		return NewConditionTypeError(n.Pos(), n.Condition, typeErr.Got)
	}
	return WrapConditionError(n.Pos(), n.Condition, err)
}

// hasConditional reports whether nodes contain an IF or FOR at any depth.
func hasConditional(nodes []Node) bool {
	for _, node := range nodes {
		switch n := node.(type) {
		case *IfBlock, *ForBlock:
			return true
		case *BeginBlock:
			if hasConditional(n.Body) {
				return true
			}
		}
	}
	return false
}
