// Package template implements two-way SQL templates.
//
// A two-way SQL template is plain SQL that stays executable as written: every
// directive lives inside a comment, and bind variables are followed by a dummy
// test value. Rendering a template produces a prepared statement with
// positional placeholders and the ordered bound values, plus a display
// statement with every value inlined as a SQL literal.
//
// Directives:
//
//	/*pmb.name*/'dummy'       bind variable
//	/*$pmb.table*/MEMBER      embedded variable (inlined, never bound)
//	/*IF cond*/ ... /*END*/   conditional block, with optional /*ELSE*/ or -- ELSE
//	/*BEGIN*/ ... /*END*/     block dropped when none of its conditionals render
//	/*FOR pmb.list*/ ... /*END*/  repeat block; /*NEXT ' OR '*/ sets the separator
//	/*#df:sqbegin#key#df:idterminal#*/  sub-query begin marker
//	/*#df:sqend#key#df:idterminal#*/    sub-query end marker
package template

import starctx "github.com/leapstack-labs/twowaysql/internal/starlark"

// Position tracks source location for error reporting.
type Position struct {
	File   string
	Offset int // byte offset, 0-based
	Line   int
	Column int
}

// Node is the interface for all template AST nodes.
type Node interface {
	Pos() Position
	node() // marker method to restrict implementation
}

// nodeBase provides common Position handling for all nodes.
type nodeBase struct {
	pos Position
}

func (n *nodeBase) Pos() Position { return n.pos }
func (n *nodeBase) node()         {}

// TextNode represents literal SQL text (passed through unchanged).
// Ordinary SQL comments are text as well.
type TextNode struct {
	nodeBase
	Text string
}

// BindNode represents a /*path*/ bind variable.
type BindNode struct {
	nodeBase
	Expr      string // property path
	TestValue string // dummy value that followed the comment, dropped on render
}

// EmbeddedNode represents a /*$path*/ embedded variable.
type EmbeddedNode struct {
	nodeBase
	Expr      string
	TestValue string
}

// CurrentBindNode is a bare '?' inside a FOR body. It binds the current
// loop element.
type CurrentBindNode struct {
	nodeBase
}

// MarkerKind distinguishes sub-query markers.
type MarkerKind int

// MarkerKind constants.
const (
	MarkerSubQueryBegin MarkerKind = iota
	MarkerSubQueryEnd
)

// MarkerNode is a sub-query marker, emitted verbatim into both outputs.
type MarkerNode struct {
	nodeBase
	Kind MarkerKind
	Key  string
	Text string // the full marker comment
}

// IfBlock represents a complete IF conditional.
type IfBlock struct {
	nodeBase
	Condition string // condition source as written in the template
	Body      []Node
	Else      []Node
	HasElse   bool

	cond *starctx.Condition
}

// ForBlock represents a complete FOR repeat block.
type ForBlock struct {
	nodeBase
	IterExpr     string // property path of the collection
	Separator    string // from /*NEXT*/; only meaningful when HasSeparator
	HasSeparator bool
	Body         []Node
}

// BeginBlock represents a standalone BEGIN block.
type BeginBlock struct {
	nodeBase
	Body []Node
}

// Template represents a complete parsed template.
// A Template is immutable and safe for concurrent rendering.
type Template struct {
	Nodes  []Node
	File   string // Source file path or template name
	Source string
}
