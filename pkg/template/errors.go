package template

import "fmt"

// Error is the base interface for all template errors.
type Error interface {
	error
	Position() Position
}

// baseError provides common error functionality.
type baseError struct {
	pos Position
	msg string
}

func (e *baseError) Position() Position { return e.pos }
func (e *baseError) Error() string {
	if e.pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.pos.File, e.pos.Line, e.pos.Column, e.msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.pos.Line, e.pos.Column, e.msg)
}

// ScanError reports a malformed directive: an unterminated comment or
// quoted string, an empty or invalid expression, an invalid sub-query key.
type ScanError struct {
	baseError
}

// NewScanError creates a new scan error.
func NewScanError(pos Position, msg string) *ScanError {
	return &ScanError{baseError: baseError{pos: pos, msg: msg}}
}

// NewScanErrorf creates a new scan error with formatting.
func NewScanErrorf(pos Position, format string, args ...any) *ScanError {
	return &ScanError{baseError: baseError{pos: pos, msg: fmt.Sprintf(format, args...)}}
}

// BlockKind names the directive involved in a structure error.
type BlockKind int

// BlockKind constants.
const (
	BlockIf BlockKind = iota
	BlockFor
	BlockBegin
	BlockElse
	BlockNext
	BlockEnd
)

func (k BlockKind) String() string {
	switch k {
	case BlockIf:
		return "IF"
	case BlockFor:
		return "FOR"
	case BlockBegin:
		return "BEGIN"
	case BlockElse:
		return "ELSE"
	case BlockNext:
		return "NEXT"
	case BlockEnd:
		return "END"
	default:
		return fmt.Sprintf("BlockKind(%d)", k)
	}
}

// StructureError indicates a block directive without its counterpart, or a
// directive in a place it is not allowed.
type StructureError struct {
	baseError
	Kind BlockKind
}

// NewUnclosedBlockError reports a block that reached the end of the template.
func NewUnclosedBlockError(pos Position, kind BlockKind) *StructureError {
	return &StructureError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("unclosed '%s' block (missing 'END')", kind)},
		Kind:      kind,
	}
}

// NewStrayDirectiveError reports ELSE, NEXT or END outside of a block that
// accepts it.
func NewStrayDirectiveError(pos Position, kind BlockKind) *StructureError {
	var msg string
	switch kind {
	case BlockEnd:
		msg = "'END' without matching 'IF', 'FOR' or 'BEGIN'"
	case BlockElse:
		msg = "'ELSE' without matching 'IF'"
	case BlockNext:
		msg = "'NEXT' without matching 'FOR'"
	default:
		msg = fmt.Sprintf("unexpected '%s'", kind)
	}
	return &StructureError{baseError: baseError{pos: pos, msg: msg}, Kind: kind}
}

// NewDuplicateDirectiveError reports a second ELSE in one IF or a second
// NEXT in one FOR.
func NewDuplicateDirectiveError(pos Position, kind BlockKind) *StructureError {
	return &StructureError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("duplicate '%s' in block", kind)},
		Kind:      kind,
	}
}

// PropertyReadError reports a property path that cannot be traversed, or a
// value of the wrong shape for its directive.
type PropertyReadError struct {
	baseError
	Path  string
	Cause error
}

// NewPropertyReadError creates a new property read error.
func NewPropertyReadError(pos Position, path, msg string) *PropertyReadError {
	return &PropertyReadError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("cannot read %q: %s", path, msg)},
		Path:      path,
	}
}

// WrapPropertyReadError creates a property read error caused by err.
func WrapPropertyReadError(pos Position, path, msg string, err error) *PropertyReadError {
	e := NewPropertyReadError(pos, path, msg)
	e.Cause = err
	return e
}

func (e *PropertyReadError) Error() string {
	base := e.baseError.Error()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *PropertyReadError) Unwrap() error {
	return e.Cause
}

// ConditionTypeError reports an IF condition that did not evaluate to a
// boolean, or failed while evaluating.
type ConditionTypeError struct {
	baseError
	Condition string
	Got       string // type name of the result, empty when evaluation failed
	Cause     error
}

// NewConditionTypeError creates an error for a non-boolean condition result.
func NewConditionTypeError(pos Position, cond, got string) *ConditionTypeError {
	return &ConditionTypeError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("condition %q evaluated to %s, not bool", cond, got)},
		Condition: cond,
		Got:       got,
	}
}

// WrapConditionError wraps an evaluation failure of a condition.
func WrapConditionError(pos Position, cond string, cause error) *ConditionTypeError {
	return &ConditionTypeError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("evaluating condition %q", cond)},
		Condition: cond,
		Cause:     cause,
	}
}

func (e *ConditionTypeError) Error() string {
	base := e.baseError.Error()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *ConditionTypeError) Unwrap() error {
	return e.Cause
}

// UnsafeEmbedError reports an embedded value rejected by the safety check.
type UnsafeEmbedError struct {
	baseError
	Path  string
	Value string
	Token string
}

// NewUnsafeEmbedError creates a new unsafe embed error.
func NewUnsafeEmbedError(pos Position, path, value, token string) *UnsafeEmbedError {
	return &UnsafeEmbedError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("embedded value of %q contains %q", path, token)},
		Path:      path,
		Value:     value,
		Token:     token,
	}
}
