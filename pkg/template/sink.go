package template

import (
	"strconv"
	"strings"
)

// sink accumulates the prepared and display statements in one pass.
//
// Literal text is written identically to both buffers; tail counts the
// trailing bytes that are literal text, so trimming only ever touches
// template text and removes the same bytes from both buffers. Values break
// the tail.
type sink struct {
	s *settings

	prepared []byte
	display  []byte
	args     []any
	tail     int

	// floors holds the buffer lengths at the start of each open conditional
	// body. Trimming never reaches below the innermost floor.
	floors []int

	// pending is the start of a clause keyword left dangling by an elided
	// block. It is removed unless conditional content or a connector-led
	// literal follows.
	pending    int
	pendingD   int
	hasPending bool

	// strip drops a connector leading the next non-blank literal.
	strip bool

	// blockStart is set while nothing but whitespace has been written since
	// the innermost conditional body opened.
	blockStart bool

	// live counts conditional bodies that produced output.
	live int
}

// mark is a rollback point.
type mark struct {
	prepared, display, args, tail int
	pending, pendingD             int
	hasPending, strip, blockStart bool
}

func newSink(s *settings) *sink {
	return &sink{s: s}
}

func (o *sink) mark() mark {
	return mark{
		prepared:   len(o.prepared),
		display:    len(o.display),
		args:       len(o.args),
		tail:       o.tail,
		pending:    o.pending,
		pendingD:   o.pendingD,
		hasPending: o.hasPending,
		strip:      o.strip,
		blockStart: o.blockStart,
	}
}

func (o *sink) rollback(m mark) {
	o.prepared = o.prepared[:m.prepared]
	o.display = o.display[:m.display]
	o.args = o.args[:m.args]
	o.tail = m.tail
	o.pending = m.pending
	o.pendingD = m.pendingD
	o.hasPending = m.hasPending
	o.strip = m.strip
	o.blockStart = m.blockStart
}

// emptySince reports whether nothing but whitespace was written after m.
func (o *sink) emptySince(m mark) bool {
	return len(o.args) == m.args && isBlank(o.prepared[m.prepared:])
}

// enter opens a conditional body.
func (o *sink) enter() {
	o.floors = append(o.floors, len(o.prepared))
	o.blockStart = true
}

// leave closes the innermost conditional body.
func (o *sink) leave() {
	o.floors = o.floors[:len(o.floors)-1]
}

// write appends literal text without trimming.
func (o *sink) write(text string) {
	o.prepared = append(o.prepared, text...)
	o.display = append(o.display, text...)
	o.tail += len(text)
}

// literal writes template text, resolving a pending clause keyword or
// connector strip at the first non-blank byte.
func (o *sink) literal(text string) {
	if text == "" {
		return
	}

	lead := leadingSpace(text)
	if lead < len(text) {
		rest := text[lead:]
		n := o.connectorPrefix(rest)
		switch {
		case n > 0 && (o.strip || (o.blockStart && o.atOpener())):
			text = text[:lead] + rest[n:]
			o.hasPending = false
		case o.hasPending && !o.blockStart:
			o.dropPending()
		default:
			o.hasPending = false
		}
		o.strip = false
		o.blockStart = false
	}

	o.write(text)
}

// value writes a bound or embedded value.
func (o *sink) value(prepared, display string) {
	o.hasPending = false
	o.strip = false
	o.blockStart = false
	o.prepared = append(o.prepared, prepared...)
	o.display = append(o.display, display...)
	o.tail = 0
}

// bind writes one placeholder and records its value.
func (o *sink) bind(v any) {
	o.args = append(o.args, v)
	o.value(o.placeholder(len(o.args)), o.s.literal(v))
}

// bindList writes a parenthesized placeholder list. An empty list writes
// (null) and binds nothing.
func (o *sink) bindList(values []any) {
	if len(values) == 0 {
		o.value("(null)", "(null)")
		return
	}

	var p, d strings.Builder
	p.WriteByte('(')
	d.WriteByte('(')
	for i, v := range values {
		if i > 0 {
			p.WriteString(", ")
			d.WriteString(", ")
		}
		o.args = append(o.args, v)
		p.WriteString(o.placeholder(len(o.args)))
		d.WriteString(o.s.literal(v))
	}
	p.WriteByte(')')
	d.WriteByte(')')
	o.value(p.String(), d.String())
}

// embed writes text verbatim into both outputs.
func (o *sink) embed(text string) {
	o.value(text, text)
}

// marker writes a sub-query marker. Markers do not affect trimming state.
func (o *sink) marker(text string) {
	o.prepared = append(o.prepared, text...)
	o.display = append(o.display, text...)
	o.tail = 0
}

func (o *sink) placeholder(n int) string {
	if o.s.Placeholder == PlaceholderDollar {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// elided records that a conditional block rendered nothing. The whitespace
// before it goes with it, then a preceding connector is removed, or a
// preceding clause keyword becomes pending.
func (o *sink) elided() {
	n := o.tail
	if len(o.floors) > 0 {
		if avail := len(o.prepared) - o.floors[len(o.floors)-1]; avail < n {
			n = avail
		}
	}

	ws := trailingSpace(o.prepared[len(o.prepared)-n:])
	o.truncate(ws)
	n -= ws
	region := o.prepared[len(o.prepared)-n:]

	if len(region) == 0 {
		if o.atOpener() {
			o.strip = true
		}
		return
	}

	word := lastWord(region)
	if word == "" {
		if region[len(region)-1] == '(' {
			o.strip = true
		}
		return
	}

	upper := strings.ToUpper(word)
	before := region[:len(region)-len(word)]
	switch {
	case upper == "AND" && o.betweenBound(len(o.prepared)-len(word)):
		// The AND of BETWEEN x AND y is not a connector.
	case o.s.connectors[upper]:
		o.truncate(len(word) + trailingSpace(before))
	case o.s.clauses[upper]:
		cut := len(word) + trailingSpace(before)
		o.pending = len(o.prepared) - cut
		o.pendingD = len(o.display) - cut
		o.hasPending = true
		o.strip = true
	}
}

// atOpener reports whether the literal text before the current position
// ends in an opening parenthesis or a clause keyword, or is the start of
// the statement.
func (o *sink) atOpener() bool {
	text := trimRightSpace(o.prepared[len(o.prepared)-o.tail:])
	if len(text) == 0 {
		return o.tail == len(o.prepared)
	}
	if text[len(text)-1] == '(' {
		return true
	}
	return o.s.clauses[strings.ToUpper(lastWord(text))]
}

// betweenBound reports whether the prepared text before end reads
// BETWEEN <operand>.
func (o *sink) betweenBound(end int) bool {
	text := trimRightSpace(o.prepared[:end])
	i := len(text)
	for i > 0 && !isSpace(text[i-1]) {
		i--
	}
	if i == len(text) {
		return false
	}
	return strings.EqualFold(lastWord(trimRightSpace(text[:i])), "BETWEEN")
}

// connectorPrefix returns the length of a leading connector and the
// whitespace after it, or 0.
func (o *sink) connectorPrefix(text string) int {
	end := 0
	for end < len(text) && isIdentChar(text[end]) {
		end++
	}
	if end == 0 || !o.s.connectors[strings.ToUpper(text[:end])] {
		return 0
	}
	return end + leadingSpace(text[end:])
}

func (o *sink) dropPending() {
	removed := len(o.prepared) - o.pending
	o.prepared = o.prepared[:o.pending]
	o.display = o.display[:o.pendingD]
	o.tail = max(o.tail-removed, 0)
	o.hasPending = false
}

// truncate removes n trailing literal bytes from both buffers.
func (o *sink) truncate(n int) {
	if n <= 0 {
		return
	}
	o.prepared = o.prepared[:len(o.prepared)-n]
	o.display = o.display[:len(o.display)-n]
	o.tail -= n
}

// finish resolves a clause keyword still pending at the end of the
// statement.
func (o *sink) finish() (prepared, display string) {
	if o.hasPending {
		o.dropPending()
	}
	return string(o.prepared), string(o.display)
}

// lastWord returns the trailing identifier of b, if any.
func lastWord(b []byte) string {
	i := len(b)
	for i > 0 && isIdentChar(b[i-1]) {
		i--
	}
	return string(b[i:])
}

func leadingSpace(s string) int {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func trailingSpace(b []byte) int {
	n := 0
	for n < len(b) && isSpace(b[len(b)-1-n]) {
		n++
	}
	return n
}

func trimRightSpace(b []byte) []byte {
	return b[:len(b)-trailingSpace(b)]
}

func isBlank(b []byte) bool {
	return trailingSpace(b) == len(b)
}
