package template

import "strings"

const (
	subQueryBeginOpen = "/*" + subQueryBeginTag
	subQueryEndOpen   = "/*" + subQueryEndTag
	markerClose       = identityTerminal + "*/"
)

// SubQueryBeginMark returns the begin marker comment for key.
func SubQueryBeginMark(key string) string {
	return subQueryBeginOpen + key + markerClose
}

// SubQueryEndMark returns the end marker comment for key.
func SubQueryEndMark(key string) string {
	return subQueryEndOpen + key + markerClose
}

// markerSpan is a marker occurrence in a text.
type markerSpan struct {
	key        string
	start, end int
}

// findMarkers returns the markers with the given opener, left to right.
func findMarkers(text, open string) []markerSpan {
	var spans []markerSpan
	for i := 0; ; {
		j := strings.Index(text[i:], open)
		if j < 0 {
			return spans
		}
		start := i + j
		keyStart := start + len(open)
		k := strings.Index(text[keyStart:], markerClose)
		if k < 0 {
			return spans
		}
		key := text[keyStart : keyStart+k]
		end := keyStart + k + len(markerClose)
		if isSubQueryKey(key) {
			spans = append(spans, markerSpan{key: key, start: start, end: end})
		}
		i = end
	}
}

// RelocateSubQueryEnd moves each sub-query end marker to just after the
// closing parenthesis of its sub-query, leaving all other text unchanged.
//
// The sub-query is the parenthesized group enclosing the begin marker with
// the same key, or the end marker itself when there is no begin marker.
// Markers are processed right to left. Relocating an already placed marker
// changes nothing.
func RelocateSubQueryEnd(text string) string {
	ends := findMarkers(text, subQueryEndOpen)
	if len(ends) == 0 {
		return text
	}

	for i := len(ends) - 1; i >= 0; i-- {
		key := ends[i].key
		spans := findMarkers(text, subQueryEndOpen)
		var end *markerSpan
		for j := len(spans) - 1; j >= 0; j-- {
			if spans[j].key == key {
				end = &spans[j]
				break
			}
		}
		if end == nil {
			continue
		}
		text = relocate(text, *end)
	}
	return text
}

func relocate(text string, end markerSpan) string {
	anchor := -1
	if begin := strings.LastIndex(text[:end.start], SubQueryBeginMark(end.key)); begin >= 0 {
		anchor = begin
	} else if strings.HasSuffix(strings.TrimRight(text[:end.start], " \t\r\n"), ")") {
		// no begin marker and already after a closing parenthesis
		return text
	} else {
		anchor = end.start
	}

	closeAt, ok := enclosingClose(text, anchor)
	if !ok {
		return text
	}

	insert := closeAt + 1
	if insert == end.start {
		return text
	}

	marker := text[end.start:end.end]
	without := text[:end.start] + text[end.end:]
	if insert > end.start {
		insert -= end.end - end.start
	}
	return without[:insert] + marker + without[insert:]
}

// enclosingClose returns the offset of the ')' closing the innermost group
// that is open at offset at. Quoted strings and comments other than the
// one starting at at are skipped.
func enclosingClose(text string, at int) (int, bool) {
	var stack []int
	open := -1

	for i := 0; i < len(text); {
		if i >= at && open < 0 {
			if len(stack) == 0 {
				return 0, false
			}
			open = len(stack) - 1
		}

		c := text[i]
		switch {
		case c == '\'' || c == '"':
			i, _ = skipQuoted(text, i)
			continue
		case strings.HasPrefix(text[i:], "/*"):
			if end := strings.Index(text[i+2:], "*/"); end >= 0 {
				i += end + 4
			} else {
				i = len(text)
			}
			continue
		case strings.HasPrefix(text[i:], "--"):
			if nl := strings.IndexByte(text[i:], '\n'); nl >= 0 {
				i += nl
			} else {
				i = len(text)
			}
			continue
		case c == '(':
			stack = append(stack, i)
		case c == ')':
			if len(stack) == 0 {
				break
			}
			if open >= 0 && len(stack)-1 == open {
				return i, true
			}
			stack = stack[:len(stack)-1]
		}
		i++
	}
	return 0, false
}

// StripSubQueryMarkers removes every sub-query marker from text.
func StripSubQueryMarkers(text string) string {
	for _, open := range []string{subQueryEndOpen, subQueryBeginOpen} {
		spans := findMarkers(text, open)
		for i := len(spans) - 1; i >= 0; i-- {
			text = text[:spans[i].start] + text[spans[i].end:]
		}
	}
	return text
}
