package template

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"sort"
	"strings"

	starctx "github.com/leapstack-labs/twowaysql/internal/starlark"
	"github.com/leapstack-labs/twowaysql/pkg/params"
)

// ParameterContext resolves dotted property paths to values.
// A nil value with ok set means the property exists and is null.
type ParameterContext interface {
	Resolve(path string) (any, bool)
}

// loopScope binds #current and #index over a parent context.
type loopScope struct {
	parent  ParameterContext
	current any
	index   int
}

func (s *loopScope) Resolve(path string) (any, bool) {
	root, rest, _ := strings.Cut(path, ".")
	switch root {
	case starctx.CurrentName:
		return params.Lookup(s.current, rest)
	case starctx.IndexName:
		if rest != "" {
			return nil, false
		}
		return s.index, true
	default:
		return s.parent.Resolve(path)
	}
}

// emptyContext resolves nothing.
type emptyContext struct{}

func (emptyContext) Resolve(string) (any, bool) { return nil, false }

// resolve reads path from pc.
func resolve(pc ParameterContext, path string, pos Position) (any, error) {
	if path == "" {
		return nil, NewPropertyReadError(pos, path, "empty property path")
	}
	v, ok := pc.Resolve(path)
	if !ok {
		return nil, NewPropertyReadError(pos, path, "property not found")
	}
	return v, nil
}

// listValues returns the elements of a slice or array bound as a list.
// Byte slices and driver.Valuer values are scalars.
func listValues(v any) ([]any, bool) {
	switch val := v.(type) {
	case nil, []byte, driver.Valuer, string:
		return nil, false
	case []any:
		return val, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// iterValues returns the elements a FOR block repeats over. Maps iterate
// in sorted key order. A nil value repeats zero times.
func iterValues(v any, path string, pos Position) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	if list, ok := listValues(v); ok {
		return list, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if list, ok := listValues(rv.Interface()); ok {
			return list, nil
		}
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = rv.MapIndex(k).Interface()
		}
		return out, nil
	}

	return nil, NewPropertyReadError(pos, path, fmt.Sprintf("cannot repeat over %T", v))
}

// Characters rejected in embedded values while the safety check is on.
var unsafeEmbedTokens = []string{"'", `"`, "`", ";", `\`, "?", "--", "/*", "*/", "\r", "\n", "\x00"}

func unsafeToken(s string) (string, bool) {
	for _, tok := range unsafeEmbedTokens {
		if strings.Contains(s, tok) {
			return tok, true
		}
	}
	return unbalancedParen(s)
}

// unbalancedParen reports a value that would close a group it did not open
// or leave one open. Quotes are rejected before this runs.
func unbalancedParen(s string) (string, bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return ")", true
			}
		}
	}
	if depth > 0 {
		return "(", true
	}
	return "", false
}
