// Package params provides parameter contexts for template rendering.
//
// A parameter context resolves dotted property paths (pmb.member.name) to
// values. Map covers nested maps, slices and structs; Chain layers several
// contexts; FromStruct flattens a struct into a Map up front.
package params

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Resolver looks up dotted property paths.
type Resolver interface {
	Resolve(path string) (any, bool)
}

// Map is a parameter context over nested values.
type Map map[string]any

// Resolve implements Resolver.
func (m Map) Resolve(path string) (any, bool) {
	return Lookup(map[string]any(m), path)
}

// Chain resolves a path against each context in order and returns the
// first hit.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(path string) (any, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if v, ok := r.Resolve(path); ok {
			return v, true
		}
	}
	return nil, false
}

// Named exposes v under a single root name, as in Named("pmb", bean).
func Named(name string, v any) Map {
	return Map{name: v}
}

// FromStruct decodes a struct into a Map keyed by field name, or by the
// mapstructure tag when present. Nested structs become nested maps.
func FromStruct(v any) (Map, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(v, &out); err != nil {
		return nil, fmt.Errorf("decode %T: %w", v, err)
	}
	return Map(out), nil
}

// Lookup walks path through v one segment at a time. Segments index maps
// with string keys, struct fields, and slices or arrays by position. When a
// segment has no exact match, a case-insensitive match is tried, so
// pmb.memberName finds a MemberName field. A value implementing Resolver
// takes over the rest of the path.
func Lookup(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}

	cur := v
	rest := path
	for rest != "" {
		if r, ok := cur.(Resolver); ok {
			return r.Resolve(rest)
		}

		var seg string
		seg, rest, _ = strings.Cut(rest, ".")

		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur any, seg string) (any, bool) {
	switch m := cur.(type) {
	case map[string]any:
		return mapKey(m, seg)
	case []any:
		return index(reflect.ValueOf(m), seg)
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		if val := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key())); val.IsValid() {
			return val.Interface(), true
		}
		for _, key := range rv.MapKeys() {
			if strings.EqualFold(key.String(), seg) {
				return rv.MapIndex(key).Interface(), true
			}
		}
		return nil, false
	case reflect.Struct:
		return field(rv, seg)
	case reflect.Slice, reflect.Array:
		return index(rv, seg)
	default:
		return nil, false
	}
}

func mapKey(m map[string]any, seg string) (any, bool) {
	if val, ok := m[seg]; ok {
		return val, true
	}
	for key, val := range m {
		if strings.EqualFold(key, seg) {
			return val, true
		}
	}
	return nil, false
}

func field(rv reflect.Value, seg string) (any, bool) {
	typ := rv.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		if tag, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ","); tag == seg {
			return rv.Field(i).Interface(), true
		}
	}
	f, ok := typ.FieldByName(seg)
	if !ok {
		f, ok = typ.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, seg) })
	}
	if !ok || !f.IsExported() {
		return nil, false
	}
	val, err := rv.FieldByIndexErr(f.Index)
	if err != nil {
		return nil, false
	}
	return val.Interface(), true
}

func index(rv reflect.Value, seg string) (any, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= rv.Len() {
		return nil, false
	}
	return rv.Index(i).Interface(), true
}
