package starlark

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.starlark.net/starlark"
)

// ToStarlark converts a resolved Go value to a Starlark value.
//
// Scalars map to their Starlark counterparts and slices become frozen
// lists. Anything else becomes a property value whose attributes are read
// through r as path.attr, so nested objects are never converted eagerly.
func ToStarlark(path string, v any, r Resolver) starlark.Value {
	if v == nil {
		return starlark.None
	}

	switch val := v.(type) {
	case starlark.Value:
		return val
	case string:
		return starlark.String(val)
	case bool:
		return starlark.Bool(val)
	case int:
		return starlark.MakeInt(val)
	case int64:
		return starlark.MakeInt64(val)
	case uint64:
		return starlark.MakeUint64(val)
	case float64:
		return starlark.Float(val)
	case []byte:
		return starlark.Bytes(val)
	case decimal.Decimal:
		return starlark.Float(val.InexactFloat64())
	case time.Time:
		return &propertyValue{path: path, raw: val, r: r}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return starlark.None
		}
		return ToStarlark(path, rv.Elem().Interface(), r)
	case reflect.String:
		return starlark.String(rv.String())
	case reflect.Bool:
		return starlark.Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlark.MakeInt64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return starlark.MakeUint64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return starlark.Float(rv.Float())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return starlark.None
		}
		elems := make([]starlark.Value, rv.Len())
		for i := range elems {
			elems[i] = ToStarlark(path+"."+strconv.Itoa(i), rv.Index(i).Interface(), r)
		}
		list := starlark.NewList(elems)
		list.Freeze()
		return list
	}

	return &propertyValue{path: path, raw: v, r: r}
}

// isNull reports whether v converts to None.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// propertyValue is an object-valued property. Attribute access resolves
// the extended path.
type propertyValue struct {
	path string
	raw  any
	r    Resolver
}

var _ starlark.HasAttrs = (*propertyValue)(nil)

func (v *propertyValue) String() string        { return fmt.Sprint(v.raw) }
func (v *propertyValue) Type() string          { return "property" }
func (v *propertyValue) Freeze()               {}
func (v *propertyValue) Truth() starlark.Bool  { return starlark.True }
func (v *propertyValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: property") }

func (v *propertyValue) Attr(name string) (starlark.Value, error) {
	path := v.path + "." + name
	val, ok := v.r.Resolve(path)
	if !ok {
		return nil, &PathError{Path: path}
	}
	return ToStarlark(path, val, v.r), nil
}

func (v *propertyValue) AttrNames() []string { return nil }
