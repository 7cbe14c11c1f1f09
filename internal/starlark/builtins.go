package starlark

import (
	"go.starlark.net/starlark"
)

var predeclared = starlark.StringDict{
	"empty": starlark.NewBuiltin("empty", empty),
}

func init() {
	predeclared.Freeze()
}

// Predeclared returns the builtins available to conditions in addition to
// the Starlark universe.
func Predeclared() starlark.StringDict {
	return predeclared
}

// empty(x) reports whether x is None, an empty string or an empty
// sequence or mapping.
func empty(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &x); err != nil {
		return nil, err
	}

	switch v := x.(type) {
	case starlark.NoneType:
		return starlark.True, nil
	case starlark.String:
		return starlark.Bool(len(v) == 0), nil
	case starlark.Sequence:
		return starlark.Bool(v.Len() == 0), nil
	case starlark.IterableMapping:
		return starlark.Bool(len(v.Items()) == 0), nil
	default:
		return starlark.False, nil
	}
}
