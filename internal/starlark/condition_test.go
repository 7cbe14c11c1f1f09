package starlark

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapResolver resolves dotted paths through nested maps.
type mapResolver map[string]any

func (m mapResolver) Resolve(path string) (any, bool) {
	var cur any = map[string]any(m)
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx := int(seg[0] - '0')
			if len(seg) != 1 || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "null comparison", input: "pmb.name != null", want: "pmb.name != None"},
		{name: "and or", input: "a && b || c", want: "a  and  b  or  c"},
		{name: "negation", input: "!pmb.flag", want: "not pmb.flag"},
		{name: "booleans", input: "pmb.flag == true || pmb.other == false", want: "pmb.flag == True  or  pmb.other == False"},
		{name: "loop variables", input: "#current.id > 0 && #index > 0", want: "__current__.id > 0  and  __index__ > 0"},
		{name: "quoted string untouched", input: "pmb.op == '&& null !'", want: "pmb.op == '&& null !'"},
		{name: "attribute named null", input: "pmb.null", want: "pmb.null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslate_Errors(t *testing.T) {
	_, err := Translate("pmb.name == 'open")
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)

	_, err = Translate("#size > 0")
	require.ErrorAs(t, err, &syntaxErr)
	assert.Contains(t, err.Error(), "#size")
}

func TestCompile(t *testing.T) {
	cond, err := Compile("pmb.name != null && len(pmb.list) > 0 && #current.id == x")
	require.NoError(t, err)
	assert.Equal(t, []string{"pmb", "#current", "x"}, cond.Roots())

	_, err = Compile("pmb.name ==")
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)

	_, err = Compile("   ")
	require.ErrorAs(t, err, &syntaxErr)
}

func TestCompile_Locals(t *testing.T) {
	cond, err := Compile("len([x for x in pmb.list if x > 1]) > 0")
	require.NoError(t, err)
	assert.Equal(t, []string{"pmb"}, cond.Roots())
}

func TestCondition_Eval(t *testing.T) {
	params := mapResolver{
		"pmb": map[string]any{
			"name":   "Bob",
			"none":   nil,
			"flag":   true,
			"count":  3,
			"price":  decimal.RequireFromString("9.50"),
			"list":   []any{1, 2, 3},
			"empty":  []any{},
			"member": map[string]any{"status": "FML"},
			"rows":   []any{map[string]any{"id": 7}},
		},
		"#current": map[string]any{"id": 5},
		"#index":   2,
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "not null", expr: "pmb.name != null", want: true},
		{name: "is null", expr: "pmb.none == null", want: true},
		{name: "string equality", expr: "pmb.name == 'Bob'", want: true},
		{name: "negated flag", expr: "!pmb.flag", want: false},
		{name: "arithmetic comparison", expr: "pmb.count * 2 > 5", want: true},
		{name: "decimal as number", expr: "pmb.price > 9", want: true},
		{name: "list length", expr: "len(pmb.list) == 3", want: true},
		{name: "membership", expr: "2 in pmb.list", want: true},
		{name: "empty builtin", expr: "empty(pmb.empty) && !empty(pmb.name)", want: true},
		{name: "nested object", expr: "pmb.member.status == 'FML'", want: true},
		{name: "object not null", expr: "pmb.member != null", want: true},
		{name: "list element attribute", expr: "pmb.rows[0].id == 7", want: true},
		{name: "loop variables", expr: "#current.id == 5 && #index == 2", want: true},
		{name: "short circuit", expr: "pmb.none != null && pmb.none.missing == 1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := cond.Eval(params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCondition_EvalErrors(t *testing.T) {
	params := mapResolver{"pmb": map[string]any{"name": "Bob", "member": map[string]any{}, "owner": nil}}

	t.Run("missing root", func(t *testing.T) {
		cond, err := Compile("other != null")
		require.NoError(t, err)
		_, err = cond.Eval(params)
		var pathErr *PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, "other", pathErr.Path)
	})

	t.Run("missing nested property", func(t *testing.T) {
		cond, err := Compile("pmb.member.status == 'x'")
		require.NoError(t, err)
		_, err = cond.Eval(params)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"pmb.member.status"`)
	})

	t.Run("property of null", func(t *testing.T) {
		cond, err := Compile("pmb.owner.name != null")
		require.NoError(t, err)
		_, err = cond.Eval(params)
		var pathErr *PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, "pmb.owner.name", pathErr.Path)
	})

	t.Run("guarded property of null", func(t *testing.T) {
		cond, err := Compile("pmb.owner != null && pmb.owner.name != null")
		require.NoError(t, err)
		ok, err := cond.Eval(params)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("non boolean result", func(t *testing.T) {
		cond, err := Compile("pmb.name")
		require.NoError(t, err)
		_, err = cond.Eval(params)
		var typeErr *TypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, "string", typeErr.Got)
	})

	t.Run("runtime failure", func(t *testing.T) {
		cond, err := Compile("pmb.name > 1")
		require.NoError(t, err)
		_, err = cond.Eval(params)
		var evalErr *EvalError
		require.ErrorAs(t, err, &evalErr)
	})
}
