package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type member struct {
	MemberName string
	Status     *status
	Tags       []string
	Code       string `mapstructure:"member_code"`
	secret     string
}

type status struct {
	Code string
}

func TestMap_Resolve(t *testing.T) {
	m := Map{
		"pmb": map[string]any{
			"name": "Bob",
			"none": nil,
			"ids":  []int{1, 2, 3},
			"member": member{
				MemberName: "Alice",
				Status:     &status{Code: "FML"},
				Tags:       []string{"a", "b"},
				Code:       "M1",
				secret:     "hidden",
			},
		},
	}

	tests := []struct {
		name   string
		path   string
		want   any
		wantOK bool
	}{
		{name: "root", path: "pmb", want: m["pmb"], wantOK: true},
		{name: "map key", path: "pmb.name", want: "Bob", wantOK: true},
		{name: "nil value is found", path: "pmb.none", want: nil, wantOK: true},
		{name: "slice index", path: "pmb.ids.1", want: 2, wantOK: true},
		{name: "slice index out of range", path: "pmb.ids.5", wantOK: false},
		{name: "struct field", path: "pmb.member.MemberName", want: "Alice", wantOK: true},
		{name: "case insensitive field", path: "pmb.member.memberName", want: "Alice", wantOK: true},
		{name: "pointer field", path: "pmb.member.status.code", want: "FML", wantOK: true},
		{name: "tagged field", path: "pmb.member.member_code", want: "M1", wantOK: true},
		{name: "unexported field", path: "pmb.member.secret", wantOK: false},
		{name: "missing key", path: "pmb.other", wantOK: false},
		{name: "traverse nil", path: "pmb.none.x", wantOK: false},
		{name: "traverse scalar", path: "pmb.name.x", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Resolve(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestChain_Resolve(t *testing.T) {
	c := Chain{
		Map{"a": 1},
		nil,
		Map{"a": 2, "b": 3},
	}

	v, ok := c.Resolve("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = c.Resolve("b")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = c.Resolve("c")
	assert.False(t, ok)
}

func TestLookup_DelegatesToResolver(t *testing.T) {
	inner := Map{"x": map[string]any{"y": "deep"}}
	v, ok := Lookup(map[string]any{"outer": inner}, "outer.x.y")
	require.True(t, ok)
	assert.Equal(t, "deep", v)
}

func TestFromStruct(t *testing.T) {
	m, err := FromStruct(member{MemberName: "Alice", Status: &status{Code: "FML"}, Code: "M1"})
	require.NoError(t, err)

	v, ok := m.Resolve("MemberName")
	require.True(t, ok)
	assert.Equal(t, "Alice", v)

	v, ok = m.Resolve("member_code")
	require.True(t, ok)
	assert.Equal(t, "M1", v)

	v, ok = m.Resolve("Status.Code")
	require.True(t, ok)
	assert.Equal(t, "FML", v)
}

func TestNamed(t *testing.T) {
	m := Named("pmb", &member{MemberName: "Alice"})
	v, ok := m.Resolve("pmb.memberName")
	require.True(t, ok)
	assert.Equal(t, "Alice", v)
}
