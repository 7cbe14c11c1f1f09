package template

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type memberStatus string

type statusCode int

func (c statusCode) String() string { return "S" + string(rune('0'+int(c))) }

func TestConfig_Literal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Location = time.UTC

	var nilString *string
	seven := 7

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: "null"},
		{name: "string", value: "abc", want: "'abc'"},
		{name: "quote escaped", value: "O'Brien", want: "'O''Brien'"},
		{name: "true", value: true, want: "true"},
		{name: "false", value: false, want: "false"},
		{name: "int", value: 42, want: "42"},
		{name: "int8", value: int8(-3), want: "-3"},
		{name: "uint", value: uint(7), want: "7"},
		{name: "float", value: 1.5, want: "1.5"},
		{name: "float32", value: float32(0.25), want: "0.25"},
		{name: "decimal", value: decimal.RequireFromString("12.5"), want: "12.5"},
		{name: "bytes", value: []byte{0x0a, 0xff}, want: "X'0AFF'"},
		{name: "time", value: time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC), want: "'2024-03-05 14:07:09'"},
		{name: "valid null string", value: sql.NullString{String: "x", Valid: true}, want: "'x'"},
		{name: "invalid null int", value: sql.NullInt64{}, want: "null"},
		{name: "nil pointer", value: nilString, want: "null"},
		{name: "pointer", value: &seven, want: "7"},
		{name: "named string", value: memberStatus("FML"), want: "'FML'"},
		{name: "stringer", value: statusCode(2), want: "'S2'"},
		{name: "struct", value: struct{ A int }{A: 1}, want: "'{1}'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Literal(tt.value))
		})
	}
}

func TestConfig_LiteralDateFormat(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	cfg := DefaultConfig()
	cfg.Location = time.UTC
	cfg.DateFormat = "%Y/%m/%d"
	assert.Equal(t, "'2024/03/05'", cfg.Literal(ts))

	cfg = DefaultConfig()
	cfg.Location = time.FixedZone("JST", 9*60*60)
	assert.Equal(t, "'2024-03-05 23:07:09'", cfg.Literal(ts))
}

func TestParsePlaceholderStyle(t *testing.T) {
	tests := []struct {
		in   string
		want PlaceholderStyle
		ok   bool
	}{
		{in: "", want: PlaceholderQuestion, ok: true},
		{in: "question", want: PlaceholderQuestion, ok: true},
		{in: "?", want: PlaceholderQuestion, ok: true},
		{in: "dollar", want: PlaceholderDollar, ok: true},
		{in: "$n", want: PlaceholderDollar, ok: true},
		{in: "colon", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePlaceholderStyle(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
