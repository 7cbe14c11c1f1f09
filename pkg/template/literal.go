package template

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/shopspring/decimal"
)

// Literal formats v as a SQL literal for the display statement.
func (c Config) Literal(v any) string {
	return c.settings().literal(v)
}

func (s *settings) literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return quoteString(val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []byte:
		if val == nil {
			return "null"
		}
		return "X'" + strings.ToUpper(hex.EncodeToString(val)) + "'"
	case decimal.Decimal:
		return val.String()
	case time.Time:
		return quoteString(strftime.Format(s.DateFormat, val.In(s.Location)))
	case driver.Valuer:
		if isNilPointer(v) {
			return "null"
		}
		dv, err := val.Value()
		if err != nil {
			return quoteString(fmt.Sprint(v))
		}
		if _, again := dv.(driver.Valuer); again {
			return quoteString(fmt.Sprint(dv))
		}
		return s.literal(dv)
	case fmt.Stringer:
		if isNilPointer(v) {
			return "null"
		}
		return quoteString(val.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "null"
		}
		return s.literal(rv.Elem().Interface())
	case reflect.String:
		return quoteString(rv.String())
	case reflect.Bool:
		return s.literal(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	}

	return quoteString(fmt.Sprint(v))
}

// quoteString wraps s in single quotes, doubling embedded quotes.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
