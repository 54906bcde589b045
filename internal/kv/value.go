package kv

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	// KindInt is a 64-bit signed integer.
	KindInt Kind = iota + 1
	// KindText is a UTF-8 string.
	KindText
	// KindDouble is an IEEE-754 double.
	KindDouble
	// KindGUID is a 160-bit identifier.
	KindGUID
)

// String returns the schema spelling of the kind ("int", "string", ...).
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindText:
		return "string"
	case KindDouble:
		return "double"
	case KindGUID:
		return "guid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SQLType returns the SQL column type used when tables are exported.
// GUIDs are exported as their hex rendering.
func (k Kind) SQLType() string {
	switch k {
	case KindInt:
		return "INTEGER"
	case KindDouble:
		return "DOUBLE"
	default:
		return "TEXT"
	}
}

// Zero returns the zero value of the kind, used as a column's type example.
func (k Kind) Zero() Value {
	switch k {
	case KindInt:
		return Int(0)
	case KindText:
		return Text("")
	case KindDouble:
		return Double(0)
	case KindGUID:
		return GUID{}
	default:
		return nil
	}
}

// ParseKind maps a schema spelling to a Kind. "text" and "float" are
// accepted as aliases of "string" and "double".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "int", "integer":
		return KindInt, nil
	case "string", "text":
		return KindText, nil
	case "double", "float":
		return KindDouble, nil
	case "guid":
		return KindGUID, nil
	default:
		return 0, fmt.Errorf("unknown column type %q: must be int, string, double or guid", s)
	}
}

// Value is a sealed interface over the column value variants.
// Only Int, Text, Double and GUID implement it.
type Value interface {
	value() // Sealed
	Kind() Kind
}

// Int is a 64-bit integer column value.
type Int int64

func (Int) value() {}

// Kind implements Value.
func (Int) Kind() Kind { return KindInt }

// Text is a UTF-8 string column value.
type Text string

func (Text) value() {}

// Kind implements Value.
func (Text) Kind() Kind { return KindText }

// Double is a floating point column value.
type Double float64

func (Double) value() {}

// Kind implements Value.
func (Double) Kind() Kind { return KindDouble }

// SameKind reports whether two values hold the same variant.
// A nil value never matches.
func SameKind(a, b Value) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Kind() == b.Kind()
}

// ValueEqual compares two values by variant and content. Doubles compare
// bitwise so NaN equals itself, keeping row comparison reflexive.
func ValueEqual(a, b Value) bool {
	if !SameKind(a, b) {
		return false
	}
	if da, ok := a.(Double); ok {
		return math.Float64bits(float64(da)) == math.Float64bits(float64(b.(Double)))
	}
	return a == b
}

// FormatValue renders a value for humans.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Text:
		return string(val)
	case Double:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case GUID:
		return val.String()
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v", v)
	}
}
