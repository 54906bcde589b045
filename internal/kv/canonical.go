package kv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MarshalRow renders a row as canonical JSON: keys sorted, text NFC
// normalized without HTML escaping, GUIDs as hex strings. Identical rows
// always render to identical bytes, which the harness traces rely on.
func MarshalRow(r Row) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalValue(r[k])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case Text:
		return marshalString(string(val))
	case Double:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite double %v", f)
		}
		return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
	case GUID:
		return marshalString(val.String())
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// FormatRow renders a row for logs and traces as "{a=1, b=x}", columns
// sorted. GUID values are shortened to their first 8 hex digits.
func FormatRow(r Row) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range r.SortedKeys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		if g, ok := r[k].(GUID); ok {
			sb.WriteString(g.String()[:8])
			continue
		}
		sb.WriteString(FormatValue(r[k]))
	}
	sb.WriteByte('}')
	return sb.String()
}
