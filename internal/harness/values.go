package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/ringkv/internal/kv"
)

// convertRow converts YAML-parsed values to a row for table columns.
//
// Values take the declared kind of their column when the conversion is
// lossless: an integer fills a double column, an integer n a GUID column
// (kv.GUIDFromInt(n)), a "$name" string the GUID saved under name and a
// 40-digit hex string a GUID column. Otherwise a value keeps its natural
// kind, so a mistyped row still reaches the store and fails there.
func convertRow(fields map[string]any, columns kv.Columns, saved map[string]kv.GUID) (kv.Row, error) {
	row := make(kv.Row, len(fields))
	for name, raw := range fields {
		var want kv.Kind
		if name == kv.GUIDColumn {
			want = kv.KindGUID
		} else if decl, ok := columns[name]; ok {
			want = decl.Kind()
		}
		v, err := convertValue(raw, want, saved)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		row[name] = v
	}
	return row, nil
}

// convertValue converts one YAML value. want is zero when the column is
// not declared.
func convertValue(raw any, want kv.Kind, saved map[string]kv.GUID) (kv.Value, error) {
	if raw == nil {
		return nil, fmt.Errorf("null values are not supported")
	}

	switch v := raw.(type) {
	case string:
		if strings.HasPrefix(v, "$") {
			g, ok := saved[v[1:]]
			if !ok {
				return nil, fmt.Errorf("no GUID saved as %q", v[1:])
			}
			return g, nil
		}
		if want == kv.KindGUID {
			if g, err := kv.ParseGUID(v); err == nil {
				return g, nil
			}
		}
		return kv.Text(v), nil
	case int:
		return convertInt(int64(v), want), nil
	case int64:
		return convertInt(v, want), nil
	case float64:
		// YAML decodes 1.0 as a float; keep it an int where the column is one.
		if want == kv.KindInt && v == math.Trunc(v) {
			return kv.Int(int64(v)), nil
		}
		return kv.Double(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", raw)
	}
}

func convertInt(v int64, want kv.Kind) kv.Value {
	switch want {
	case kv.KindDouble:
		return kv.Double(float64(v))
	case kv.KindGUID:
		return kv.GUIDFromInt(v)
	default:
		return kv.Int(v)
	}
}

// parseColumns converts a name -> type-name map to column definitions.
func parseColumns(decl map[string]string) (kv.Columns, error) {
	columns := make(kv.Columns, len(decl))
	for name, typ := range decl {
		kind, err := kv.ParseKind(typ)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		columns[name] = kind.Zero()
	}
	return columns, nil
}
