package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/semantic/internal/store"
)

// positionFields adds start, end, line and col to m.
func positionFields(m map[string]object.Object, p store.Position) map[string]object.Object {
	m["start"] = object.NewInt(int64(p.StartByte))
	m["end"] = object.NewInt(int64(p.EndByte))
	m["line"] = object.NewInt(int64(p.Line))
	m["col"] = object.NewInt(int64(p.Col))
	return m
}

// flagList splits a "a|b" flag string into a list. "none" yields an empty list.
func flagList(flags string) *object.List {
	var items []object.Object
	if flags != "" && flags != "none" {
		for _, f := range strings.Split(flags, "|") {
			items = append(items, object.NewString(f))
		}
	}
	return object.NewList(items)
}

// idOrNil maps the 0 sentinel to nil.
func idOrNil(id uint32) object.Object {
	if id == 0 {
		return object.Nil
	}
	return object.NewInt(int64(id))
}

func scopeToMap(s *store.Scope) map[string]object.Object {
	return positionFields(map[string]object.Object{
		"id":     object.NewInt(int64(s.ScopeID)),
		"parent": idOrNil(s.ParentID),
		"flags":  flagList(s.Flags),
		"kind":   object.NewString(s.NodeKind),
	}, s.Position)
}

func symbolToMap(s *store.Symbol) map[string]object.Object {
	redecls := make([]object.Object, 0, len(s.Redeclarations))
	for _, p := range s.Redeclarations {
		redecls = append(redecls, object.NewMap(positionFields(map[string]object.Object{}, p)))
	}
	return positionFields(map[string]object.Object{
		"id":             object.NewInt(int64(s.SymbolID)),
		"scope":          object.NewInt(int64(s.ScopeID)),
		"name":           object.NewString(s.Name),
		"flags":          flagList(s.Flags),
		"exported":       object.NewBool(s.Exported),
		"reads":          object.NewInt(int64(s.Reads)),
		"writes":         object.NewInt(int64(s.Writes)),
		"redeclarations": object.NewList(redecls),
	}, s.Position)
}

func referenceToMap(r *store.Reference) map[string]object.Object {
	return positionFields(map[string]object.Object{
		"id":     object.NewInt(int64(r.ReferenceID)),
		"scope":  object.NewInt(int64(r.ScopeID)),
		"symbol": idOrNil(r.SymbolID),
		"name":   object.NewString(r.Name),
		"flags":  flagList(r.Flags),
	}, r.Position)
}

func diagnosticToMap(d *store.Diagnostic) map[string]object.Object {
	return positionFields(map[string]object.Object{
		"kind":    object.NewString(d.Kind),
		"message": object.NewString(d.Message),
	}, d.Position)
}

func unreachableToMap(u *store.Unreachable) map[string]object.Object {
	return positionFields(map[string]object.Object{
		"node":   object.NewInt(int64(u.NodeID)),
		"parent": idOrNil(u.ParentID),
		"kind":   object.NewString(u.NodeKind),
	}, u.Position)
}

func unusedLabelToMap(l *store.UnusedLabel) map[string]object.Object {
	return positionFields(map[string]object.Object{
		"node":  object.NewInt(int64(l.NodeID)),
		"label": object.NewString(l.Label),
	}, l.Position)
}

// makeDBQueryFn creates a db_query bridge that executes arbitrary read-only SQL.
// Returns a list of maps (column name → value).
func makeDBQueryFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 {
			return object.Errorf("db_query: expected at least 1 argument (sql), got %d", len(args))
		}
		sqlStr, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}

		trimmed := strings.TrimSpace(strings.ToUpper(sqlStr))
		if !strings.HasPrefix(trimmed, "SELECT") {
			return object.Errorf("db_query: only SELECT queries are allowed")
		}

		var queryArgs []any
		for _, arg := range args[1:] {
			switch v := arg.(type) {
			case *object.Int:
				queryArgs = append(queryArgs, v.Value())
			case *object.Float:
				queryArgs = append(queryArgs, v.Value())
			case *object.String:
				queryArgs = append(queryArgs, v.Value())
			case *object.Bool:
				queryArgs = append(queryArgs, v.Value())
			case *object.NilType:
				queryArgs = append(queryArgs, nil)
			default:
				queryArgs = append(queryArgs, fmt.Sprintf("%v", arg))
			}
		}

		rows, err := s.DB().QueryContext(ctx, sqlStr, queryArgs...)
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return object.Errorf("db_query: columns: %v", err)
		}

		var results []object.Object
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return object.Errorf("db_query: scan: %v", err)
			}
			row := make(map[string]object.Object, len(cols))
			for i, col := range cols {
				row[col] = sqlValueToObject(values[i])
			}
			results = append(results, object.NewMap(row))
		}
		if err := rows.Err(); err != nil {
			return object.Errorf("db_query: %v", err)
		}
		return object.NewList(results)
	})
}

// sqlValueToObject converts a database value to a Risor object.
func sqlValueToObject(v any) object.Object {
	if v == nil {
		return object.Nil
	}
	switch val := v.(type) {
	case int64:
		return object.NewInt(val)
	case float64:
		return object.NewFloat(val)
	case string:
		return object.NewString(val)
	case bool:
		return object.NewBool(val)
	case []byte:
		return object.NewString(string(val))
	default:
		return object.NewString(fmt.Sprintf("%v", val))
	}
}

func toInt64(obj object.Object) (int64, error) {
	if i, ok := obj.(*object.Int); ok {
		return i.Value(), nil
	}
	if f, ok := obj.(*object.Float); ok {
		return int64(f.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

// toSpan reads a byte range and checks it against a source of length n.
func toSpan(startObj, endObj object.Object, n int) (uint32, uint32, error) {
	start, err := toInt64(startObj)
	if err != nil {
		return 0, 0, fmt.Errorf("start: %w", err)
	}
	end, err := toInt64(endObj)
	if err != nil {
		return 0, 0, fmt.Errorf("end: %w", err)
	}
	if start < 0 || end < start || end > int64(n) {
		return 0, 0, fmt.Errorf("range [%d, %d) outside source of %d bytes", start, end, n)
	}
	return uint32(start), uint32(end), nil
}
