package reactive

import (
	"math"
	"reflect"
)

// Observe converts plain maps and slices into observable containers owned by
// g. Containers and scalars are returned unchanged.
func Observe(g *Graph, v any) any {
	switch val := v.(type) {
	case map[string]any:
		return NewObject(g, val)
	case []any:
		return NewArray(g, val)
	case []map[string]any:
		items := make([]any, len(val))
		for i, m := range val {
			items[i] = m
		}
		return NewArray(g, items)
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return NewArray(g, items)
	default:
		return v
	}
}

// Plain converts observable containers back into plain Go values.
func Plain(v any) any {
	switch val := v.(type) {
	case *Object:
		if val == nil {
			return nil
		}
		return val.Plain()
	case *Array:
		if val == nil {
			return nil
		}
		return val.Plain()
	default:
		return v
	}
}

// ToInt converts any Go integer kind, or a float64 holding a whole number,
// into an int.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

// sameValue reports whether writing b over a would be a no-op.
func sameValue(a, b any) bool {
	switch a.(type) {
	case *Object, *Array:
		return a == b
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
