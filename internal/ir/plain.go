package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// FromPlain converts a plain Go value into an IRValue.
//
// Accepted: nil, string, bool, every integer kind, float64/float32 holding a
// whole number, json.Number integers, map[string]any, []any, and IRValues.
// Fractional numbers are rejected.
func FromPlain(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int8:
		return IRInt(val), nil
	case int16:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint:
		return IRInt(val), nil
	case uint8:
		return IRInt(val), nil
	case uint16:
		return IRInt(val), nil
	case uint32:
		return IRInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return IRInt(val), nil
	case float32:
		return wholeFloat(float64(val))
	case float64:
		return wholeFloat(val)
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("fractional numbers cannot be persisted: %s", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return IRInt(n), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			ev, err := FromPlain(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = ev
		}
		return arr, nil
	case []string:
		arr := make(IRArray, len(val))
		for i, s := range val {
			arr[i] = IRString(s)
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ev, err := FromPlain(val[k])
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = ev
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func wholeFloat(f float64) (IRValue, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("fractional numbers cannot be persisted: %v", f)
	}
	return IRInt(int64(f)), nil
}

// ToPlain converts an IRValue into plain Go values: nil, string, int64,
// bool, []any, map[string]any.
func ToPlain(v IRValue) any {
	switch val := v.(type) {
	case nil, IRNull:
		return nil
	case IRString:
		return string(val)
	case IRInt:
		return int64(val)
	case IRBool:
		return bool(val)
	case IRArray:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToPlain(elem)
		}
		return out
	case IRObject:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToPlain(elem)
		}
		return out
	default:
		return nil
	}
}

// ObjectFromPlain converts a plain map into an IRObject.
func ObjectFromPlain(m map[string]any) (IRObject, error) {
	if m == nil {
		return IRObject{}, nil
	}
	v, err := FromPlain(m)
	if err != nil {
		return nil, err
	}
	return v.(IRObject), nil
}

// AsInt reads an integer payload. It accepts every Go integer kind, whole
// floats (as produced by encoding/json), json.Number, and IRInt. Payloads
// replayed from the journal arrive as int64, so handlers should read numbers
// through AsInt rather than asserting a concrete type.
func AsInt(v any) (int64, bool) {
	iv, err := FromPlain(v)
	if err != nil {
		return 0, false
	}
	n, ok := iv.(IRInt)
	return int64(n), ok
}
