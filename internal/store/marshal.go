package store

import (
	"fmt"

	"github.com/roach88/vex/internal/ir"
)

// marshalValue converts an IRValue to canonical JSON TEXT for storage.
func marshalValue(v ir.IRValue) (string, error) {
	if v == nil {
		v = ir.IRNull{}
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// unmarshalValue parses canonical JSON TEXT. Large integers survive because
// the decoder reads numbers as json.Number.
func unmarshalValue(data string) (ir.IRValue, error) {
	if data == "" {
		return ir.IRNull{}, nil
	}
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}

// unmarshalObject parses canonical JSON TEXT that must hold an object.
func unmarshalObject(data string) (ir.IRObject, error) {
	v, err := unmarshalValue(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("unmarshal object: got %T", v)
	}
	return obj, nil
}
