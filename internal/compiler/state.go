package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/vex/internal/ir"
)

// Supported state document extensions.
var Extensions = []string{".cue", ".yaml", ".yml", ".json", ".toml"}

// CompileStateFile reads a state document, choosing the decoder by file
// extension.
func CompileStateFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return CompileState(path, data)
}

// CompileState decodes data as the format implied by filename's extension.
func CompileState(filename string, data []byte) (map[string]any, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".cue":
		v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
		return CompileStateCUE(v)
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &CompileError{Field: filename, Message: err.Error()}
		}
		return normalize(filename, doc)
	case ".json":
		v, err := ir.UnmarshalIRValue(data)
		if err != nil {
			return nil, &CompileError{Field: filename, Message: err.Error()}
		}
		obj, ok := v.(ir.IRObject)
		if !ok {
			return nil, &CompileError{Field: filename, Message: "state document must be an object"}
		}
		return ir.ToPlain(obj).(map[string]any), nil
	case ".toml":
		var doc map[string]any
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, &CompileError{Field: filename, Message: err.Error()}
		}
		return normalize(filename, doc)
	default:
		return nil, &CompileError{
			Field:   filename,
			Message: fmt.Sprintf("unsupported state document extension %q (want one of %s)", ext, strings.Join(Extensions, ", ")),
		}
	}
}

// normalize round-trips a decoded document through the canonical value
// model so every format yields the same Go types.
func normalize(filename string, doc map[string]any) (map[string]any, error) {
	if doc == nil {
		return map[string]any{}, nil
	}
	obj, err := ir.ObjectFromPlain(doc)
	if err != nil {
		return nil, &CompileError{Field: filename, Message: err.Error()}
	}
	return ir.ToPlain(obj).(map[string]any), nil
}

// CompileStateCUE converts a concrete CUE value into a state tree. If the
// value has a top-level "state" field, that field is the tree; otherwise
// the whole value is. Definitions and hidden fields are ignored, so a
// document may carry its own schema next to the data.
func CompileStateCUE(v cue.Value) (map[string]any, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if sv := v.LookupPath(cue.ParsePath("state")); sv.Exists() {
		v = sv
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	if v.Kind() != cue.StructKind {
		return nil, &CompileError{Field: "state", Message: "state must be a struct", Pos: v.Pos()}
	}
	out, err := decodeCUE(v, "state")
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func decodeCUE(v cue.Value, field string) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "integer out of int64 range", Pos: v.Pos()}
		}
		return n, nil
	case cue.FloatKind:
		return nil, &CompileError{Field: field, Message: "fractional numbers cannot be persisted", Pos: v.Pos()}
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := []any{}
		for i := 0; iter.Next(); i++ {
			elem, err := decodeCUE(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := make(map[string]any)
		for iter.Next() {
			key := iter.Label()
			elem, err := decodeCUE(iter.Value(), field+"."+key)
			if err != nil {
				return nil, err
			}
			out[key] = elem
		}
		return out, nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported value kind %s", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError is a state document error with an optional CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
