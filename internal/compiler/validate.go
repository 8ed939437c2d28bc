package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/vex/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// ErrMountNotObject: a module mount point holds a non-object value, so
	// the module's state cannot be installed under it.
	ErrMountNotObject = "E101"

	// ErrMountParentMissing: a nested mount point's parent is absent and
	// will not be created because no module mounts it.
	ErrMountParentMissing = "E102"

	// ErrFractionalNumber: the document holds a number with a fraction.
	ErrFractionalNumber = "E106"

	// ErrUnsupportedValue: the document holds a value outside the value
	// model (timestamps, binary data).
	ErrUnsupportedValue = "E107"
)

// ValidationError represents a structural problem in a state document.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateState checks that state can host modules mounted at mounts.
// Only structural existence is checked: a mount point must be absent or an
// object, and its parent must resolve. Values are checked against the
// value model. Returns all errors found (does not fail-fast).
func ValidateState(state map[string]any, mounts []ir.Path) []ValidationError {
	var errs []ValidationError

	if _, err := ir.ObjectFromPlain(state); err != nil {
		code := ErrUnsupportedValue
		if strings.Contains(err.Error(), "fractional") {
			code = ErrFractionalNumber
		}
		errs = append(errs, ValidationError{Field: "state", Message: err.Error(), Code: code})
	}

	mounted := make(map[string]bool, len(mounts))
	for _, p := range mounts {
		mounted[p.String()] = true
	}

	for _, p := range mounts {
		if p.IsRoot() {
			continue
		}
		parent, ok := lookup(state, p.Parent())
		if !ok {
			if !mounted[p.Parent().String()] {
				errs = append(errs, ValidationError{
					Field:   p.String(),
					Message: fmt.Sprintf("parent %q does not exist", p.Parent().String()),
					Code:    ErrMountParentMissing,
				})
			}
			continue
		}
		parentObj, ok := parent.(map[string]any)
		if !ok {
			// Reported for the parent's own mount point, or below.
			if !mounted[p.Parent().String()] {
				errs = append(errs, ValidationError{
					Field:   p.String(),
					Message: fmt.Sprintf("parent %q is not an object", p.Parent().String()),
					Code:    ErrMountNotObject,
				})
			}
			continue
		}
		if v, exists := parentObj[p.Last()]; exists {
			if _, isObj := v.(map[string]any); !isObj {
				errs = append(errs, ValidationError{
					Field:   p.String(),
					Message: fmt.Sprintf("module mount point holds %T, want an object", v),
					Code:    ErrMountNotObject,
				})
			}
		}
	}
	return errs
}

func lookup(state map[string]any, p ir.Path) (any, bool) {
	var cur any = state
	for _, key := range p {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
