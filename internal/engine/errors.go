package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is the single error type reported by the store.
//
// Configuration errors are returned from New, HotUpdate, and SetState.
// Unknown dispatches, duplicate getters, missing module state, and action
// failures are diagnostics: logged and passed to the diagnostics handler.
// Strict violations are raised with panic.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Type is the mutation, action, or getter name involved, if any.
	Type string

	// Path is the module path involved, if any.
	Path string

	// FlowToken identifies the dispatch flow, if any.
	FlowToken string

	// Err is the underlying cause (action failures).
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidModulePath means a module's parent path does not
	// resolve to a state container.
	ErrCodeInvalidModulePath RuntimeErrorCode = "INVALID_MODULE_PATH"

	// ErrCodeDirectStateWrite means a caller tried to assign the root state.
	ErrCodeDirectStateWrite RuntimeErrorCode = "DIRECT_STATE_WRITE"

	ErrCodeUnknownMutation RuntimeErrorCode = "UNKNOWN_MUTATION"
	ErrCodeUnknownAction   RuntimeErrorCode = "UNKNOWN_ACTION"
	ErrCodeUnknownGetter   RuntimeErrorCode = "UNKNOWN_GETTER"

	// ErrCodeDuplicateGetter means two modules registered one getter name.
	ErrCodeDuplicateGetter RuntimeErrorCode = "DUPLICATE_GETTER"

	// ErrCodeStrictViolation means state changed outside a mutation handler.
	ErrCodeStrictViolation RuntimeErrorCode = "STRICT_VIOLATION"

	// ErrCodeActionFailed wraps an error returned by an action handler.
	ErrCodeActionFailed RuntimeErrorCode = "ACTION_FAILED"

	// ErrCodeMissingModuleState means a handler's module path no longer
	// resolves, typically after ReplaceState dropped the subtree.
	ErrCodeMissingModuleState RuntimeErrorCode = "MISSING_MODULE_STATE"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Type != "" && e.Path != "":
		msg += fmt.Sprintf(" (type=%s, path=%s)", e.Type, e.Path)
	case e.Type != "":
		msg += fmt.Sprintf(" (type=%s)", e.Type)
	case e.Path != "":
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, codes ...RuntimeErrorCode) bool {
	var re *RuntimeError
	if !errors.As(err, &re) {
		return false
	}
	for _, c := range codes {
		if re.Code == c {
			return true
		}
	}
	return false
}

// IsStrictViolation reports whether err is a strict-mode violation.
// Uses errors.As to handle wrapped errors.
func IsStrictViolation(err error) bool {
	return hasCode(err, ErrCodeStrictViolation)
}

// IsConfigError reports whether err is a configuration error: a malformed
// module tree or a direct state write.
func IsConfigError(err error) bool {
	return hasCode(err, ErrCodeInvalidModulePath, ErrCodeDirectStateWrite)
}

// IsUnknownDispatch reports whether err names an unregistered mutation,
// action, or getter.
func IsUnknownDispatch(err error) bool {
	return hasCode(err, ErrCodeUnknownMutation, ErrCodeUnknownAction, ErrCodeUnknownGetter)
}

func newInvalidPathError(path, reason string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidModulePath,
		Message: reason,
		Path:    path,
	}
}

func newStrictViolation() *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeStrictViolation,
		Message: "do not mutate store state outside mutation handlers",
	}
}
