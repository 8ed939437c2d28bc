package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/vex/internal/ir"
	"github.com/roach88/vex/internal/reactive"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %v\n", i+1, event.Kind, event.Type, event.Payload)
		}
	}

	return buf.String()
}

// AssertionContext provides what assertions need beyond the result.
type AssertionContext struct {
	// Getter reads a getter; ok is false if it is not registered.
	Getter func(name string) (value any, ok bool)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertStateEquals:
			err = assertStateEquals(result.State, assertion)
		case AssertGetterEquals:
			if actx == nil || actx.Getter == nil {
				err = fmt.Errorf("assertion[%d]: getter_equals requires a store", i)
			} else {
				err = assertGetterEquals(actx.Getter, assertion)
			}
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

func assertStateEquals(state map[string]any, assertion Assertion) error {
	actual, ok := lookupPath(state, ir.ParsePath(assertion.Path))
	if !ok {
		return &AssertionError{
			Type:     AssertStateEquals,
			Expected: fmt.Sprintf("%s = %v", assertion.Path, assertion.Value),
			Actual:   "path not found in state",
		}
	}
	if !valuesEqual(actual, assertion.Value) {
		return &AssertionError{
			Type:     AssertStateEquals,
			Expected: fmt.Sprintf("%s = %v", assertion.Path, assertion.Value),
			Actual:   fmt.Sprintf("%s = %v", assertion.Path, actual),
		}
	}
	return nil
}

func assertGetterEquals(getter func(string) (any, bool), assertion Assertion) error {
	actual, ok := getter(assertion.Getter)
	if !ok {
		return &AssertionError{
			Type:     AssertGetterEquals,
			Expected: fmt.Sprintf("getter %s = %v", assertion.Getter, assertion.Value),
			Actual:   "getter not registered",
		}
	}
	if !valuesEqual(actual, assertion.Value) {
		return &AssertionError{
			Type:     AssertGetterEquals,
			Expected: fmt.Sprintf("getter %s = %v", assertion.Getter, assertion.Value),
			Actual:   fmt.Sprintf("getter %s = %v", assertion.Getter, reactive.Plain(actual)),
		}
	}
	return nil
}

// assertTraceContains checks if the trace contains an event matching the
// name, kind and payload (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if !matchEvent(event, assertion.Kind, assertion.Name) {
			continue
		}
		if assertion.Payload == nil || matchPayload(event.Payload, assertion.Payload) {
			return nil
		}
	}

	expected := describe(assertion.Kind, assertion.Name)
	if assertion.Payload != nil {
		expected += fmt.Sprintf(" with payload %v", assertion.Payload)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the names first appear in the given order.
// Intervening events are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		for _, name := range assertion.Names {
			if matchEvent(event, assertion.Kind, name) && positions[name] == 0 {
				positions[name] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, name := range assertion.Names {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all events present: %v", assertion.Names),
				Actual:   fmt.Sprintf("missing: %s", describe(assertion.Kind, name)),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Names); i++ {
		prev := assertion.Names[i-1]
		curr := assertion.Names[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Names),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks the event appears exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matchEvent(event, assertion.Kind, assertion.Name) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, describe(assertion.Kind, assertion.Name)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

func matchEvent(event TraceEvent, kind, name string) bool {
	return event.Type == name && (kind == "" || event.Kind == kind)
}

func describe(kind, name string) string {
	if kind == "" {
		return name
	}
	return kind + " " + name
}

// matchPayload compares payloads; an expected object matches any actual
// object holding at least its keys with equal values.
func matchPayload(actual, expected any) bool {
	expMap, ok := expected.(map[string]any)
	if !ok {
		return valuesEqual(actual, expected)
	}
	actMap, ok := actual.(map[string]any)
	if !ok {
		return false
	}
	for key, expVal := range expMap {
		actVal, exists := actMap[key]
		if !exists || !valuesEqual(actVal, expVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares values through the canonical value model, so YAML
// ints, int64 from the journal and reactive containers compare by content.
func valuesEqual(actual, expected any) bool {
	a, errA := ir.FromPlain(reactive.Plain(actual))
	e, errE := ir.FromPlain(expected)
	if errA != nil || errE != nil {
		return reflect.DeepEqual(actual, expected)
	}
	return reflect.DeepEqual(a, e)
}

func lookupPath(state map[string]any, path ir.Path) (any, bool) {
	var cur any = state
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
