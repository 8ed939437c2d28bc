package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleTrace = []TraceEvent{
	{Kind: KindAction, Type: "addTodo", Payload: "milk", Flow: "f1", Seq: 0},
	{Kind: KindMutation, Type: "addTodo", Payload: map[string]any{"text": "milk", "id": int64(1)}, Flow: "f1", Seq: 1},
	{Kind: KindMutation, Type: "toggleTodo", Payload: 1, Seq: 2},
	{Kind: KindMutation, Type: "setFilter", Payload: "active", Seq: 3},
}

func evaluate(a Assertion) []string {
	result := &Result{
		Trace: sampleTrace,
		State: map[string]any{"todos": map[string]any{"filter": "active", "nextId": int64(2)}},
	}
	getters := &AssertionContext{Getter: func(name string) (any, bool) {
		if name == "remaining" {
			return 0, true
		}
		return nil, false
	}}
	return EvaluateAssertions(result, []Assertion{a}, getters)
}

func TestAssertionsPass(t *testing.T) {
	tests := map[string]Assertion{
		"state string":       {Type: AssertStateEquals, Path: "todos/filter", Value: "active"},
		"state int":          {Type: AssertStateEquals, Path: "todos/nextId", Value: 2},
		"state object":       {Type: AssertStateEquals, Path: "todos", Value: map[string]any{"filter": "active", "nextId": 2}},
		"getter":             {Type: AssertGetterEquals, Getter: "remaining", Value: 0},
		"contains any kind":  {Type: AssertTraceContains, Name: "toggleTodo"},
		"contains by kind":   {Type: AssertTraceContains, Kind: KindAction, Name: "addTodo", Payload: "milk"},
		"contains subset":    {Type: AssertTraceContains, Kind: KindMutation, Name: "addTodo", Payload: map[string]any{"text": "milk"}},
		"order":              {Type: AssertTraceOrder, Names: []string{"addTodo", "toggleTodo", "setFilter"}},
		"order with gaps":    {Type: AssertTraceOrder, Names: []string{"addTodo", "setFilter"}},
		"count any kind":     {Type: AssertTraceCount, Name: "addTodo", Count: 2},
		"count by kind":      {Type: AssertTraceCount, Kind: KindMutation, Name: "addTodo", Count: 1},
		"count zero":         {Type: AssertTraceCount, Name: "reset", Count: 0},
	}
	for name, a := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, evaluate(a))
		})
	}
}

func TestAssertionsFail(t *testing.T) {
	tests := []struct {
		name string
		a    Assertion
		want string
	}{
		{"state mismatch", Assertion{Type: AssertStateEquals, Path: "todos/filter", Value: "all"}, "todos/filter = active"},
		{"state missing", Assertion{Type: AssertStateEquals, Path: "todos/items", Value: 1}, "path not found"},
		{"getter mismatch", Assertion{Type: AssertGetterEquals, Getter: "remaining", Value: 3}, "getter remaining = 0"},
		{"getter missing", Assertion{Type: AssertGetterEquals, Getter: "visible", Value: 3}, "getter not registered"},
		{"contains wrong kind", Assertion{Type: AssertTraceContains, Kind: KindAction, Name: "toggleTodo"}, "action toggleTodo"},
		{"contains wrong payload", Assertion{Type: AssertTraceContains, Name: "toggleTodo", Payload: 2}, "with payload 2"},
		{"contains extra key", Assertion{Type: AssertTraceContains, Kind: KindMutation, Name: "addTodo", Payload: map[string]any{"done": true}}, "not found in trace"},
		{"order missing", Assertion{Type: AssertTraceOrder, Names: []string{"addTodo", "reset"}}, "missing: reset"},
		{"order reversed", Assertion{Type: AssertTraceOrder, Names: []string{"setFilter", "toggleTodo"}}, "setFilter (pos 4) should be before toggleTodo (pos 3)"},
		{"count mismatch", Assertion{Type: AssertTraceCount, Kind: KindAction, Name: "addTodo", Count: 2}, "1 occurrences"},
		{"unknown type", Assertion{Type: "bogus"}, `unknown assertion type "bogus"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := evaluate(tt.a)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestGetterAssertionWithoutStore(t *testing.T) {
	errs := EvaluateAssertions(&Result{}, []Assertion{{Type: AssertGetterEquals, Getter: "x"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a store")
}

func TestAssertionErrorIncludesTrace(t *testing.T) {
	err := &AssertionError{Type: AssertTraceCount, Expected: "1", Actual: "0", Trace: sampleTrace[:1]}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: trace_count")
	assert.Contains(t, msg, "[1] action addTodo milk")
}

func TestMatchPayload(t *testing.T) {
	actual := map[string]any{"id": int64(3), "text": "x", "done": false}
	assert.True(t, matchPayload(actual, map[string]any{"id": 3}))
	assert.True(t, matchPayload(actual, map[string]any{}))
	assert.False(t, matchPayload(actual, map[string]any{"id": 4}))
	assert.False(t, matchPayload("x", map[string]any{"id": 3}))
	assert.True(t, matchPayload(int64(5), 5))
	assert.True(t, matchPayload([]any{int64(1), "a"}, []any{1, "a"}))
	assert.False(t, matchPayload(nil, 0))
}
