// Package harness runs store scenarios: YAML files that mount catalog
// modules, drive commits and dispatches, and assert on the resulting trace
// and final state.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	modules:
//	  counter: {step: 1}
//	  todos: {}
//	state_file: initial.yaml   # optional, relative to the scenario
//	strict: true
//	flow_token: scenario-flow  # optional fixed flow token
//	steps:
//	  - commit: increment
//	    payload: 2
//	  - dispatch: addTodo
//	    payload: "write docs"
//	    expect: {result: "write docs"}
//	  - replace_state: {counter: {count: 10}}
//	  - hot_update: {counter: {step: 5}}
//	assertions:
//	  - type: state_equals
//	    path: counter/count
//	    value: 12
//	  - type: trace_contains
//	    kind: mutation
//	    name: increment
//	    payload: 2
//
// # Assertion Types
//
//   - state_equals: the value at path equals value
//   - getter_equals: the named getter equals value
//   - trace_contains: an event with name (and kind, payload if given) was recorded
//   - trace_order: the names first appear in the given order
//   - trace_count: name was recorded exactly count times
//
// # Deterministic Testing
//
// Every run uses a fresh store with testutil.DeterministicClock and either
// a fixed flow token or a counting flow generator, and waits for each
// dispatch to settle before the next step. Traces are identical across
// runs, which RunWithGolden relies on.
package harness
