package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/vex/internal/ir"
)

// TraceSnapshot captures the trace and final state of a scenario run.
// It is serialized as canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	FlowToken    string         `json:"flow_token,omitempty"`
	Trace        []TraceEvent   `json:"trace"`
	State        map[string]any `json:"state"`
}

// toCanonicalMap converts a TraceSnapshot to plain values for canonical
// JSON serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"kind": event.Kind,
			"type": event.Type,
			"seq":  event.Seq,
		}
		if event.Payload != nil {
			eventMap["payload"] = event.Payload
		}
		if event.Flow != "" {
			eventMap["flow"] = event.Flow
		}
		traceList[i] = eventMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"state":         s.State,
	}
	if s.FlowToken != "" {
		result["flow_token"] = s.FlowToken
	}
	return result
}

// MarshalSnapshot renders a result as the canonical JSON stored in golden
// files.
func MarshalSnapshot(name, flowToken string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: name,
		FlowToken:    flowToken,
		Trace:        result.Trace,
		State:        result.State,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace and final state
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...RunOption) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	data, err := MarshalSnapshot(scenario.Name, scenario.FlowToken, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return result, nil
}
