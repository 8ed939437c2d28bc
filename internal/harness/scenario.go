package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vex/internal/catalog"
)

// Scenario defines one store test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Modules selects the catalog modules to mount, with options.
	Modules catalog.Config `yaml:"modules"`

	// StateFile is an optional initial state document. Relative paths are
	// resolved against the scenario file's directory.
	StateFile string `yaml:"state_file,omitempty"`

	// Strict enables strict mode on the store.
	Strict bool `yaml:"strict,omitempty"`

	// FlowToken fixes the flow token of every top-level dispatch. If empty,
	// dispatches get flow-1, flow-2, ...
	FlowToken string `yaml:"flow_token,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation on the store. Exactly one of Commit, Dispatch,
// ReplaceState and HotUpdate is set.
type Step struct {
	Commit       string         `yaml:"commit,omitempty"`
	Dispatch     string         `yaml:"dispatch,omitempty"`
	ReplaceState map[string]any `yaml:"replace_state,omitempty"`
	HotUpdate    catalog.Config `yaml:"hot_update,omitempty"`

	// Payload is passed to commit and dispatch.
	Payload any `yaml:"payload,omitempty"`

	// Silent commits without notifying subscribers, so the commit is left
	// out of the trace.
	Silent bool `yaml:"silent,omitempty"`

	// Expect checks a dispatch's outcome.
	Expect *Expect `yaml:"expect,omitempty"`
}

// kind names the step's operation.
func (s Step) kind() string {
	switch {
	case s.Commit != "":
		return "commit"
	case s.Dispatch != "":
		return "dispatch"
	case s.ReplaceState != nil:
		return "replace_state"
	case s.HotUpdate != nil:
		return "hot_update"
	}
	return ""
}

// Expect specifies a dispatch's outcome. With Error set the dispatch must
// fail with a message containing it; otherwise it must succeed and, if
// Result is set, resolve to it.
type Expect struct {
	Result any    `yaml:"result,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Path addresses the state value for state_equals, e.g. "todos/filter".
	Path string `yaml:"path,omitempty"`

	// Getter names the getter for getter_equals.
	Getter string `yaml:"getter,omitempty"`

	// Value is the expected value for state_equals and getter_equals.
	Value any `yaml:"value,omitempty"`

	// Kind restricts trace assertions to "action" or "mutation" events.
	Kind string `yaml:"kind,omitempty"`

	// Name is the event type for trace_contains and trace_count.
	Name string `yaml:"name,omitempty"`

	// Payload, if set, must match the event payload for trace_contains.
	// Objects match as subsets.
	Payload any `yaml:"payload,omitempty"`

	// Count is the expected number of events for trace_count.
	Count int `yaml:"count,omitempty"`

	// Names is the expected order for trace_order.
	Names []string `yaml:"names,omitempty"`
}

// Assertion type constants.
const (
	AssertStateEquals   = "state_equals"
	AssertGetterEquals  = "getter_equals"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.StateFile != "" && !filepath.IsAbs(scenario.StateFile) {
		scenario.StateFile = filepath.Join(filepath.Dir(path), scenario.StateFile)
	}

	if err := ValidateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ValidateScenario checks that required fields are present and valid.
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Modules) == 0 {
		return fmt.Errorf("modules is required and must be non-empty")
	}
	for name := range s.Modules {
		if _, err := catalog.Module(name, nil); err != nil {
			return fmt.Errorf("modules: %w", err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.StateFile != "" {
		if _, err := os.Stat(s.StateFile); err != nil {
			return fmt.Errorf("state file: %w", err)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	set := 0
	if s.Commit != "" {
		set++
	}
	if s.Dispatch != "" {
		set++
	}
	if s.ReplaceState != nil {
		set++
	}
	if s.HotUpdate != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of commit, dispatch, replace_state, hot_update is required", index)
	}
	if s.Expect != nil && s.Dispatch == "" {
		return fmt.Errorf("steps[%d]: expect is only valid on dispatch", index)
	}
	if s.Silent && s.Commit == "" {
		return fmt.Errorf("steps[%d]: silent is only valid on commit", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	if a.Kind != "" && a.Kind != KindAction && a.Kind != KindMutation {
		return fmt.Errorf("assertions[%d]: kind must be %q or %q", index, KindAction, KindMutation)
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertStateEquals:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for state_equals", index)
		}
	case AssertGetterEquals:
		if a.Getter == "" {
			return fmt.Errorf("assertions[%d]: getter is required for getter_equals", index)
		}
	case AssertTraceContains:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Names) == 0 {
			return fmt.Errorf("assertions[%d]: names list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
