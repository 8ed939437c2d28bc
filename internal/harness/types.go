package harness

// Trace event kinds.
const (
	KindAction   = "action"
	KindMutation = "mutation"
)

// TraceEvent is one dispatch or commit observed during a run.
type TraceEvent struct {
	Kind    string `json:"kind"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Flow    string `json:"flow,omitempty"`

	// Seq is the mutation's seq; for an action, the seq of the last commit
	// before it.
	Seq int64 `json:"seq"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every dispatch and non-silent commit in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Diagnostics lists the codes the store reported, in order.
	Diagnostics []string `json:"diagnostics,omitempty"`

	// State is the final state tree.
	State map[string]any `json:"state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  map[string]any{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
