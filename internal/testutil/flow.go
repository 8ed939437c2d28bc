package testutil

import (
	"fmt"
	"sync"
)

// FixedFlowGenerator returns the same flow token every time, so every
// dispatch in a scenario shares one flow and golden traces stay stable.
//
// Stateless and safe for concurrent use.
type FixedFlowGenerator struct {
	token string
}

// NewFixedFlowGenerator creates a fixed generator. An empty token becomes
// "test-flow-default".
func NewFixedFlowGenerator(token string) *FixedFlowGenerator {
	if token == "" {
		token = "test-flow-default"
	}
	return &FixedFlowGenerator{token: token}
}

// Generate returns the fixed flow token.
func (g *FixedFlowGenerator) Generate() string {
	return g.token
}

// SequenceFlowGenerator returns prefix-1, prefix-2, ... so tests can tell
// top-level dispatches apart without depending on UUIDs.
type SequenceFlowGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceFlowGenerator creates a counting generator. An empty prefix
// becomes "flow".
func NewSequenceFlowGenerator(prefix string) *SequenceFlowGenerator {
	if prefix == "" {
		prefix = "flow"
	}
	return &SequenceFlowGenerator{prefix: prefix}
}

// Generate returns the next token.
func (g *SequenceFlowGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
