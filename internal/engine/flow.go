package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// FlowTokenGenerator generates correlation ids for top-level dispatches.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type FlowTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 flow tokens.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined flow tokens in order. It panics once
// the tokens run out, which surfaces a test that dispatched more than it
// expected.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}

type flowKey struct{}

// WithFlow returns a context carrying a flow token. A dispatch made with
// this context joins the flow instead of starting a new one.
func WithFlow(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, flowKey{}, token)
}

// FlowFromContext returns the flow token carried by ctx, or "".
func FlowFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(flowKey{}).(string)
	return token
}
