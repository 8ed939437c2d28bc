package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedFlowGenerator(t *testing.T) {
	gen := NewFixedFlowGenerator("test-flow-123")
	assert.Equal(t, "test-flow-123", gen.Generate())
	assert.Equal(t, "test-flow-123", gen.Generate())

	assert.Equal(t, "test-flow-default", NewFixedFlowGenerator("").Generate())
}

func TestSequenceFlowGenerator(t *testing.T) {
	gen := NewSequenceFlowGenerator("")
	assert.Equal(t, "flow-1", gen.Generate())
	assert.Equal(t, "flow-2", gen.Generate())

	named := NewSequenceFlowGenerator("cart")
	assert.Equal(t, "cart-1", named.Generate())
}
