package engine

import (
	"github.com/roach88/vex/internal/ir"
	"github.com/roach88/vex/internal/reactive"
)

// resolvePath walks root by key. It returns nil when a segment is missing
// or holds something other than an object. Reads are tracked, so a getter
// resolving its path depends on every container along the way.
func resolvePath(root *reactive.Object, path ir.Path) *reactive.Object {
	cur := root
	for _, key := range path {
		if cur == nil {
			return nil
		}
		next, _ := cur.Get(key).(*reactive.Object)
		cur = next
	}
	return cur
}
