package reactive

// Computed is a lazily evaluated, cached derivation.
type Computed struct {
	g        *Graph
	id       uint64
	fn       func() any
	value    any
	dirty    bool
	disposed bool
	t        tracker
}

// NewComputed creates a derivation over fn. Nothing is evaluated until the
// first Get.
func NewComputed(g *Graph, fn func() any) *Computed {
	c := &Computed{
		g:     g,
		id:    g.allocID(),
		fn:    fn,
		dirty: true,
	}
	c.t.owner = c
	return c
}

func (c *Computed) subscriberID() uint64 { return c.id }
func (c *Computed) lazy() bool           { return true }
func (c *Computed) notify()              { c.dirty = true }

// Dirty reports whether the next Get will re-evaluate.
func (c *Computed) Dirty() bool {
	return c.dirty
}

// Get returns the cached value, re-evaluating first if a dependency changed
// since the last evaluation. When called from inside another evaluation, the
// caller inherits this derivation's dependencies.
func (c *Computed) Get() any {
	if c.disposed {
		var v any
		c.g.Untracked(func() { v = c.fn() })
		return v
	}
	if c.dirty {
		c.g.run(&c.t, func() { c.value = c.fn() })
		c.dirty = false
	}
	if outer := c.g.current(); outer != nil {
		for _, d := range c.t.deps {
			outer.track(d)
		}
	}
	return c.value
}

// Dispose detaches the derivation from its dependencies. A disposed Computed
// still answers Get, without caching.
func (c *Computed) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.t.release()
	c.value = nil
}
