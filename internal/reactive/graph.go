package reactive

import "sort"

// Graph owns the dependency-tracking stack for a set of observable values.
type Graph struct {
	stack  []*tracker
	nextID uint64
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

func (g *Graph) allocID() uint64 {
	g.nextID++
	return g.nextID
}

// current returns the tracker of the innermost running evaluation, or nil.
func (g *Graph) current() *tracker {
	if len(g.stack) == 0 {
		return nil
	}
	return g.stack[len(g.stack)-1]
}

// Untracked runs fn without registering dependencies for the current
// evaluation.
func (g *Graph) Untracked(fn func()) {
	saved := g.stack
	g.stack = nil
	defer func() { g.stack = saved }()
	fn()
}

// run evaluates fn with t on top of the stack, replacing t's dependency set
// with whatever fn reads.
func (g *Graph) run(t *tracker, fn func()) {
	t.begin()
	g.stack = append(g.stack, t)
	defer func() {
		g.stack = g.stack[:len(g.stack)-1]
		t.end()
	}()
	fn()
}

// subscriber is notified when a dependency changes.
type subscriber interface {
	subscriberID() uint64
	// lazy subscribers only mark themselves stale; they are notified before
	// eager ones so that watchers never read a stale Computed.
	lazy() bool
	notify()
}

// dep is the set of subscribers depending on one observable location.
type dep struct {
	g    *Graph
	subs []subscriber
}

func newDep(g *Graph) *dep {
	return &dep{g: g}
}

func (d *dep) depend() {
	if t := d.g.current(); t != nil {
		t.track(d)
	}
}

func (d *dep) addSub(s subscriber) {
	for _, existing := range d.subs {
		if existing == s {
			return
		}
	}
	d.subs = append(d.subs, s)
}

func (d *dep) removeSub(s subscriber) {
	for i, existing := range d.subs {
		if existing == s {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

func (d *dep) notify() {
	if len(d.subs) == 0 {
		return
	}
	subs := make([]subscriber, len(d.subs))
	copy(subs, d.subs)
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].subscriberID() < subs[j].subscriberID()
	})
	for _, s := range subs {
		if s.lazy() {
			s.notify()
		}
	}
	for _, s := range subs {
		if !s.lazy() {
			s.notify()
		}
	}
}

// tracker records the deps read during one evaluation of its owner.
type tracker struct {
	owner   subscriber
	deps    []*dep
	newDeps []*dep
	seen    map[*dep]struct{}
}

func (t *tracker) begin() {
	t.newDeps = t.newDeps[:0]
	t.seen = make(map[*dep]struct{})
}

func (t *tracker) track(d *dep) {
	if _, ok := t.seen[d]; ok {
		return
	}
	t.seen[d] = struct{}{}
	t.newDeps = append(t.newDeps, d)
	d.addSub(t.owner)
}

// end drops subscriptions to deps that were not read this time.
func (t *tracker) end() {
	for _, d := range t.deps {
		if _, ok := t.seen[d]; !ok {
			d.removeSub(t.owner)
		}
	}
	t.deps, t.newDeps = t.newDeps, t.deps
	t.seen = nil
}

// release unsubscribes from every dep.
func (t *tracker) release() {
	for _, d := range t.deps {
		d.removeSub(t.owner)
	}
	t.deps = nil
}
