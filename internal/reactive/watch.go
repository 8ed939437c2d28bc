package reactive

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// Deep makes the watcher depend on every container reachable from the
	// watched value, so nested writes trigger the callback.
	Deep bool
}

// Watcher runs a callback synchronously whenever its watched value changes.
type Watcher struct {
	g      *Graph
	id     uint64
	getter func() any
	cb     func(newValue, oldValue any)
	deep   bool
	value  any
	active bool
	t      tracker
}

// Watch evaluates getter immediately, recording its dependencies, and calls
// cb from inside any later write that changes what getter reads.
func Watch(g *Graph, getter func() any, cb func(newValue, oldValue any), opts WatchOptions) *Watcher {
	w := &Watcher{
		g:      g,
		id:     g.allocID(),
		getter: getter,
		cb:     cb,
		deep:   opts.Deep,
		active: true,
	}
	w.t.owner = w
	w.value = w.get()
	return w
}

func (w *Watcher) subscriberID() uint64 { return w.id }
func (w *Watcher) lazy() bool           { return false }

func (w *Watcher) notify() {
	if !w.active {
		return
	}
	old := w.value
	w.value = w.get()
	if w.deep || !sameValue(old, w.value) {
		w.cb(w.value, old)
	}
}

func (w *Watcher) get() any {
	var v any
	w.g.run(&w.t, func() {
		v = w.getter()
		if w.deep {
			traverse(v, make(map[any]struct{}))
		}
	})
	return v
}

// Stop detaches the watcher. The callback is never called again.
func (w *Watcher) Stop() {
	if !w.active {
		return
	}
	w.active = false
	w.t.release()
}

// traverse reads every nested location so the running evaluation depends on
// all of them.
func traverse(v any, seen map[any]struct{}) {
	switch val := v.(type) {
	case *Object:
		if val == nil {
			return
		}
		if _, ok := seen[val]; ok {
			return
		}
		seen[val] = struct{}{}
		for _, k := range val.Keys() {
			traverse(val.Get(k), seen)
		}
	case *Array:
		if val == nil {
			return
		}
		if _, ok := seen[val]; ok {
			return
		}
		seen[val] = struct{}{}
		for _, item := range val.Items() {
			traverse(item, seen)
		}
	}
}
