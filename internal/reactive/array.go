package reactive

// Array is an observable ordered list. Any change to the list notifies every
// reader of the list.
type Array struct {
	g     *Graph
	items []any
	dep   *dep
}

// NewArray creates an observable array from plain values.
func NewArray(g *Graph, items []any) *Array {
	a := &Array{
		g:     g,
		items: make([]any, len(items)),
		dep:   newDep(g),
	}
	for i, v := range items {
		a.items[i] = Observe(g, v)
	}
	return a
}

// Len returns the number of items.
func (a *Array) Len() int {
	a.dep.depend()
	return len(a.items)
}

// At returns the item at index i. It panics if i is out of range.
func (a *Array) At(i int) any {
	a.dep.depend()
	return a.items[i]
}

// Items returns a shallow copy of the items.
func (a *Array) Items() []any {
	a.dep.depend()
	out := make([]any, len(a.items))
	copy(out, a.items)
	return out
}

// Index returns the index of the first item matching fn, or -1.
func (a *Array) Index(fn func(any) bool) int {
	a.dep.depend()
	for i, v := range a.items {
		if fn(v) {
			return i
		}
	}
	return -1
}

// Append adds values to the end of the list.
func (a *Array) Append(values ...any) {
	if len(values) == 0 {
		return
	}
	for _, v := range values {
		a.items = append(a.items, Observe(a.g, v))
	}
	a.dep.notify()
}

// SetAt replaces the item at index i.
func (a *Array) SetAt(i int, v any) {
	v = Observe(a.g, v)
	if sameValue(a.items[i], v) {
		return
	}
	a.items[i] = v
	a.dep.notify()
}

// RemoveAt deletes the item at index i.
func (a *Array) RemoveAt(i int) {
	a.items = append(a.items[:i], a.items[i+1:]...)
	a.dep.notify()
}

// Filter keeps only the items for which keep returns true.
func (a *Array) Filter(keep func(any) bool) {
	kept := a.items[:0]
	for _, v := range a.items {
		if keep(v) {
			kept = append(kept, v)
		}
	}
	changed := len(kept) != len(a.items)
	for i := len(kept); i < len(a.items); i++ {
		a.items[i] = nil
	}
	a.items = kept
	if changed {
		a.dep.notify()
	}
}

// Clear removes every item.
func (a *Array) Clear() {
	if len(a.items) == 0 {
		return
	}
	a.items = nil
	a.dep.notify()
}

// Plain returns a deep copy of the list as plain Go values.
func (a *Array) Plain() []any {
	a.dep.depend()
	out := make([]any, len(a.items))
	for i, v := range a.items {
		out[i] = Plain(v)
	}
	return out
}
