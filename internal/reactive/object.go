package reactive

import (
	"fmt"
	"sort"
	"strings"
)

// Object is an observable string-keyed container.
type Object struct {
	g       *Graph
	fields  map[string]any
	keyDeps map[string]*dep
	// shape is notified when keys are added or removed.
	shape *dep
}

// NewObject creates an observable object from a plain map. Nested maps and
// slices are converted recursively. A nil map yields an empty object.
func NewObject(g *Graph, m map[string]any) *Object {
	o := &Object{
		g:       g,
		fields:  make(map[string]any, len(m)),
		keyDeps: make(map[string]*dep),
		shape:   newDep(g),
	}
	for k, v := range m {
		o.fields[k] = Observe(g, v)
	}
	return o
}

func (o *Object) keyDep(key string) *dep {
	d, ok := o.keyDeps[key]
	if !ok {
		d = newDep(o.g)
		o.keyDeps[key] = d
	}
	return d
}

// Graph returns the graph the object belongs to.
func (o *Object) Graph() *Graph {
	return o.g
}

// Get returns the value stored under key, or nil if absent.
func (o *Object) Get(key string) any {
	o.keyDep(key).depend()
	return o.fields[key]
}

// Lookup returns the value stored under key and whether it exists.
func (o *Object) Lookup(key string) (any, bool) {
	o.keyDep(key).depend()
	v, ok := o.fields[key]
	return v, ok
}

// Has reports whether key exists.
func (o *Object) Has(key string) bool {
	_, ok := o.Lookup(key)
	return ok
}

// Keys returns the keys in lexical order.
func (o *Object) Keys() []string {
	o.shape.depend()
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	o.shape.depend()
	return len(o.fields)
}

// Set stores v under key. Plain maps and slices are converted to observable
// containers. Adding a new key notifies readers of the key set as well as
// readers of the key itself. Setting a value equal to the current one is a
// no-op.
func (o *Object) Set(key string, v any) {
	v = Observe(o.g, v)
	old, exists := o.fields[key]
	if exists && sameValue(old, v) {
		return
	}
	o.fields[key] = v
	o.keyDep(key).notify()
	if !exists {
		o.shape.notify()
	}
}

// Update replaces the value under key with fn(current).
func (o *Object) Update(key string, fn func(any) any) {
	var cur any
	o.g.Untracked(func() { cur = o.fields[key] })
	o.Set(key, fn(cur))
}

// Delete removes key. Deleting a missing key is a no-op.
func (o *Object) Delete(key string) {
	if _, ok := o.fields[key]; !ok {
		return
	}
	delete(o.fields, key)
	o.keyDep(key).notify()
	o.shape.notify()
}

// Object returns the nested object under key, or nil.
func (o *Object) Object(key string) *Object {
	child, _ := o.Get(key).(*Object)
	return child
}

// Array returns the nested array under key, or nil.
func (o *Object) Array(key string) *Array {
	child, _ := o.Get(key).(*Array)
	return child
}

// Int returns the value under key as an int; non-numeric values yield 0.
func (o *Object) Int(key string) int {
	n, _ := ToInt(o.Get(key))
	return n
}

// String returns the value under key as a string; other types yield "".
func (o *Object) String(key string) string {
	s, _ := o.Get(key).(string)
	return s
}

// Bool returns the value under key as a bool; other types yield false.
func (o *Object) Bool(key string) bool {
	b, _ := o.Get(key).(bool)
	return b
}

// Plain returns a deep copy of the object as plain Go values. Every location
// copied is tracked as a dependency.
func (o *Object) Plain() map[string]any {
	out := make(map[string]any, len(o.fields))
	for _, k := range o.Keys() {
		out[k] = Plain(o.Get(k))
	}
	return out
}

// GoString renders the object for debugging without tracking reads.
func (o *Object) GoString() string {
	var b strings.Builder
	o.g.Untracked(func() {
		fmt.Fprintf(&b, "%v", o.Plain())
	})
	return b.String()
}
