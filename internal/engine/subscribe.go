package engine

import (
	"reflect"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/roach88/vex/internal/reactive"
)

// Subscriber observes every non-silent commit, after its handlers ran.
type Subscriber interface {
	OnMutation(m Mutation, state *reactive.Object)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(m Mutation, state *reactive.Object)

// OnMutation calls f.
func (f SubscriberFunc) OnMutation(m Mutation, state *reactive.Object) { f(m, state) }

// ActionSubscriber observes every known dispatch before its handlers run.
type ActionSubscriber interface {
	OnAction(a Action, state *reactive.Object)
}

// ActionSubscriberFunc adapts a function to ActionSubscriber.
type ActionSubscriberFunc func(a Action, state *reactive.Object)

// OnAction calls f.
func (f ActionSubscriberFunc) OnAction(a Action, state *reactive.Object) { f(a, state) }

// Subscribe registers fn for mutation notifications and returns a function
// that removes it. Calling the returned function twice is harmless.
func (s *Store) Subscribe(fn func(m Mutation, state *reactive.Object)) (unsubscribe func()) {
	return s.subs.add(SubscriberFunc(fn))
}

// SubscribeHandler registers h. A pointer handler already subscribed is not
// added twice; the returned function removes it.
func (s *Store) SubscribeHandler(h Subscriber) (unsubscribe func()) {
	return s.subs.add(h)
}

// SubscribeAction registers fn for dispatch notifications.
func (s *Store) SubscribeAction(fn func(a Action, state *reactive.Object)) (unsubscribe func()) {
	return s.actionSubs.add(ActionSubscriberFunc(fn))
}

type subscription[H any] struct {
	id string
	h  H
}

// subscriberList is an ordered list de-duplicated by pointer identity.
// Function values cannot be compared in Go, so they are always appended.
type subscriberList[H any] struct {
	mu      sync.Mutex
	entries []subscription[H]
}

func (l *subscriberList[H]) add(h H) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if isPointer(h) {
		for _, e := range l.entries {
			if any(e.h) == any(h) {
				return l.remover(e.id)
			}
		}
	}
	id := uuid.NewString()
	l.entries = append(l.entries, subscription[H]{id: id, h: h})
	return l.remover(id)
}

func (l *subscriberList[H]) remover(id string) func() {
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.entries = slices.DeleteFunc(l.entries, func(e subscription[H]) bool {
			return e.id == id
		})
	}
}

func (l *subscriberList[H]) snapshot() []H {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]H, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.h
	}
	return out
}

func (l *subscriberList[H]) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func isPointer(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Kind() == reflect.Pointer
}

// SubscriberCount returns the number of mutation subscribers.
func (s *Store) SubscriberCount() int {
	return s.subs.count()
}
