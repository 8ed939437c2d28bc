package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Future is the settled-later result of a dispatch.
type Future struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) settle(value any, err error) {
	f.once.Do(func() {
		f.value, f.err = value, err
		close(f.done)
	})
}

// Resolved returns a Future already settled with value.
func Resolved(value any) *Future {
	f := newFuture()
	f.settle(value, nil)
	return f
}

// Rejected returns a Future already settled with err.
func Rejected(err error) *Future {
	f := newFuture()
	f.settle(nil, err)
	return f
}

// Go runs fn on a new goroutine and settles the Future with its result.
// A panic in fn rejects the Future instead of crashing the process.
func Go(fn func() (any, error)) *Future {
	f := newFuture()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.settle(nil, fmt.Errorf("action panicked: %v", r))
			}
		}()
		f.settle(fn())
	}()
	return f
}

// All settles once every future has settled. The value is a []any in
// argument order; the error joins every rejection.
func All(futures ...*Future) *Future {
	out := newFuture()
	settleAll := func() {
		values := make([]any, len(futures))
		var errs []error
		for i, f := range futures {
			<-f.done
			values[i] = f.value
			if f.err != nil {
				errs = append(errs, f.err)
			}
		}
		out.settle(values, errors.Join(errs...))
	}
	if allSettled(futures) {
		settleAll()
	} else {
		go settleAll()
	}
	return out
}

func allSettled(futures []*Future) bool {
	for _, f := range futures {
		if !f.Settled() {
			return false
		}
	}
	return true
}

// Done is closed once the Future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the Future has settled.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the Future settles or ctx is done. Giving up on ctx
// does not cancel the action.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
