// Package observable holds state that is filled in asynchronously and read by
// many consumers. A value that has not arrived yet is reported as Pending
// instead of a zero value.
package observable

import (
	"context"
	"sync"
)

type Status int

const (
	Pending Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "pending"
}

type Value[T any] struct {
	mu      sync.Mutex
	value   T
	status  Status
	err     error
	settled chan struct{}
	subs    map[int]chan T
	nextSub int
}

func New[T any]() *Value[T] {
	return &Value[T]{
		settled: make(chan struct{}),
		subs:    make(map[int]chan T),
	}
}

// Get returns the current value and its status without blocking.
func (v *Value[T]) Get() (T, Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value, v.status
}

// Err returns the last failure, which may coexist with an older Ready value.
func (v *Value[T]) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Set publishes x to readers and subscribers.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.value = x
	v.err = nil
	v.settle(Ready)
	for _, ch := range v.subs {
		// Subscribers only ever see the latest value.
		select {
		case ch <- x:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- x
		}
	}
}

// Fail records err. A value that was already Ready stays readable.
func (v *Value[T]) Fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.err = err
	if v.status == Pending {
		v.settle(Failed)
	}
}

// settle must be called with mu held.
func (v *Value[T]) settle(s Status) {
	if v.status == Pending {
		close(v.settled)
	}
	if s == Ready || v.status != Ready {
		v.status = s
	}
}

// Wait blocks until the value leaves Pending or ctx is done.
func (v *Value[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-v.settled:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.status == Failed {
		return v.value, v.err
	}
	return v.value, nil
}

// Subscribe returns a channel receiving every subsequent value and a function
// that cancels the subscription and closes the channel.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextSub
	v.nextSub++
	ch := make(chan T, 1)
	v.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subs, id)
			close(ch)
		})
	}
}
