package db

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("connection handle closed")

// Lazy dials a shared handle on first use and hands the same value to every
// later caller. A failed dial is not memoised: the next Get tries again.
// Concurrent callers share one in-flight dial; the mutex is never held across
// it.
type Lazy[T any] struct {
	mu     sync.Mutex
	group  singleflight.Group
	dial   func(ctx context.Context) (T, error)
	close  func(T)
	handle T
	ready  bool
	closed bool
}

func NewLazy[T any](dial func(ctx context.Context) (T, error), closeFn func(T)) *Lazy[T] {
	return &Lazy[T]{dial: dial, close: closeFn}
}

// Get returns the established handle, dialing it if needed.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	if h, ok, err := l.current(); ok || err != nil {
		return h, err
	}

	v, err, _ := l.group.Do("dial", func() (any, error) {
		if h, ok, err := l.current(); ok || err != nil {
			return h, err
		}
		h, err := l.dial(ctx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.closed {
			if l.close != nil {
				l.close(h)
			}
			return nil, ErrClosed
		}
		l.handle = h
		l.ready = true
		return h, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (l *Lazy[T]) current() (T, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero T
	if l.closed {
		return zero, false, ErrClosed
	}
	if l.ready {
		return l.handle, true, nil
	}
	return zero, false, nil
}

// Warm establishes the handle without returning it.
func (l *Lazy[T]) Warm(ctx context.Context) error {
	_, err := l.Get(ctx)
	return err
}

// Established reports whether a handle has been dialed successfully.
func (l *Lazy[T]) Established() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ready
}

// Close releases the handle if one was established. Later Gets fail, and a
// dial still in flight is closed as soon as it lands.
func (l *Lazy[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready && l.close != nil {
		l.close(l.handle)
	}
	var zero T
	l.handle = zero
	l.ready = false
	l.closed = true
}
