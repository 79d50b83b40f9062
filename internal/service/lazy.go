package service

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// lazy builds a value on first use. Callers that arrive while a build is
// running share its result, including its error. A failed build is not
// remembered: the next call after it starts a new attempt.
type lazy[T any] struct {
	build func() (T, error)

	attempts singleflight.Group

	mu      sync.Mutex
	val     T
	done    bool
	lastErr error
}

func newLazy[T any](build func() (T, error)) *lazy[T] {
	return &lazy[T]{build: build}
}

func (l *lazy[T]) get() (T, error) {
	if v, ok := l.value(); ok {
		return v, nil
	}

	_, err, _ := l.attempts.Do("build", func() (any, error) {
		if _, ok := l.value(); ok {
			return nil, nil
		}
		v, err := l.build()

		l.mu.Lock()
		defer l.mu.Unlock()
		if err != nil {
			l.lastErr = err
			return nil, err
		}
		l.val, l.done, l.lastErr = v, true, nil
		return nil, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	v, _ := l.value()
	return v, nil
}

func (l *lazy[T]) value() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.val, l.done
}

// ready reports whether the value has been built, without building it.
func (l *lazy[T]) ready() bool {
	_, ok := l.value()
	return ok
}

// err returns the error of the last failed attempt, nil once built.
func (l *lazy[T]) err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}
