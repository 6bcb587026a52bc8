// Package broadcast provides a single-slot change signal. Writers bump a
// version; watchers wake once for any number of bumps since they last looked.
package broadcast

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Wait once the broadcaster has been closed.
var ErrClosed = errors.New("broadcaster closed")

type Broadcaster struct {
	mu       sync.Mutex
	version  uint64
	changed  chan struct{}
	closed   bool
	watchers int
}

func New() *Broadcaster {
	return &Broadcaster{changed: make(chan struct{})}
}

// Notify marks the state dirty and wakes every waiting watcher.
func (b *Broadcaster) Notify() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.version++
	close(b.changed)
	b.changed = make(chan struct{})
	return nil
}

// Close wakes all watchers with ErrClosed. Further Notify calls fail.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.changed)
}

// Version is the number of notifications so far.
func (b *Broadcaster) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// Watchers is the number of live watchers.
func (b *Broadcaster) Watchers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.watchers
}

// Watch registers a watcher that has seen nothing yet, so its first Wait
// returns at once if any change happened before it was created.
func (b *Broadcaster) Watch() *Watcher {
	b.mu.Lock()
	b.watchers++
	b.mu.Unlock()
	return &Watcher{b: b}
}

// Watcher observes a Broadcaster. It is owned by a single goroutine.
type Watcher struct {
	b    *Broadcaster
	seen uint64
	done bool
}

// Wait blocks until the version moves past what this watcher has seen.
func (w *Watcher) Wait(ctx context.Context) error {
	for {
		w.b.mu.Lock()
		if w.b.version != w.seen {
			w.seen = w.b.version
			w.b.mu.Unlock()
			return nil
		}
		if w.b.closed {
			w.b.mu.Unlock()
			return ErrClosed
		}
		ch := w.b.changed
		w.b.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop unregisters the watcher.
func (w *Watcher) Stop() {
	if w.done {
		return
	}
	w.done = true
	w.b.mu.Lock()
	w.b.watchers--
	w.b.mu.Unlock()
}
