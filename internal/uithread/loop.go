// Package uithread serializes overlay work onto one owning thread.
//
// On Windows the owner is the overlay window's UI thread and posting goes
// through the window's message queue (platform.Hook). Loop provides the same
// contract on a plain goroutine for other builds and for tests.
package uithread

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher runs posted closures, in order, on its owning thread.
type Dispatcher interface {
	Post(fn func())
}

// ErrStopped is returned by Call when the dispatcher has gone away.
var ErrStopped = errors.New("uithread: dispatcher stopped")

// Loop is a Dispatcher backed by a single goroutine.
type Loop struct {
	work     chan func()
	quit     chan struct{}
	exited   chan struct{}
	startMu  sync.Mutex
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// New creates a stopped loop. buffer bounds how many closures may be queued
// before Post blocks.
func New(logger *zap.Logger, buffer int) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer < 1 {
		buffer = 64
	}
	return &Loop{
		work:   make(chan func(), buffer),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
		logger: logger,
	}
}

// Start launches the owning goroutine. Calling it twice is a no-op.
func (l *Loop) Start() {
	l.startMu.Lock()
	defer l.startMu.Unlock()
	if l.started {
		return
	}
	l.started = true
	go l.run()
}

func (l *Loop) run() {
	defer close(l.exited)
	for {
		select {
		case fn := <-l.work:
			l.exec(fn)
		case <-l.quit:
			return
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in posted work", zap.Any("panic", r))
		}
	}()
	fn()
}

// Post queues fn. After Stop, closures are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.quit:
		return
	default:
	}
	select {
	case l.work <- fn:
	case <-l.quit:
	}
}

// Stop ends the loop and waits for the closure in flight to finish. Queued
// closures that have not started are discarded.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
		l.startMu.Lock()
		started := l.started
		l.startMu.Unlock()
		if started {
			<-l.exited
		}
	})
}

// Call posts fn to d and waits until it has run. It must not be called from
// d's own thread.
func Call(ctx context.Context, d Dispatcher, fn func()) error {
	done := make(chan struct{})
	d.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
