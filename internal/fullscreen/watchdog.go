// Package fullscreen detects when a borderless application owns an entire
// monitor so the overlay can step out of its way.
package fullscreen

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"notsobright/internal/platform"
	"notsobright/internal/uithread"
)

// DefaultInterval is how often the foreground window is inspected.
const DefaultInterval = 2 * time.Second

// Inspector is the window query surface the watchdog needs.
type Inspector interface {
	ForegroundWindow() platform.HWND
	WindowRect(hwnd platform.HWND) (platform.Rect, error)
	MonitorRect(hwnd platform.HWND) (platform.Rect, error)
	Style(hwnd platform.HWND) (uint32, error)
}

// processNamer is optionally implemented by an Inspector to enrich logs.
type processNamer interface {
	ProcessName(hwnd platform.HWND) (string, error)
}

// Callbacks connect the watchdog to the overlay window.
type Callbacks struct {
	IsOverlayVisible func() bool
	OnBlocked        func()
	OnExited         func()
}

// IsExclusive reports whether a window with the given style and bounds is an
// exclusive-fullscreen application on monitor: it covers the whole monitor
// and is a popup without a caption, which rules out maximized windows.
func IsExclusive(style uint32, window, monitor platform.Rect) bool {
	if !window.Covers(monitor) {
		return false
	}
	return style&platform.WSPopup != 0 && style&platform.WSCaption == 0
}

// Watchdog is an edge-triggered fullscreen detector. Check must run on the
// owning thread; Start arranges that through a dispatcher.
type Watchdog struct {
	inspector Inspector
	cb        Callbacks
	interval  time.Duration
	logger    *zap.Logger
	ignore    platform.HWND

	wasFullscreen bool
	notified      bool

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	stopped   atomic.Bool
}

// New creates a watchdog. interval <= 0 selects DefaultInterval.
func New(inspector Inspector, cb Callbacks, interval time.Duration, logger *zap.Logger) *Watchdog {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cb.IsOverlayVisible == nil {
		cb.IsOverlayVisible = func() bool { return true }
	}
	if cb.OnBlocked == nil {
		cb.OnBlocked = func() {}
	}
	if cb.OnExited == nil {
		cb.OnExited = func() {}
	}
	return &Watchdog{
		inspector: inspector,
		cb:        cb,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Ignore excludes hwnd (normally the overlay itself) from classification.
func (w *Watchdog) Ignore(hwnd platform.HWND) {
	w.ignore = hwnd
}

// Fullscreen reports the state observed at the last completed tick.
func (w *Watchdog) Fullscreen() bool {
	return w.wasFullscreen
}

// Check runs one tick. It never panics; on failure both state flags keep
// their pre-tick values.
func (w *Watchdog) Check() {
	wasFullscreen, notified := w.wasFullscreen, w.notified
	defer func() {
		if r := recover(); r != nil {
			w.wasFullscreen, w.notified = wasFullscreen, notified
			w.logger.Error("fullscreen check failed", zap.Any("panic", r))
		}
	}()

	fg, exclusive := w.observe()

	switch {
	case exclusive && !w.wasFullscreen:
		w.wasFullscreen = true
		w.logEntry(fg)
		if !w.notified && w.cb.IsOverlayVisible() {
			w.notified = true
			w.cb.OnBlocked()
		}
	case !exclusive && w.wasFullscreen:
		w.wasFullscreen = false
		w.notified = false
		w.logger.Info("exclusive fullscreen ended")
		w.cb.OnExited()
	}
}

// observe classifies the foreground window. Query errors count as "not
// fullscreen".
func (w *Watchdog) observe() (platform.HWND, bool) {
	fg := w.inspector.ForegroundWindow()
	if fg == 0 || fg == w.ignore {
		return fg, false
	}
	window, err := w.inspector.WindowRect(fg)
	if err != nil {
		w.logger.Debug("foreground rect unavailable", zap.Error(err))
		return fg, false
	}
	monitor, err := w.inspector.MonitorRect(fg)
	if err != nil {
		w.logger.Debug("monitor rect unavailable", zap.Error(err))
		return fg, false
	}
	if !window.Covers(monitor) {
		return fg, false
	}
	style, err := w.inspector.Style(fg)
	if err != nil {
		w.logger.Debug("foreground style unavailable", zap.Error(err))
		return fg, false
	}
	return fg, IsExclusive(style, window, monitor)
}

func (w *Watchdog) logEntry(fg platform.HWND) {
	fields := []zap.Field{zap.Uintptr("hwnd", uintptr(fg))}
	if namer, ok := w.inspector.(processNamer); ok {
		if name, err := namer.ProcessName(fg); err == nil {
			fields = append(fields, zap.String("process", name))
		}
	}
	w.logger.Info("exclusive fullscreen detected", fields...)
}

// Start ticks every interval, posting each check onto d. Calling Start more
// than once has no effect.
func (w *Watchdog) Start(d uithread.Dispatcher) {
	w.startOnce.Do(func() {
		go w.run(d)
	})
}

func (w *Watchdog) run(d uithread.Dispatcher) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.Post(func() {
				if w.stopped.Load() {
					return
				}
				w.Check()
			})
		case <-w.stopCh:
			return
		}
	}
}

// Stop ends polling. Ticks already posted become no-ops. Safe to call more
// than once.
func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() {
		w.stopped.Store(true)
		close(w.stopCh)
	})
}
