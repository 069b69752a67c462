//go:build windows

package platform

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// wmDispatch drains a Hook's posted closures on the window's own thread.
const wmDispatch = WMApp + 0x21

var (
	procSetWindowLongPtrW = user32.NewProc("SetWindowLongPtrW")
	procCallWindowProcW   = user32.NewProc("CallWindowProcW")
	procDefWindowProcW    = user32.NewProc("DefWindowProcW")
	procPostMessageW      = user32.NewProc("PostMessageW")

	// One callback for every subclassed window; the runtime caps how many
	// can ever be created.
	subclassCallback = windows.NewCallback(subclassProc)

	hooksMu sync.Mutex
	hooks   = map[HWND]*Hook{}
)

// Hook is an installed window-procedure subclass. Messages reach the handler
// on the window's UI thread; Post queues closures to run on that same thread.
type Hook struct {
	hwnd     HWND
	original uintptr
	handler  MessageHandler
	logger   *zap.Logger

	mu     sync.Mutex
	queue  []*posted
	closed bool
}

// Subclass replaces the window procedure of hwnd. handler sees every message
// first; unhandled messages continue to the original procedure.
func (a *API) Subclass(hwnd HWND, handler MessageHandler, logger *zap.Logger) (*Hook, error) {
	if hwnd == 0 {
		return nil, ErrNoWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hook{hwnd: hwnd, handler: handler, logger: logger}

	hooksMu.Lock()
	if _, exists := hooks[hwnd]; exists {
		hooksMu.Unlock()
		return nil, fmt.Errorf("window %#x is already subclassed", uintptr(hwnd))
	}
	hooks[hwnd] = h
	hooksMu.Unlock()

	prev, _, err := procSetWindowLongPtrW.Call(uintptr(hwnd), index(gwlpWndProc), subclassCallback)
	if prev == 0 {
		hooksMu.Lock()
		delete(hooks, hwnd)
		hooksMu.Unlock()
		return nil, callFailed("SetWindowLongPtrW", err)
	}
	h.original = prev
	return h, nil
}

type posted struct {
	fn func()
}

// Post queues fn to run on the window's thread. Closures posted after Close,
// or whose wake-up message cannot be delivered, are dropped.
func (h *Hook) Post(fn func()) {
	p := &posted{fn: fn}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.queue = append(h.queue, p)
	h.mu.Unlock()

	r, _, err := procPostMessageW.Call(uintptr(h.hwnd), uintptr(wmDispatch), 0, 0)
	if r == 0 {
		h.logger.Warn("failed to post dispatch message", zap.Error(err))
		h.drop(p)
	}
}

// drop removes p if no drain has picked it up yet.
func (h *Hook) drop(p *posted) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, q := range h.queue {
		if q == p {
			h.queue = append(h.queue[:i:i], h.queue[i+1:]...)
			return
		}
	}
}

// Pending reports how many closures are waiting for the window thread.
func (h *Hook) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// Close restores the original window procedure. Safe to call more than once.
func (h *Hook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.queue = nil
	h.mu.Unlock()

	hooksMu.Lock()
	delete(hooks, h.hwnd)
	hooksMu.Unlock()

	r, _, err := procSetWindowLongPtrW.Call(uintptr(h.hwnd), index(gwlpWndProc), h.original)
	if r == 0 && err != windows.Errno(0) {
		return callFailed("SetWindowLongPtrW", err)
	}
	return nil
}

func (h *Hook) drain() {
	h.mu.Lock()
	pending := h.queue
	h.queue = nil
	h.mu.Unlock()

	for _, p := range pending {
		h.run(p.fn)
	}
}

func (h *Hook) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic in posted work", zap.Any("panic", r))
		}
	}()
	fn()
}

func (h *Hook) handle(msg uint32, wParam, lParam uintptr) (result uintptr, handled bool) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic in message handler",
				zap.Uint32("msg", msg), zap.Any("panic", r))
			result, handled = 0, false
		}
	}()
	return h.handler(msg, wParam, lParam)
}

func subclassProc(hwnd, msg, wParam, lParam uintptr) uintptr {
	hooksMu.Lock()
	h := hooks[HWND(hwnd)]
	hooksMu.Unlock()

	if h == nil {
		r, _, _ := procDefWindowProcW.Call(hwnd, msg, wParam, lParam)
		return r
	}
	if uint32(msg) == wmDispatch {
		h.drain()
		return 0
	}
	if h.handler != nil {
		if result, handled := h.handle(uint32(msg), wParam, lParam); handled {
			return result
		}
	}
	r, _, _ := procCallWindowProcW.Call(h.original, hwnd, msg, wParam, lParam)
	return r
}
