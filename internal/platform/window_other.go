//go:build !windows

package platform

import "go.uber.org/zap"

// API is an inert window API for builds without user32. Queries report no
// window and mutations fail with ErrUnsupported.
type API struct{}

// New returns the inert window API.
func New() *API {
	return &API{}
}

func (a *API) ExStyle(HWND) (uint32, error)                   { return 0, ErrUnsupported }
func (a *API) SetExStyle(HWND, uint32) error                  { return ErrUnsupported }
func (a *API) Style(HWND) (uint32, error)                     { return 0, ErrUnsupported }
func (a *API) SetTopmost(HWND, bool) error                    { return ErrUnsupported }
func (a *API) ForegroundWindow() HWND                         { return 0 }
func (a *API) WindowRect(HWND) (Rect, error)                  { return Rect{}, ErrUnsupported }
func (a *API) MonitorRect(HWND) (Rect, error)                 { return Rect{}, ErrUnsupported }
func (a *API) Monitors() ([]Rect, error)                      { return nil, ErrUnsupported }
func (a *API) DPIScale(HWND) float64                          { return 1 }
func (a *API) ProcessName(HWND) (string, error)               { return "", ErrUnsupported }
func (a *API) FindWindow(string) (HWND, error)                { return 0, ErrUnsupported }
func (a *API) Show(HWND)                                      {}
func (a *API) Hide(HWND)                                      {}
func (a *API) Minimize(HWND)                                  {}
func (a *API) Maximize(HWND)                                  {}
func (a *API) Restore(HWND)                                   {}
func (a *API) IsVisible(HWND) bool                            { return false }
func (a *API) IsMaximized(HWND) bool                          { return false }
func (a *API) IsMinimized(HWND) bool                          { return false }
func (a *API) SetBounds(HWND, Rect) error                     { return ErrUnsupported }
func (a *API) NormalBounds(HWND) (Rect, error)                { return Rect{}, ErrUnsupported }
func (a *API) RegisterHotKey(HWND, int, uint32, uint32) error { return ErrUnsupported }
func (a *API) UnregisterHotKey(HWND, int) error               { return ErrUnsupported }

// Hook is never created on this platform.
type Hook struct{}

// Subclass always fails on this platform.
func (a *API) Subclass(HWND, MessageHandler, *zap.Logger) (*Hook, error) {
	return nil, ErrUnsupported
}

// Post drops fn.
func (h *Hook) Post(func()) {}

// Close is a no-op.
func (h *Hook) Close() error { return nil }
