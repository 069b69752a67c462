// Package platform wraps the small slice of the user32 window API the overlay
// depends on: style registers, window and monitor rectangles, global hotkeys
// and window-procedure subclassing.
//
// Only the windows build talks to the OS. Other builds get an inert
// implementation so the rest of the program still compiles and runs headless.
package platform

import "errors"

// HWND is an opaque native window handle. Zero means "no window".
type HWND uintptr

// Rect is a window or monitor rectangle in physical screen pixels.
type Rect struct {
	Left   int32 `json:"left"`
	Top    int32 `json:"top"`
	Right  int32 `json:"right"`
	Bottom int32 `json:"bottom"`
}

// Width returns the horizontal extent of r.
func (r Rect) Width() int32 { return r.Right - r.Left }

// Height returns the vertical extent of r.
func (r Rect) Height() int32 { return r.Bottom - r.Top }

// Covers reports whether r fully contains other.
func (r Rect) Covers(other Rect) bool {
	return r.Left <= other.Left &&
		r.Top <= other.Top &&
		r.Right >= other.Right &&
		r.Bottom >= other.Bottom
}

// Window style bits (GWL_STYLE).
const (
	WSPopup   uint32 = 0x80000000
	WSCaption uint32 = 0x00C00000
)

// Extended window style bits (GWL_EXSTYLE).
const (
	WSExTopmost     uint32 = 0x00000008
	WSExTransparent uint32 = 0x00000020
	WSExToolWindow  uint32 = 0x00000080
	WSExLayered     uint32 = 0x00080000
)

// Hotkey modifier flags accepted by RegisterHotKey.
const (
	ModAlt      uint32 = 0x0001
	ModControl  uint32 = 0x0002
	ModShift    uint32 = 0x0004
	ModWin      uint32 = 0x0008
	ModNoRepeat uint32 = 0x4000
)

// Window messages routed by the overlay.
const (
	WMSize         uint32 = 0x0005
	WMNCHitTest    uint32 = 0x0084
	WMHotkey       uint32 = 0x0312
	WMExitSizeMove uint32 = 0x0232
	WMApp          uint32 = 0x8000
)

// ErrUnsupported is returned by every operation on builds without a native
// window API.
var ErrUnsupported = errors.New("platform: window API not supported on this OS")

// ErrNoWindow is returned when an operation is given a zero handle.
var ErrNoWindow = errors.New("platform: no window")

// MessageHandler inspects a window message. Returning handled=true makes
// result the message's return value; otherwise the message continues to the
// original window procedure.
type MessageHandler func(msg uint32, wParam, lParam uintptr) (result uintptr, handled bool)
