//go:build windows

package platform

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/windows"
)

const (
	gwlStyle    int32 = -16
	gwlExStyle  int32 = -20
	gwlpWndProc int32 = -4

	monitorDefaultToNearest = 0x00000002

	swHide     = 0
	swMaximize = 3
	swShow     = 5
	swMinimize = 6
	swRestore  = 9

	swpNoSize     = 0x0001
	swpNoMove     = 0x0002
	swpNoZOrder   = 0x0004
	swpNoActivate = 0x0010

	hwndTopmost   = ^uintptr(0) // (HWND)-1
	hwndNoTopmost = ^uintptr(1) // (HWND)-2
)

var (
	user32 = windows.NewLazyDLL("user32.dll")

	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
	procSetWindowLongW           = user32.NewProc("SetWindowLongW")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procMonitorFromWindow        = user32.NewProc("MonitorFromWindow")
	procGetMonitorInfoW          = user32.NewProc("GetMonitorInfoW")
	procEnumDisplayMonitors      = user32.NewProc("EnumDisplayMonitors")
	procGetDpiForWindow          = user32.NewProc("GetDpiForWindow")
	procRegisterHotKey           = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey         = user32.NewProc("UnregisterHotKey")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procFindWindowW              = user32.NewProc("FindWindowW")
	procShowWindow               = user32.NewProc("ShowWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procIsZoomed                 = user32.NewProc("IsZoomed")
	procIsIconic                 = user32.NewProc("IsIconic")
	procSetForegroundWindow      = user32.NewProc("SetForegroundWindow")
	procSetWindowPos             = user32.NewProc("SetWindowPos")
	procGetWindowPlacement       = user32.NewProc("GetWindowPlacement")

	monitorEnumCallback = windows.NewCallback(enumMonitorProc)
	monitorEnumMu       sync.Mutex
	monitorEnumResult   []Rect
)

type monitorInfo struct {
	CbSize    uint32
	RcMonitor Rect
	RcWork    Rect
	DwFlags   uint32
}

type windowPlacement struct {
	Length           uint32
	Flags            uint32
	ShowCmd          uint32
	PtMinPosition    [2]int32
	PtMaxPosition    [2]int32
	RcNormalPosition Rect
}

// API is the user32-backed window API.
type API struct{}

// New returns the native window API.
func New() *API {
	return &API{}
}

// index converts a (possibly negative) GWL_* index into a call argument.
func index(i int32) uintptr {
	return uintptr(i)
}

func callFailed(name string, err error) error {
	if errno, ok := err.(windows.Errno); ok && errno == 0 {
		return fmt.Errorf("%s failed", name)
	}
	return fmt.Errorf("%s: %w", name, err)
}

// ExStyle reads the extended style register of hwnd.
func (a *API) ExStyle(hwnd HWND) (uint32, error) {
	return a.getLong(hwnd, gwlExStyle)
}

// SetExStyle overwrites the extended style register of hwnd.
func (a *API) SetExStyle(hwnd HWND, style uint32) error {
	if hwnd == 0 {
		return ErrNoWindow
	}
	prev, _, err := procSetWindowLongW.Call(uintptr(hwnd), index(gwlExStyle), uintptr(style))
	if prev == 0 && err != windows.Errno(0) {
		return callFailed("SetWindowLongW", err)
	}
	return nil
}

// Style reads the ordinary style register of hwnd.
func (a *API) Style(hwnd HWND) (uint32, error) {
	return a.getLong(hwnd, gwlStyle)
}

func (a *API) getLong(hwnd HWND, idx int32) (uint32, error) {
	if hwnd == 0 {
		return 0, ErrNoWindow
	}
	r, _, err := procGetWindowLongW.Call(uintptr(hwnd), index(idx))
	if r == 0 && err != windows.Errno(0) {
		return 0, callFailed("GetWindowLongW", err)
	}
	return uint32(r), nil
}

// SetTopmost moves hwnd into (or out of) the topmost z-order band without
// activating, moving or resizing it.
func (a *API) SetTopmost(hwnd HWND, topmost bool) error {
	if hwnd == 0 {
		return ErrNoWindow
	}
	after := hwndNoTopmost
	if topmost {
		after = hwndTopmost
	}
	r, _, err := procSetWindowPos.Call(uintptr(hwnd), after, 0, 0, 0, 0,
		swpNoMove|swpNoSize|swpNoActivate)
	if r == 0 {
		return callFailed("SetWindowPos", err)
	}
	return nil
}

// ForegroundWindow returns the window the user is currently working in, or 0.
func (a *API) ForegroundWindow() HWND {
	r, _, _ := procGetForegroundWindow.Call()
	return HWND(r)
}

// WindowRect returns the bounding rectangle of hwnd in screen coordinates.
func (a *API) WindowRect(hwnd HWND) (Rect, error) {
	if hwnd == 0 {
		return Rect{}, ErrNoWindow
	}
	var rect Rect
	r, _, err := procGetWindowRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&rect)))
	if r == 0 {
		return Rect{}, callFailed("GetWindowRect", err)
	}
	return rect, nil
}

// MonitorRect returns the full bounds of the monitor nearest to hwnd.
func (a *API) MonitorRect(hwnd HWND) (Rect, error) {
	if hwnd == 0 {
		return Rect{}, ErrNoWindow
	}
	monitor, _, _ := procMonitorFromWindow.Call(uintptr(hwnd), monitorDefaultToNearest)
	if monitor == 0 {
		return Rect{}, fmt.Errorf("MonitorFromWindow returned no monitor")
	}
	info := monitorInfo{CbSize: uint32(unsafe.Sizeof(monitorInfo{}))}
	r, _, err := procGetMonitorInfoW.Call(monitor, uintptr(unsafe.Pointer(&info)))
	if r == 0 {
		return Rect{}, callFailed("GetMonitorInfoW", err)
	}
	return info.RcMonitor, nil
}

// Monitors lists the bounds of every attached display.
func (a *API) Monitors() ([]Rect, error) {
	monitorEnumMu.Lock()
	defer monitorEnumMu.Unlock()

	monitorEnumResult = nil
	r, _, err := procEnumDisplayMonitors.Call(0, 0, monitorEnumCallback, 0)
	if r == 0 {
		return nil, callFailed("EnumDisplayMonitors", err)
	}
	out := make([]Rect, len(monitorEnumResult))
	copy(out, monitorEnumResult)
	return out, nil
}

func enumMonitorProc(monitor, hdc, rect, lparam uintptr) uintptr {
	if rect != 0 {
		monitorEnumResult = append(monitorEnumResult, *(*Rect)(unsafe.Pointer(rect)))
	}
	return 1
}

// DPIScale returns the device-pixel ratio of hwnd (1.0 at 96 DPI).
func (a *API) DPIScale(hwnd HWND) float64 {
	if hwnd == 0 || procGetDpiForWindow.Find() != nil {
		return 1
	}
	dpi, _, _ := procGetDpiForWindow.Call(uintptr(hwnd))
	if dpi == 0 {
		return 1
	}
	return float64(dpi) / 96
}

// RegisterHotKey binds a system-wide hotkey to hwnd. It fails when another
// application already owns the combination.
func (a *API) RegisterHotKey(hwnd HWND, id int, modifiers, vk uint32) error {
	r, _, err := procRegisterHotKey.Call(uintptr(hwnd), uintptr(id), uintptr(modifiers), uintptr(vk))
	if r == 0 {
		return callFailed("RegisterHotKey", err)
	}
	return nil
}

// UnregisterHotKey releases a hotkey previously bound to hwnd.
func (a *API) UnregisterHotKey(hwnd HWND, id int) error {
	r, _, err := procUnregisterHotKey.Call(uintptr(hwnd), uintptr(id))
	if r == 0 {
		return callFailed("UnregisterHotKey", err)
	}
	return nil
}

// ProcessName returns the executable name of the process owning hwnd.
func (a *API) ProcessName(hwnd HWND) (string, error) {
	if hwnd == 0 {
		return "", ErrNoWindow
	}
	var pid uint32
	procGetWindowThreadProcessId.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return "", fmt.Errorf("GetWindowThreadProcessId returned no process")
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", fmt.Errorf("open process %d: %w", pid, err)
	}
	return p.Name()
}

// FindWindow looks up a top-level window by its exact title.
func (a *API) FindWindow(title string) (HWND, error) {
	ptr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, err
	}
	hwnd, _, callErr := procFindWindowW.Call(0, uintptr(unsafe.Pointer(ptr)))
	if hwnd == 0 {
		return 0, callFailed("FindWindowW", callErr)
	}
	return HWND(hwnd), nil
}

func (a *API) show(hwnd HWND, cmd uintptr) {
	if hwnd == 0 {
		return
	}
	procShowWindow.Call(uintptr(hwnd), cmd)
}

// Show makes hwnd visible, restores it if minimized and brings it forward.
func (a *API) Show(hwnd HWND) {
	a.show(hwnd, swShow)
	if a.IsMinimized(hwnd) {
		a.show(hwnd, swRestore)
	}
	procSetForegroundWindow.Call(uintptr(hwnd))
}

// Hide hides hwnd.
func (a *API) Hide(hwnd HWND) { a.show(hwnd, swHide) }

// Minimize minimizes hwnd.
func (a *API) Minimize(hwnd HWND) { a.show(hwnd, swMinimize) }

// Maximize maximizes hwnd.
func (a *API) Maximize(hwnd HWND) { a.show(hwnd, swMaximize) }

// Restore returns hwnd to its normal placement.
func (a *API) Restore(hwnd HWND) { a.show(hwnd, swRestore) }

// IsVisible reports whether hwnd has the visible style.
func (a *API) IsVisible(hwnd HWND) bool {
	if hwnd == 0 {
		return false
	}
	r, _, _ := procIsWindowVisible.Call(uintptr(hwnd))
	return r != 0
}

// IsMaximized reports whether hwnd is maximized.
func (a *API) IsMaximized(hwnd HWND) bool {
	if hwnd == 0 {
		return false
	}
	r, _, _ := procIsZoomed.Call(uintptr(hwnd))
	return r != 0
}

// IsMinimized reports whether hwnd is minimized.
func (a *API) IsMinimized(hwnd HWND) bool {
	if hwnd == 0 {
		return false
	}
	r, _, _ := procIsIconic.Call(uintptr(hwnd))
	return r != 0
}

// SetBounds moves and resizes hwnd without changing z-order or activation.
func (a *API) SetBounds(hwnd HWND, r Rect) error {
	if hwnd == 0 {
		return ErrNoWindow
	}
	ok, _, err := procSetWindowPos.Call(uintptr(hwnd), 0,
		uintptr(r.Left), uintptr(r.Top), uintptr(r.Width()), uintptr(r.Height()),
		swpNoZOrder|swpNoActivate)
	if ok == 0 {
		return callFailed("SetWindowPos", err)
	}
	return nil
}

// NormalBounds returns the restored (non-maximized) bounds of hwnd.
func (a *API) NormalBounds(hwnd HWND) (Rect, error) {
	if hwnd == 0 {
		return Rect{}, ErrNoWindow
	}
	wp := windowPlacement{Length: uint32(unsafe.Sizeof(windowPlacement{}))}
	r, _, err := procGetWindowPlacement.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&wp)))
	if r == 0 {
		return Rect{}, callFailed("GetWindowPlacement", err)
	}
	return wp.RcNormalPosition, nil
}
