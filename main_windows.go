//go:build windows

package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"notsobright/internal/config"
	"notsobright/internal/hittest"
	"notsobright/internal/hotkey"
	"notsobright/internal/platform"
)

const (
	findTimeout  = 2 * time.Second
	findInterval = 100 * time.Millisecond
)

// nativeHost holds the Win32 pieces of the overlay.
type nativeHost struct {
	api     *platform.API
	hwnd    platform.HWND
	hook    *platform.Hook
	hotkeys *hotkey.Registry
}

// nativeWindow adapts the Win32 API to overlay.Window.
type nativeWindow struct {
	api  *platform.API
	hwnd platform.HWND
}

func (w *nativeWindow) Handle() platform.HWND                { return w.hwnd }
func (w *nativeWindow) PopupHandle() platform.HWND           { return 0 }
func (w *nativeWindow) Show()                                { w.api.Show(w.hwnd) }
func (w *nativeWindow) Hide()                                { w.api.Hide(w.hwnd) }
func (w *nativeWindow) IsVisible() bool                      { return w.api.IsVisible(w.hwnd) }
func (w *nativeWindow) Minimize()                            { w.api.Minimize(w.hwnd) }
func (w *nativeWindow) Maximize()                            { w.api.Maximize(w.hwnd) }
func (w *nativeWindow) Restore()                             { w.api.Restore(w.hwnd) }
func (w *nativeWindow) IsMaximized() bool                    { return w.api.IsMaximized(w.hwnd) }
func (w *nativeWindow) IsMinimized() bool                    { return w.api.IsMinimized(w.hwnd) }
func (w *nativeWindow) Bounds() (platform.Rect, error)       { return w.api.WindowRect(w.hwnd) }
func (w *nativeWindow) NormalBounds() (platform.Rect, error) { return w.api.NormalBounds(w.hwnd) }
func (w *nativeWindow) SetBounds(r platform.Rect) error      { return w.api.SetBounds(w.hwnd, r) }
func (w *nativeWindow) Monitors() ([]platform.Rect, error)   { return w.api.Monitors() }
func (w *nativeWindow) DPIScale() float64                    { return w.api.DPIScale(w.hwnd) }

// findOverlayWindow resolves the overlay's HWND by title.
func findOverlayWindow(ctx context.Context, api *platform.API) (platform.HWND, error) {
	ctx, cancel := context.WithTimeout(ctx, findTimeout)
	defer cancel()
	hwnd, err := platform.WaitForWindow(ctx, func() (platform.HWND, error) {
		return api.FindWindow(windowTitle)
	}, findInterval)
	if err != nil {
		return 0, fmt.Errorf("overlay window %q not found: %w", windowTitle, err)
	}
	return hwnd, nil
}

func (a *App) attachWindow(ctx context.Context) error {
	api := platform.New()
	hwnd, err := findOverlayWindow(ctx, api)
	if err != nil {
		return err
	}
	hook, err := api.Subclass(hwnd, a.handleMessage, a.logger.Named("wndproc"))
	if err != nil {
		return fmt.Errorf("failed to subclass overlay window: %w", err)
	}
	a.native = nativeHost{api: api, hwnd: hwnd, hook: hook}
	a.dispatcher = hook
	a.wireOverlay(&nativeWindow{api: api, hwnd: hwnd}, api, api)
	return nil
}

// startNative registers the global shortcuts. Runs on the window thread.
func (a *App) startNative(cfg config.Config) {
	registry := hotkey.NewRegistry(a.native.api, a.native.hwnd, a.overlay.HandleHotkey, a.logger.Named("hotkey"))
	failed := registry.RegisterAll(hotkey.ResolveBindings(cfg.Hotkeys, a.logger))
	a.native.hotkeys = registry
	a.logger.Info("hotkeys registered",
		zap.Int("registered", registry.Registered()),
		zap.Int("unavailable", len(failed)))
}

func (a *App) stopNative() {
	if a.native.hotkeys != nil {
		a.native.hotkeys.Release()
	}
}

func (a *App) detachWindow() {
	if a.native.hook == nil {
		return
	}
	if err := a.native.hook.Close(); err != nil {
		a.logger.Debug("failed to restore window procedure", zap.Error(err))
	}
}

// handleMessage runs inside the overlay's window procedure.
func (a *App) handleMessage(msg uint32, wParam, lParam uintptr) (uintptr, bool) {
	if !a.running {
		return 0, false
	}
	switch msg {
	case platform.WMNCHitTest:
		region, ok := a.overlay.HitTest(hittest.PointFromLParam(lParam))
		if !ok {
			return 0, false
		}
		code := region.Code()
		return uintptr(code), true
	case platform.WMHotkey:
		if a.native.hotkeys != nil && a.native.hotkeys.Dispatch(int(wParam)) {
			return 0, true
		}
	case platform.WMExitSizeMove:
		a.overlay.WindowMoved()
	case platform.WMSize:
		a.overlay.WindowResized()
	}
	return 0, false
}
