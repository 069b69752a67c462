//go:build !windows

package main

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"notsobright/internal/config"
	"notsobright/internal/platform"
	"notsobright/internal/uithread"
)

// nativeHost holds the owning loop used where no window procedure is
// available.
type nativeHost struct {
	loop *uithread.Loop
}

// runtimeWindow adapts the webview runtime to overlay.Window. Native handles
// are unavailable, so styles and fullscreen detection are inert.
type runtimeWindow struct {
	ctx     context.Context
	visible bool
}

func (w *runtimeWindow) Handle() platform.HWND      { return 0 }
func (w *runtimeWindow) PopupHandle() platform.HWND { return 0 }

func (w *runtimeWindow) Show() {
	runtime.WindowShow(w.ctx)
	runtime.WindowUnminimise(w.ctx)
	w.visible = true
}

func (w *runtimeWindow) Hide() {
	runtime.WindowHide(w.ctx)
	w.visible = false
}

func (w *runtimeWindow) IsVisible() bool   { return w.visible }
func (w *runtimeWindow) Minimize()         { runtime.WindowMinimise(w.ctx) }
func (w *runtimeWindow) Maximize()         { runtime.WindowMaximise(w.ctx) }
func (w *runtimeWindow) Restore()          { runtime.WindowUnmaximise(w.ctx) }
func (w *runtimeWindow) IsMaximized() bool { return runtime.WindowIsMaximised(w.ctx) }
func (w *runtimeWindow) IsMinimized() bool { return runtime.WindowIsMinimised(w.ctx) }
func (w *runtimeWindow) DPIScale() float64 { return 1 }

func (w *runtimeWindow) Bounds() (platform.Rect, error) {
	x, y := runtime.WindowGetPosition(w.ctx)
	width, height := runtime.WindowGetSize(w.ctx)
	return platform.Rect{
		Left:   int32(x),
		Top:    int32(y),
		Right:  int32(x + width),
		Bottom: int32(y + height),
	}, nil
}

func (w *runtimeWindow) NormalBounds() (platform.Rect, error) { return w.Bounds() }

func (w *runtimeWindow) SetBounds(r platform.Rect) error {
	runtime.WindowSetPosition(w.ctx, int(r.Left), int(r.Top))
	runtime.WindowSetSize(w.ctx, int(r.Width()), int(r.Height()))
	return nil
}

// Monitors reports each screen at the origin; the runtime does not expose
// screen positions.
func (w *runtimeWindow) Monitors() ([]platform.Rect, error) {
	screens, err := runtime.ScreenGetAll(w.ctx)
	if err != nil {
		return nil, err
	}
	rects := make([]platform.Rect, 0, len(screens))
	for _, s := range screens {
		rects = append(rects, platform.Rect{
			Right:  int32(s.PhysicalSize.Width),
			Bottom: int32(s.PhysicalSize.Height),
		})
	}
	return rects, nil
}

func (a *App) attachWindow(context.Context) error {
	loop := uithread.New(a.logger.Named("loop"), 0)
	loop.Start()
	a.native = nativeHost{loop: loop}
	a.dispatcher = loop

	api := platform.New()
	a.wireOverlay(&runtimeWindow{ctx: a.ctx, visible: true}, api, api)
	return nil
}

func (a *App) startNative(config.Config) {
	a.logger.Info("global hotkeys are not available on this platform")
}

func (a *App) stopNative() {}

func (a *App) detachWindow() {
	if a.native.loop != nil {
		a.native.loop.Stop()
	}
}
