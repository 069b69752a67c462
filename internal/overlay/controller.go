package overlay

import (
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"notsobright/internal/config"
	"notsobright/internal/hittest"
	"notsobright/internal/hotkey"
	"notsobright/internal/placement"
	"notsobright/internal/platform"
	"notsobright/internal/uithread"
)

// DefaultSaveDelay is the quiet period before a change is written to disk.
const DefaultSaveDelay = 500 * time.Millisecond

// Front-end event names.
const (
	EventState             = "overlay:state"
	EventFullscreenBlocked = "fullscreen:blocked"
	EventSaveFailed        = "config:save-failed"
)

// Window is the overlay window as seen by the controller.
type Window interface {
	Handle() platform.HWND
	// PopupHandle is the separate control-panel window, or 0 when the panel
	// is drawn inside the overlay.
	PopupHandle() platform.HWND
	Show()
	Hide()
	IsVisible() bool
	Minimize()
	Maximize()
	Restore()
	IsMaximized() bool
	IsMinimized() bool
	Bounds() (platform.Rect, error)
	NormalBounds() (platform.Rect, error)
	SetBounds(r platform.Rect) error
	Monitors() ([]platform.Rect, error)
	DPIScale() float64
}

// StyleApplier re-applies click-through styles for a mode.
type StyleApplier interface {
	Apply(mode config.Mode, main, popup platform.HWND) error
}

// Store persists configuration.
type Store interface {
	Save(cfg config.Config) error
}

// Notifier publishes events to the presentation layer.
type Notifier interface {
	Emit(event string, data ...any)
}

// Options tune the controller.
type Options struct {
	SaveDelay time.Duration
	Border    float64
}

// View is the full overlay state as published to the front-end.
type View struct {
	Snapshot
	PanelOpen bool `json:"panelOpen"`
	Maximized bool `json:"maximized"`
	Visible   bool `json:"visible"`
}

// Controller glues the view-model to the window: it re-applies styles on mode
// changes, debounces saves and implements the user-facing operations. All
// methods must run on the dispatcher's thread.
type Controller struct {
	state    *State
	win      Window
	styles   StyleApplier
	store    Store
	notifier Notifier
	d        uithread.Dispatcher
	router   *hittest.Router
	logger   *zap.Logger

	debounced func(func())
	cfg       config.Config

	panelOpen           bool
	panelBounds         *hittest.Rect
	hiddenForFullscreen bool
	applying            bool
	closed              bool
}

// NewController wires state to win. notifier may be nil.
func NewController(
	state *State,
	win Window,
	styles StyleApplier,
	store Store,
	notifier Notifier,
	d uithread.Dispatcher,
	opts Options,
	logger *zap.Logger,
) *Controller {
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		state:     state,
		win:       win,
		styles:    styles,
		store:     store,
		notifier:  notifier,
		d:         d,
		router:    hittest.NewRouter(opts.Border),
		logger:    logger,
		debounced: debounce.New(opts.SaveDelay),
		cfg:       config.Default(),
		panelOpen: state.IsEditMode(),
	}
	state.Subscribe(c.onStateChange)
	return c
}

// State returns the view-model.
func (c *Controller) State() *State { return c.state }

func (c *Controller) onStateChange(change Change) {
	if change.Has(ChangeMode) {
		c.applyStyles()
		c.panelOpen = c.state.IsEditMode()
	}
	if change.Persisted() && !c.applying {
		c.scheduleSave()
	}
	c.publish()
}

func (c *Controller) applyStyles() {
	if err := c.styles.Apply(c.state.Mode(), c.win.Handle(), c.win.PopupHandle()); err != nil {
		c.logger.Debug("style update incomplete", zap.Error(err))
	}
}

// View returns the current presentation state.
func (c *Controller) View() View {
	return View{
		Snapshot:  c.state.Snapshot(),
		PanelOpen: c.panelOpen,
		Maximized: c.win.IsMaximized(),
		Visible:   c.win.IsVisible(),
	}
}

func (c *Controller) publish() {
	if c.notifier != nil {
		c.notifier.Emit(EventState, c.View())
	}
}

// Start applies cfg to the state and the window.
func (c *Controller) Start(cfg config.Config) {
	c.ApplyConfig(cfg)
}

// ApplyConfig restores a persisted configuration without scheduling a save.
func (c *Controller) ApplyConfig(cfg config.Config) {
	c.cfg = cfg
	c.applying = true
	c.state.SetOpacity(cfg.OpacityPercent)
	c.state.SetTintColor(cfg.TintColor)
	c.state.SetMode(cfg.Mode)
	c.applying = false

	c.restoreBounds(cfg)
	c.applyStyles()
	c.panelOpen = c.state.IsEditMode()
	c.publish()
}

func (c *Controller) restoreBounds(cfg config.Config) {
	current, err := c.win.Bounds()
	if err != nil {
		c.logger.Debug("window bounds unavailable, keeping placement", zap.Error(err))
		return
	}
	left, top := current.Left, current.Top
	if cfg.Left.IsSet() {
		left = int32(cfg.Left)
	}
	if cfg.Top.IsSet() {
		top = int32(cfg.Top)
	}
	r := platform.Rect{
		Left:   left,
		Top:    top,
		Right:  left + int32(cfg.Width),
		Bottom: top + int32(cfg.Height),
	}
	r = placement.EnsureMinSize(r, config.MinWindowSize)
	if err := c.win.SetBounds(r); err != nil {
		c.logger.Warn("failed to restore window bounds", zap.Error(err))
	}
}

func (c *Controller) scheduleSave() {
	if c.closed {
		return
	}
	c.debounced(func() {
		c.d.Post(c.saveNow)
	})
}

// saveNow writes the current state. Failures are reported by the store.
func (c *Controller) saveNow() {
	if c.closed {
		return
	}
	c.store.Save(c.snapshotConfig())
}

func (c *Controller) snapshotConfig() config.Config {
	c.rememberBounds()
	c.cfg.OpacityPercent = c.state.Opacity()
	c.cfg.TintColor = c.state.TintColor()
	c.cfg.Mode = c.state.Mode()
	return c.cfg
}

// rememberBounds records the restored window geometry so a save still has
// it once the window is gone.
func (c *Controller) rememberBounds() {
	var (
		bounds platform.Rect
		err    error
	)
	if c.win.IsMaximized() || c.win.IsMinimized() {
		bounds, err = c.win.NormalBounds()
	} else {
		bounds, err = c.win.Bounds()
	}
	if err != nil || bounds.Width() <= 0 || bounds.Height() <= 0 {
		return
	}
	c.cfg.Left = config.Coord(bounds.Left)
	c.cfg.Top = config.Coord(bounds.Top)
	c.cfg.Width = float64(bounds.Width())
	c.cfg.Height = float64(bounds.Height())
}

// SaveFailed forwards a store failure to the front-end.
func (c *Controller) SaveFailed(err error) {
	if c.notifier != nil {
		c.notifier.Emit(EventSaveFailed, err.Error())
	}
}

// Shutdown drops any pending save and writes the final state immediately.
func (c *Controller) Shutdown() {
	if c.closed {
		return
	}
	c.debounced(func() {})
	c.saveNow()
	c.closed = true
}

// IsVisible reports whether the overlay window is shown.
func (c *Controller) IsVisible() bool {
	return c.win.IsVisible()
}

// ToggleVisibility hides a visible overlay and shows a hidden one.
func (c *Controller) ToggleVisibility() {
	if c.win.IsVisible() {
		c.hiddenForFullscreen = false
		c.win.Hide()
		c.publish()
		return
	}
	c.ShowOverlay()
}

// ShowOverlay shows, restores and re-asserts the overlay's styles.
func (c *Controller) ShowOverlay() {
	c.hiddenForFullscreen = false
	c.win.Show()
	c.applyStyles()
	c.publish()
}

// ToggleMode flips between Edit and Passive.
func (c *Controller) ToggleMode() { c.state.ToggleMode() }

// IncreaseOpacity raises opacity by one percent.
func (c *Controller) IncreaseOpacity() { c.state.AdjustOpacity(1) }

// DecreaseOpacity lowers opacity by one percent.
func (c *Controller) DecreaseOpacity() { c.state.AdjustOpacity(-1) }

// SetOpacity sets opacity in percent, clamped to the configured range.
func (c *Controller) SetOpacity(percent float64) { c.state.SetOpacity(percent) }

// SetTintColor sets the tint; invalid colours become black.
func (c *Controller) SetTintColor(hex string) { c.state.SetTintColor(hex) }

// ApplyOpacityText commits text typed into the opacity box.
func (c *Controller) ApplyOpacityText(text string) bool {
	ok := c.state.ApplyOpacityText(text)
	if !ok {
		c.publish()
	}
	return ok
}

// WheelOpacity applies a mouse-wheel delta.
func (c *Controller) WheelOpacity(delta int) { c.state.WheelOpacity(delta) }

// Monitors lists the monitor rectangles CoverMonitor indexes into.
func (c *Controller) Monitors() ([]platform.Rect, error) { return c.win.Monitors() }

// CoverMonitor resizes the overlay to exactly cover monitor index. It
// reports false for an unknown index.
func (c *Controller) CoverMonitor(index int) bool {
	monitors, err := c.win.Monitors()
	if err != nil {
		c.logger.Warn("failed to enumerate monitors", zap.Error(err))
		return false
	}
	r, ok := placement.Cover(monitors, index)
	if !ok {
		return false
	}
	if c.win.IsMaximized() {
		c.win.Restore()
	}
	if err := c.win.SetBounds(r); err != nil {
		c.logger.Warn("failed to cover monitor", zap.Int("monitor", index), zap.Error(err))
		return false
	}
	c.rememberBounds()
	c.scheduleSave()
	c.publish()
	return true
}

// ToggleControlPanel opens or closes the control panel. Without a separate
// panel window the panel shares the overlay's click-through style, so opening
// it in Passive mode switches to Edit instead.
func (c *Controller) ToggleControlPanel() {
	if !c.panelOpen && !c.state.IsEditMode() && c.win.PopupHandle() == 0 {
		c.logger.Debug("panel requested in passive mode, switching to edit")
		c.state.SetMode(config.ModeEdit)
		return
	}
	c.panelOpen = !c.panelOpen
	c.applyStyles()
	c.publish()
}

// SetControlPanelBounds records the panel's layout rectangle, relative to
// the window in device-independent pixels. nil clears it.
func (c *Controller) SetControlPanelBounds(r *hittest.Rect) {
	if r == nil {
		c.panelBounds = nil
		return
	}
	cp := *r
	c.panelBounds = &cp
}

// Minimize minimizes the overlay.
func (c *Controller) Minimize() { c.win.Minimize() }

// ToggleMaximize maximizes or restores the overlay.
func (c *Controller) ToggleMaximize() {
	if c.win.IsMaximized() {
		c.win.Restore()
	} else {
		c.win.Maximize()
	}
	c.scheduleSave()
	c.publish()
}

// HitTest classifies a screen point for WM_NCHITTEST. ok is false when the
// window geometry is unavailable and the default handling should apply.
func (c *Controller) HitTest(screen hittest.Point) (region hittest.Region, ok bool) {
	bounds, err := c.win.Bounds()
	if err != nil {
		return hittest.Client, false
	}
	scale := c.win.DPIScale()
	origin := hittest.Point{X: float64(bounds.Left), Y: float64(bounds.Top)}

	q := hittest.Query{
		Mode:      c.state.Mode(),
		Point:     hittest.ScreenToWindow(screen, origin, scale),
		Size:      hittest.Size{Width: float64(bounds.Width()) / scale, Height: float64(bounds.Height()) / scale},
		Maximized: c.win.IsMaximized(),
	}
	if c.panelOpen && c.panelBounds != nil {
		q.Panel = c.panelBounds
	}
	return c.router.Resolve(q), true
}

// HandleHotkey runs the operation bound to action.
func (c *Controller) HandleHotkey(action hotkey.Action) {
	switch action {
	case hotkey.ToggleVisibility:
		c.ToggleVisibility()
	case hotkey.IncreaseOpacity:
		c.IncreaseOpacity()
	case hotkey.DecreaseOpacity:
		c.DecreaseOpacity()
	case hotkey.ToggleMode:
		c.ToggleMode()
	case hotkey.ToggleControlPanel:
		c.ToggleControlPanel()
	default:
		c.logger.Debug("unhandled hotkey action", zap.String("action", string(action)))
	}
}

// FullscreenBlocked hides the overlay for an exclusive-fullscreen app.
func (c *Controller) FullscreenBlocked() {
	if c.notifier != nil {
		c.notifier.Emit(EventFullscreenBlocked)
	}
	if c.win.IsVisible() {
		c.hiddenForFullscreen = true
		c.win.Hide()
		c.publish()
	}
}

// FullscreenExited brings the overlay back if FullscreenBlocked hid it.
func (c *Controller) FullscreenExited() {
	if !c.hiddenForFullscreen {
		return
	}
	c.ShowOverlay()
}

// WindowMoved snaps the overlay to nearby monitor edges after a drag and
// schedules a save.
func (c *Controller) WindowMoved() {
	if !c.win.IsMaximized() {
		c.snapToEdges()
	}
	c.rememberBounds()
	c.scheduleSave()
}

func (c *Controller) snapToEdges() {
	bounds, err := c.win.Bounds()
	if err != nil {
		return
	}
	monitors, err := c.win.Monitors()
	if err != nil || len(monitors) == 0 {
		return
	}
	snapped := placement.Snap(bounds, monitors, placement.ScaledThreshold(c.win.DPIScale()))
	if snapped == bounds {
		return
	}
	if err := c.win.SetBounds(snapped); err != nil {
		c.logger.Debug("snap failed", zap.Error(err))
	}
}

// WindowResized schedules a save after a size or state change.
func (c *Controller) WindowResized() {
	c.rememberBounds()
	c.scheduleSave()
	c.publish()
}
