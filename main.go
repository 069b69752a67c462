package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	wailswindows "github.com/wailsapp/wails/v2/pkg/options/windows"
	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"notsobright/internal/clickthrough"
	"notsobright/internal/config"
	"notsobright/internal/fullscreen"
	"notsobright/internal/hittest"
	"notsobright/internal/logging"
	"notsobright/internal/overlay"
	"notsobright/internal/platform"
	"notsobright/internal/uithread"
)

//go:embed all:frontend/dist
var assets embed.FS

const (
	windowTitle     = "NotSoBright"
	callTimeout     = 2 * time.Second
	shutdownTimeout = time.Second
)

var errNotReady = errors.New("overlay window is not ready")

type appOptions struct {
	configPath       string
	logLevel         string
	logDir           string
	console          bool
	minOpacity       float64
	maxOpacity       float64
	border           float64
	pollInterval     time.Duration
	saveDelay        time.Duration
	topmostInPassive bool
}

func (o appOptions) bounds() overlay.Bounds {
	return overlay.Bounds{Min: o.minOpacity, Max: o.maxOpacity}
}

var opts appOptions

var rootCmd = &cobra.Command{
	Use:          "notsobright",
	Short:        "Dim part of the screen with a translucent, click-through overlay",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(opts)
	},
}

func init() {
	defaults := overlay.DefaultBounds()
	f := rootCmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "config file (default <user config dir>/NotSoBright/config.json)")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.StringVar(&opts.logDir, "log-dir", "", "log directory (default <user config dir>/NotSoBright/logs)")
	f.BoolVar(&opts.console, "console", false, "also log to stderr")
	f.Float64Var(&opts.minOpacity, "min-opacity", defaults.Min, "lowest opacity percent")
	f.Float64Var(&opts.maxOpacity, "max-opacity", defaults.Max, "highest opacity percent")
	f.Float64Var(&opts.border, "border", hittest.DefaultBorder, "resize border width in device-independent pixels")
	f.DurationVar(&opts.pollInterval, "poll-interval", fullscreen.DefaultInterval, "fullscreen detection interval")
	f.DurationVar(&opts.saveDelay, "save-delay", overlay.DefaultSaveDelay, "quiet period before settings are written")
	f.BoolVar(&opts.topmostInPassive, "topmost-in-passive", clickthrough.DefaultPolicy().KeepTopmostInPassive, "keep the overlay above other windows in passive mode")
}

func run(o appOptions) error {
	if err := o.bounds().Validate(); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{Level: o.logLevel, Dir: o.logDir, Console: o.console})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer closeLog()

	path := o.configPath
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	configSvc, err := config.New(path, logger.Named("config"))
	if err != nil {
		logger.Error("failed to initialize config", zap.Error(err))
		return err
	}
	cfg, source := configSvc.LoadWithSource()
	logger.Info("config loaded",
		zap.String("path", configSvc.Path()),
		zap.Stringer("source", source),
		zap.Stringer("mode", cfg.Mode),
		zap.Float64("opacity", cfg.OpacityPercent))

	app := NewApp(o, configSvc, cfg, logger)

	err = wails.Run(&options.App{
		Title:     windowTitle,
		Width:     int(cfg.Width),
		Height:    int(cfg.Height),
		MinWidth:  config.MinWindowSize,
		MinHeight: config.MinWindowSize,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Frameless:        true,
		AlwaysOnTop:      true,
		BackgroundColour: &options.RGBA{R: 0, G: 0, B: 0, A: 0}, // Transparent
		Windows: &wailswindows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
		},
		OnStartup:  app.OnStartup,
		OnDomReady: app.OnDomReady,
		OnShutdown: app.OnShutdown,
		Bind:       []interface{}{app},
	})
	if err != nil {
		logger.Error("application exited with error", zap.Error(err))
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// App is the object bound to the front-end. Its exported methods may be called
// from any goroutine and marshal onto the overlay's owning thread.
type App struct {
	ctx    context.Context
	opts   appOptions
	config *config.Service
	cfg    config.Config
	logger *zap.Logger

	dispatcher uithread.Dispatcher
	overlay    *overlay.Controller
	watchdog   *fullscreen.Watchdog
	native     nativeHost

	attachOnce   sync.Once
	attachDone   chan struct{}
	cancelAttach context.CancelFunc
	attachCtx    context.Context
	ready        chan struct{}
	// running is only touched on the owning thread.
	running bool
}

// NewApp creates the application around a loaded configuration.
func NewApp(o appOptions, configSvc *config.Service, cfg config.Config, logger *zap.Logger) *App {
	attachCtx, cancel := context.WithCancel(context.Background())
	return &App{
		opts:         o,
		config:       configSvc,
		cfg:          cfg,
		logger:       logger,
		attachDone:   make(chan struct{}),
		cancelAttach: cancel,
		attachCtx:    attachCtx,
		ready:        make(chan struct{}),
	}
}

// OnStartup is called when the app starts up
func (a *App) OnStartup(ctx context.Context) {
	a.ctx = ctx
}

// OnDomReady starts attaching to the native window in the background. The
// window lookup may have to wait for the host window to appear.
func (a *App) OnDomReady(ctx context.Context) {
	a.attachOnce.Do(func() {
		go a.attach()
	})
}

func (a *App) attach() {
	defer close(a.attachDone)
	if err := a.attachWindow(a.attachCtx); err != nil {
		a.logger.Error("failed to attach to overlay window", zap.Error(err))
		return
	}
	close(a.ready)
	a.logger.Info("overlay started")
}

// wireOverlay builds the controller and watchdog around win and starts them
// on the dispatcher.
func (a *App) wireOverlay(win overlay.Window, styles clickthrough.StyleWindow, inspector fullscreen.Inspector) {
	policy := clickthrough.Policy{KeepTopmostInPassive: a.opts.topmostInPassive}
	ctrl := overlay.NewController(
		overlay.NewState(a.opts.bounds()),
		win,
		clickthrough.New(styles, policy, a.logger.Named("clickthrough")),
		a.config,
		eventNotifier{ctx: a.ctx},
		a.dispatcher,
		overlay.Options{SaveDelay: a.opts.saveDelay, Border: a.opts.border},
		a.logger.Named("overlay"),
	)
	a.config.OnSaveFailed(ctrl.SaveFailed)

	watchdog := fullscreen.New(inspector, fullscreen.Callbacks{
		IsOverlayVisible: ctrl.IsVisible,
		OnBlocked:        ctrl.FullscreenBlocked,
		OnExited:         ctrl.FullscreenExited,
	}, a.opts.pollInterval, a.logger.Named("fullscreen"))
	watchdog.Ignore(win.Handle())

	a.overlay = ctrl
	a.watchdog = watchdog

	cfg := a.cfg
	a.dispatcher.Post(func() {
		ctrl.Start(cfg)
		a.startNative(cfg)
		a.running = true
	})
	watchdog.Start(a.dispatcher)
}

// OnShutdown is called when the app is shutting down
func (a *App) OnShutdown(ctx context.Context) {
	a.cancelAttach()
	a.attachOnce.Do(func() { close(a.attachDone) })
	<-a.attachDone

	select {
	case <-a.ready:
	default:
		return
	}
	a.watchdog.Stop()

	callCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := uithread.Call(callCtx, a.dispatcher, a.finish); err != nil {
		a.logger.Debug("owning thread gone, finishing inline", zap.Error(err))
		a.finish()
	}
	a.detachWindow()
	a.logger.Info("overlay stopped")
}

func (a *App) finish() {
	a.stopNative()
	a.overlay.Shutdown()
}

// call runs fn against the controller on the owning thread.
func (a *App) call(fn func(c *overlay.Controller)) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	select {
	case <-a.ready:
	case <-ctx.Done():
		return errNotReady
	}
	if err := uithread.Call(ctx, a.dispatcher, func() { fn(a.overlay) }); err != nil {
		a.logger.Warn("overlay call timed out", zap.Error(err))
		return err
	}
	return nil
}

// GetState returns the current overlay state.
func (a *App) GetState() (overlay.View, error) {
	var v overlay.View
	err := a.call(func(c *overlay.Controller) { v = c.View() })
	return v, err
}

// ToggleVisibility hides or shows the overlay.
func (a *App) ToggleVisibility() error {
	return a.call(func(c *overlay.Controller) { c.ToggleVisibility() })
}

// ShowOverlay shows and restores the overlay.
func (a *App) ShowOverlay() error {
	return a.call(func(c *overlay.Controller) { c.ShowOverlay() })
}

// ToggleMode switches between Edit and Passive mode.
func (a *App) ToggleMode() error {
	return a.call(func(c *overlay.Controller) { c.ToggleMode() })
}

// IncreaseOpacity raises opacity by one percent.
func (a *App) IncreaseOpacity() error {
	return a.call(func(c *overlay.Controller) { c.IncreaseOpacity() })
}

// DecreaseOpacity lowers opacity by one percent.
func (a *App) DecreaseOpacity() error {
	return a.call(func(c *overlay.Controller) { c.DecreaseOpacity() })
}

// SetOpacity sets opacity in percent.
func (a *App) SetOpacity(percent float64) error {
	return a.call(func(c *overlay.Controller) { c.SetOpacity(percent) })
}

// ApplyOpacityText commits the opacity text box. It reports whether the text
// was accepted.
func (a *App) ApplyOpacityText(text string) (bool, error) {
	var ok bool
	err := a.call(func(c *overlay.Controller) { ok = c.ApplyOpacityText(text) })
	return ok, err
}

// WheelOpacity applies a mouse-wheel delta over the overlay.
func (a *App) WheelOpacity(delta int) error {
	return a.call(func(c *overlay.Controller) { c.WheelOpacity(delta) })
}

// SetTintColor sets the tint colour from a hex string.
func (a *App) SetTintColor(hex string) error {
	return a.call(func(c *overlay.Controller) { c.SetTintColor(hex) })
}

// Monitors lists the available monitors.
func (a *App) Monitors() ([]platform.Rect, error) {
	var (
		monitors []platform.Rect
		listErr  error
	)
	err := a.call(func(c *overlay.Controller) { monitors, listErr = c.Monitors() })
	if err != nil {
		return nil, err
	}
	return monitors, listErr
}

// CoverMonitor stretches the overlay over monitor index.
func (a *App) CoverMonitor(index int) (bool, error) {
	var ok bool
	err := a.call(func(c *overlay.Controller) { ok = c.CoverMonitor(index) })
	return ok, err
}

// ToggleControlPanel opens or closes the control panel.
func (a *App) ToggleControlPanel() error {
	return a.call(func(c *overlay.Controller) { c.ToggleControlPanel() })
}

// SetControlPanelBounds reports where the panel is drawn, in CSS pixels.
func (a *App) SetControlPanelBounds(x, y, width, height float64) error {
	r := &hittest.Rect{X: x, Y: y, Width: width, Height: height}
	return a.call(func(c *overlay.Controller) { c.SetControlPanelBounds(r) })
}

// ClearControlPanelBounds forgets the panel rectangle.
func (a *App) ClearControlPanelBounds() error {
	return a.call(func(c *overlay.Controller) { c.SetControlPanelBounds(nil) })
}

// Minimize minimizes the overlay.
func (a *App) Minimize() error {
	return a.call(func(c *overlay.Controller) { c.Minimize() })
}

// ToggleMaximize maximizes or restores the overlay.
func (a *App) ToggleMaximize() error {
	return a.call(func(c *overlay.Controller) { c.ToggleMaximize() })
}

// Quit closes the application.
func (a *App) Quit() {
	runtime.Quit(a.ctx)
}

// eventNotifier forwards controller events to the front-end.
type eventNotifier struct {
	ctx context.Context
}

func (n eventNotifier) Emit(event string, data ...any) {
	if n.ctx == nil {
		return
	}
	runtime.EventsEmit(n.ctx, event, data...)
}
