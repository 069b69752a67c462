// Package clickthrough is the single place that mutates the overlay's
// extended window style. Passive mode lets pointer input fall through the
// overlay body; the control-panel popup is kept interactive regardless.
package clickthrough

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"notsobright/internal/config"
	"notsobright/internal/platform"
)

// StyleWindow is the slice of the window API the controller needs.
type StyleWindow interface {
	ExStyle(hwnd platform.HWND) (uint32, error)
	SetExStyle(hwnd platform.HWND, style uint32) error
	SetTopmost(hwnd platform.HWND, topmost bool) error
}

// Policy tunes mode-dependent behaviour.
type Policy struct {
	// KeepTopmostInPassive keeps the overlay in the topmost band while it is
	// click-through.
	KeepTopmostInPassive bool
}

// DefaultPolicy keeps the overlay topmost in every mode.
func DefaultPolicy() Policy {
	return Policy{KeepTopmostInPassive: true}
}

// Controller applies interaction modes to window styles.
type Controller struct {
	win    StyleWindow
	policy Policy
	logger *zap.Logger
}

// New creates a controller.
func New(win StyleWindow, policy Policy, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{win: win, policy: policy, logger: logger}
}

// Apply sets the style bits of main for mode and forces popup (if non-zero)
// interactive and topmost. Errors are logged and returned joined; a failure
// on one window does not stop the other from being updated.
func (c *Controller) Apply(mode config.Mode, main, popup platform.HWND) error {
	var errs []error

	if main != 0 {
		passive := mode == config.ModePassive
		topmost := !passive || c.policy.KeepTopmostInPassive
		if err := c.update(main, passive, topmost); err != nil {
			c.logger.Warn("failed to apply overlay style",
				zap.Stringer("mode", mode), zap.Error(err))
			errs = append(errs, fmt.Errorf("overlay window: %w", err))
		}
	}

	if popup != 0 {
		if err := c.update(popup, false, true); err != nil {
			c.logger.Warn("failed to apply control panel style", zap.Error(err))
			errs = append(errs, fmt.Errorf("control panel: %w", err))
		}
	}

	return errors.Join(errs...)
}

// update performs one read-modify-write of hwnd's extended style and then
// moves it into or out of the topmost band.
func (c *Controller) update(hwnd platform.HWND, transparent, topmost bool) error {
	cur, err := c.win.ExStyle(hwnd)
	if err != nil {
		return err
	}

	next := cur | platform.WSExLayered
	if transparent {
		next |= platform.WSExTransparent
	} else {
		next &^= platform.WSExTransparent
	}

	if next != cur {
		if err := c.win.SetExStyle(hwnd, next); err != nil {
			return err
		}
	}

	// WS_EX_TOPMOST cannot be toggled through the style register.
	if (cur&platform.WSExTopmost != 0) != topmost {
		return c.win.SetTopmost(hwnd, topmost)
	}
	return nil
}
