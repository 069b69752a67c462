package platform

import (
	"context"
	"fmt"
	"time"
)

// WaitForWindow calls find until it yields a handle or ctx ends. The webview
// may still be creating its host window when the page loads.
func WaitForWindow(ctx context.Context, find func() (HWND, error), interval time.Duration) (HWND, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		hwnd, err := find()
		if err == nil && hwnd != 0 {
			return hwnd, nil
		}
		if err == nil {
			err = ErrNoWindow
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("%w (last lookup: %v)", ctx.Err(), lastErr)
		case <-ticker.C:
		}
	}
}
