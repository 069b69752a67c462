// Package placement computes overlay window geometry: monitor presets,
// edge snapping and the minimum size.
package placement

import (
	"math"

	"notsobright/internal/platform"
)

// SnapThreshold is the snapping distance in device-independent pixels.
const SnapThreshold = 20

// Cover returns the bounds of monitors[index], or false when the index is
// out of range.
func Cover(monitors []platform.Rect, index int) (platform.Rect, bool) {
	if index < 0 || index >= len(monitors) {
		return platform.Rect{}, false
	}
	return monitors[index], true
}

// Snap moves win onto any monitor edge it is within threshold physical pixels
// of. The window's size never changes. Horizontal and vertical edges snap
// independently; left/top edges take priority over right/bottom on the same
// monitor.
func Snap(win platform.Rect, monitors []platform.Rect, threshold int32) platform.Rect {
	w, h := win.Width(), win.Height()
	out := win

	for _, m := range monitors {
		switch {
		case abs(win.Left-m.Left) < threshold:
			out.Left = m.Left
		case abs(win.Right-m.Right) < threshold:
			out.Left = m.Right - w
		}
		switch {
		case abs(win.Top-m.Top) < threshold:
			out.Top = m.Top
		case abs(win.Bottom-m.Bottom) < threshold:
			out.Top = m.Bottom - h
		}
	}

	out.Right = out.Left + w
	out.Bottom = out.Top + h
	return out
}

// ScaledThreshold converts SnapThreshold to physical pixels at scale.
func ScaledThreshold(scale float64) int32 {
	if scale <= 0 || math.IsNaN(scale) {
		scale = 1
	}
	return int32(math.Round(SnapThreshold * scale))
}

// EnsureMinSize grows r from its top-left corner to at least min on each axis.
func EnsureMinSize(r platform.Rect, min int32) platform.Rect {
	if r.Width() < min {
		r.Right = r.Left + min
	}
	if r.Height() < min {
		r.Bottom = r.Top + min
	}
	return r
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
