// Package hittest classifies points on the borderless overlay window into
// drag, resize, client and pass-through regions, replacing the native frame.
package hittest

import (
	"math"

	"notsobright/internal/config"
)

// DefaultBorder is the resize-grip thickness in window units.
const DefaultBorder = 6

// Region is the answer to a non-client hit-test query.
type Region int

const (
	Client Region = iota
	Caption
	TransparentPassthrough
	ResizeTop
	ResizeBottom
	ResizeLeft
	ResizeRight
	ResizeTopLeft
	ResizeTopRight
	ResizeBottomLeft
	ResizeBottomRight
)

var regionNames = map[Region]string{
	Client:                 "Client",
	Caption:                "Caption",
	TransparentPassthrough: "TransparentPassthrough",
	ResizeTop:              "ResizeTop",
	ResizeBottom:           "ResizeBottom",
	ResizeLeft:             "ResizeLeft",
	ResizeRight:            "ResizeRight",
	ResizeTopLeft:          "ResizeTopLeft",
	ResizeTopRight:         "ResizeTopRight",
	ResizeBottomLeft:       "ResizeBottomLeft",
	ResizeBottomRight:      "ResizeBottomRight",
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return "Unknown"
}

// Code returns the WM_NCHITTEST result (HT*) for r.
func (r Region) Code() int32 {
	switch r {
	case Caption:
		return 2 // HTCAPTION
	case TransparentPassthrough:
		return -1 // HTTRANSPARENT
	case ResizeLeft:
		return 10
	case ResizeRight:
		return 11
	case ResizeTop:
		return 12
	case ResizeTopLeft:
		return 13
	case ResizeTopRight:
		return 14
	case ResizeBottom:
		return 15
	case ResizeBottomLeft:
		return 16
	case ResizeBottomRight:
		return 17
	default:
		return 1 // HTCLIENT
	}
}

// Point is a position in window-relative device-independent units.
type Point struct {
	X, Y float64
}

// Size is a window size in device-independent units.
type Size struct {
	Width, Height float64
}

// Rect is an axis-aligned rectangle relative to the window.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether p lies in r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Query describes one hit-test.
type Query struct {
	Mode      config.Mode
	Point     Point
	Size      Size
	Maximized bool
	// Panel is the control panel's bounds, or nil when it is closed.
	Panel *Rect
}

// Router resolves hit-test queries.
type Router struct {
	Border float64
}

// NewRouter returns a router with the given grip thickness; values <= 0 use
// DefaultBorder.
func NewRouter(border float64) *Router {
	if border <= 0 || math.IsNaN(border) {
		border = DefaultBorder
	}
	return &Router{Border: border}
}

// Resolve classifies q.Point.
func (r *Router) Resolve(q Query) Region {
	if q.Panel != nil && q.Panel.Contains(q.Point) {
		return Client
	}
	if q.Mode == config.ModePassive {
		return TransparentPassthrough
	}

	border := r.effectiveBorder(q.Size)

	if q.Maximized {
		if q.Point.Y <= border {
			return Caption
		}
		return Client
	}

	left := q.Point.X <= border
	right := q.Point.X >= q.Size.Width-border
	top := q.Point.Y <= border
	bottom := q.Point.Y >= q.Size.Height-border

	switch {
	case top && left:
		return ResizeTopLeft
	case top && right:
		return ResizeTopRight
	case bottom && left:
		return ResizeBottomLeft
	case bottom && right:
		return ResizeBottomRight
	case top:
		return ResizeTop
	case bottom:
		return ResizeBottom
	case left:
		return ResizeLeft
	case right:
		return ResizeRight
	}
	return Client
}

// effectiveBorder keeps opposite grips from meeting on tiny windows.
func (r *Router) effectiveBorder(size Size) float64 {
	border := r.Border
	limit := math.Min(size.Width, size.Height) / 2
	if limit > 0 && border >= limit {
		border = math.Max(limit-1, 0)
	}
	return border
}

// ScreenToWindow converts a physical screen pixel to window-relative
// device-independent units. origin is the window's top-left in physical
// pixels and scale its DPI ratio (1.0 at 96 DPI).
func ScreenToWindow(screen, origin Point, scale float64) Point {
	if scale <= 0 || math.IsNaN(scale) {
		scale = 1
	}
	return Point{
		X: (screen.X - origin.X) / scale,
		Y: (screen.Y - origin.Y) / scale,
	}
}

// PointFromLParam decodes the signed screen coordinates packed into a
// mouse message's lParam.
func PointFromLParam(lParam uintptr) Point {
	x := int16(uint16(lParam & 0xFFFF))
	y := int16(uint16((lParam >> 16) & 0xFFFF))
	return Point{X: float64(x), Y: float64(y)}
}
