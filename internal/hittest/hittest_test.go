package hittest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"notsobright/internal/config"
)

func TestResolve_EditModeEdgesAndCorners(t *testing.T) {
	router := NewRouter(6)
	size := Size{Width: 200, Height: 100}

	tests := []struct {
		point Point
		want  Region
	}{
		{Point{2, 2}, ResizeTopLeft},
		{Point{100, 2}, ResizeTop},
		{Point{198, 2}, ResizeTopRight},
		{Point{100, 50}, Client},
		{Point{198, 98}, ResizeBottomRight},
		{Point{2, 98}, ResizeBottomLeft},
		{Point{100, 98}, ResizeBottom},
		{Point{2, 50}, ResizeLeft},
		{Point{198, 50}, ResizeRight},
		{Point{6, 50}, ResizeLeft},
		{Point{7, 50}, Client},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			got := router.Resolve(Query{Mode: config.ModeEdit, Point: tt.point, Size: size})
			assert.Equal(t, tt.want, got, "point %+v", tt.point)
		})
	}
}

func TestResolve_PassiveModePanelCarveOut(t *testing.T) {
	router := NewRouter(DefaultBorder)
	panel := &Rect{X: 20, Y: 20, Width: 120, Height: 40}
	size := Size{Width: 400, Height: 300}

	inside := router.Resolve(Query{Mode: config.ModePassive, Point: Point{50, 30}, Size: size, Panel: panel})
	outside := router.Resolve(Query{Mode: config.ModePassive, Point: Point{300, 200}, Size: size, Panel: panel})
	noPanel := router.Resolve(Query{Mode: config.ModePassive, Point: Point{50, 30}, Size: size})

	assert.Equal(t, Client, inside)
	assert.Equal(t, TransparentPassthrough, outside)
	assert.Equal(t, TransparentPassthrough, noPanel)
}

func TestResolve_EditModePanelBeatsEdges(t *testing.T) {
	router := NewRouter(DefaultBorder)
	panel := &Rect{X: 0, Y: 0, Width: 100, Height: 30}

	got := router.Resolve(Query{Mode: config.ModeEdit, Point: Point{1, 1}, Size: Size{400, 300}, Panel: panel})

	assert.Equal(t, Client, got)
}

func TestResolve_MaximizedHasCaptionStripOnly(t *testing.T) {
	router := NewRouter(DefaultBorder)
	size := Size{Width: 1920, Height: 1080}

	assert.Equal(t, Caption, router.Resolve(Query{Mode: config.ModeEdit, Point: Point{0, 0}, Size: size, Maximized: true}))
	assert.Equal(t, Caption, router.Resolve(Query{Mode: config.ModeEdit, Point: Point{960, 6}, Size: size, Maximized: true}))
	assert.Equal(t, Client, router.Resolve(Query{Mode: config.ModeEdit, Point: Point{1919, 1079}, Size: size, Maximized: true}))
	assert.Equal(t, Client, router.Resolve(Query{Mode: config.ModeEdit, Point: Point{0, 500}, Size: size, Maximized: true}))
}

func TestResolve_TinyWindowNeverReportsOppositeEdges(t *testing.T) {
	router := NewRouter(20)
	size := Size{Width: 10, Height: 10}

	got := router.Resolve(Query{Mode: config.ModeEdit, Point: Point{5, 5}, Size: size})
	assert.Equal(t, Client, got)

	got = router.Resolve(Query{Mode: config.ModeEdit, Point: Point{0, 0}, Size: size})
	assert.Equal(t, ResizeTopLeft, got)
}

func TestNewRouter_DefaultsBorder(t *testing.T) {
	assert.Equal(t, float64(DefaultBorder), NewRouter(0).Border)
	assert.Equal(t, 10.0, NewRouter(10).Border)
}

func TestRegionCode(t *testing.T) {
	assert.Equal(t, int32(-1), TransparentPassthrough.Code())
	assert.Equal(t, int32(1), Client.Code())
	assert.Equal(t, int32(2), Caption.Code())
	assert.Equal(t, int32(13), ResizeTopLeft.Code())
	assert.Equal(t, int32(17), ResizeBottomRight.Code())
}

func TestScreenToWindow(t *testing.T) {
	got := ScreenToWindow(Point{X: 1300, Y: 450}, Point{X: 1000, Y: 300}, 1.5)
	assert.Equal(t, Point{X: 200, Y: 100}, got)

	got = ScreenToWindow(Point{X: 10, Y: 10}, Point{X: 0, Y: 0}, 0)
	assert.Equal(t, Point{X: 10, Y: 10}, got)
}

func TestPointFromLParam(t *testing.T) {
	// x = -5, y = 300 on a monitor left of the primary.
	lParam := uintptr(uint32(300)<<16 | uint32(uint16(0xFFFB)))
	assert.Equal(t, Point{X: -5, Y: 300}, PointFromLParam(lParam))
}
