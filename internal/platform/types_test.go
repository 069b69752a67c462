package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectSize(t *testing.T) {
	r := Rect{Left: -1920, Top: 0, Right: 0, Bottom: 1080}
	assert.Equal(t, int32(1920), r.Width())
	assert.Equal(t, int32(1080), r.Height())
}

func TestRectCovers(t *testing.T) {
	monitor := Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}

	tests := []struct {
		name   string
		window Rect
		want   bool
	}{
		{"exact", monitor, true},
		{"larger", Rect{Left: -8, Top: -8, Right: 1928, Bottom: 1088}, true},
		{"inset", Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1040}, false},
		{"other monitor", Rect{Left: 1920, Top: 0, Right: 3840, Bottom: 1080}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.window.Covers(monitor))
		})
	}
}
