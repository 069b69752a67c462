//go:build windows

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHookPost_DropsWorkWhenWindowIsGone(t *testing.T) {
	h := &Hook{hwnd: HWND(0xdead), logger: zap.NewNop()}

	ran := false
	h.Post(func() { ran = true })

	assert.Zero(t, h.Pending())
	h.drain()
	assert.False(t, ran)
}

func TestHookPost_AfterCloseIsDropped(t *testing.T) {
	h := &Hook{hwnd: HWND(0xdead), logger: zap.NewNop(), closed: true}

	h.Post(func() {})

	assert.Zero(t, h.Pending())
}
