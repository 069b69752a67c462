package fullscreen

import (
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"notsobright/internal/platform"
	"notsobright/internal/uithread"
)

func TestFullscreen(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Fullscreen Watchdog Suite")
}

// scriptedInspector reports whatever the test sets on it.
type scriptedInspector struct {
	fg         platform.HWND
	window     platform.Rect
	style      uint32
	rectErr    error
	monitorErr error
	styleErr   error
	panicNext  bool
}

func (p *scriptedInspector) setFullscreen(on bool) {
	p.fg = 7
	p.window = monitor
	if on {
		p.style = platform.WSPopup
	} else {
		p.style = platform.WSCaption
	}
}

func (p *scriptedInspector) ForegroundWindow() platform.HWND {
	if p.panicNext {
		p.panicNext = false
		panic("inspector exploded")
	}
	return p.fg
}

func (p *scriptedInspector) WindowRect(platform.HWND) (platform.Rect, error) {
	return p.window, p.rectErr
}

func (p *scriptedInspector) MonitorRect(platform.HWND) (platform.Rect, error) {
	return monitor, p.monitorErr
}

func (p *scriptedInspector) Style(platform.HWND) (uint32, error) {
	return p.style, p.styleErr
}

func (p *scriptedInspector) ProcessName(platform.HWND) (string, error) {
	return "game.exe", nil
}

var _ = Describe("Watchdog", func() {
	var (
		inspector *scriptedInspector
		visible   bool
		events    []string
		logs      *observer.ObservedLogs
		w         *Watchdog
	)

	BeforeEach(func() {
		inspector = &scriptedInspector{}
		visible = true
		events = nil
		var core zapcore.Core
		core, logs = observer.New(zapcore.InfoLevel)
		w = New(inspector, Callbacks{
			IsOverlayVisible: func() bool { return visible },
			OnBlocked:        func() { events = append(events, "blocked") },
			OnExited:         func() { events = append(events, "exited") },
		}, time.Second, zap.New(core))
	})

	feed := func(states ...bool) {
		for _, s := range states {
			inspector.setFullscreen(s)
			w.Check()
		}
	}

	Context("when the overlay stays visible", func() {
		It("fires blocked once and exited once for one fullscreen span", func() {
			feed(false, true, true, false)
			Expect(events).To(Equal([]string{"blocked", "exited"}))
		})

		It("notifies again for a second span", func() {
			feed(true, false, true, false)
			Expect(events).To(Equal([]string{"blocked", "exited", "blocked", "exited"}))
		})

		It("logs the foreground process on entry", func() {
			feed(true)
			entries := logs.FilterMessage("exclusive fullscreen detected").All()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("process", "game.exe"))
		})
	})

	Context("when the overlay is hidden at entry", func() {
		It("does not fire blocked but still fires exited", func() {
			visible = false
			feed(true)
			visible = true
			feed(true, false)
			Expect(events).To(Equal([]string{"exited"}))
		})
	})

	Context("when a tick fails", func() {
		It("keeps the pre-tick state and recovers", func() {
			feed(true)
			inspector.panicNext = true
			Expect(func() { w.Check() }).NotTo(Panic())
			Expect(w.Fullscreen()).To(BeTrue())

			feed(true, false)
			Expect(events).To(Equal([]string{"blocked", "exited"}))
			Expect(logs.FilterMessage("fullscreen check failed").Len()).To(Equal(1))
		})

		It("rolls back when a callback panics", func() {
			w.cb.OnBlocked = func() { panic("hide failed") }
			feed(true)
			Expect(w.Fullscreen()).To(BeFalse())
			Expect(w.notified).To(BeFalse())
		})
	})

	Context("when started on a dispatcher", func() {
		It("polls on the owning loop until stopped", func() {
			var blocked atomic.Int32
			loop := uithread.New(nil, 8)
			loop.Start()
			DeferCleanup(loop.Stop)

			inspector.setFullscreen(true)
			w = New(inspector, Callbacks{OnBlocked: func() { blocked.Add(1) }}, 10*time.Millisecond, nil)
			w.Start(loop)
			w.Start(loop)

			Eventually(blocked.Load).Should(Equal(int32(1)))
			w.Stop()
			w.Stop()
			Consistently(blocked.Load, 50*time.Millisecond).Should(Equal(int32(1)))
		})
	})
})
