//go:build integration

package integration

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/screenveil/screenveil/internal/config"
	"github.com/screenveil/screenveil/internal/domain"
	"github.com/screenveil/screenveil/internal/engine"
	"github.com/screenveil/screenveil/internal/monitor"
	"github.com/screenveil/screenveil/internal/shield"
)

// captureRenderer records the visual state per surface.
type captureRenderer struct {
	mu      sync.Mutex
	visible map[string]domain.ResolvedAction
}

func newCaptureRenderer() *captureRenderer {
	return &captureRenderer{visible: make(map[string]domain.ResolvedAction)}
}

func (r *captureRenderer) Show(surfaceKey string, action domain.ResolvedAction) {
	r.mu.Lock()
	r.visible[surfaceKey] = action
	r.mu.Unlock()
}

func (r *captureRenderer) Hide(surfaceKey string) {
	r.mu.Lock()
	delete(r.visible, surfaceKey)
	r.mu.Unlock()
}

func (r *captureRenderer) actionFor(surface string) (domain.ResolvedAction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	action, ok := r.visible[surface]
	return action, ok
}

var _ = Describe("Capture Protection", func() {
	var (
		mon      *monitor.Monitor
		runtime  *config.Runtime
		eng      *engine.Engine
		renderer *captureRenderer
		coord    *shield.Coordinator
	)

	BeforeEach(func() {
		settings := config.Default()
		settings.ScreenshotResetWindow = config.Duration(60 * time.Millisecond)
		settings.FlashDuration = config.Duration(40 * time.Millisecond)

		mon = monitor.New(monitor.Config{
			ScreenshotResetWindow: settings.ScreenshotResetWindow.Std(),
		}, zap.NewNop())
		runtime = config.NewRuntime(settings)
		eng = engine.New(mon, runtime, zap.NewNop())
		renderer = newCaptureRenderer()
		coord = shield.NewCoordinator(mon, eng, renderer, runtime, zap.NewNop())
		coord.Start()
	})

	AfterEach(func() {
		coord.Stop()
		mon.Shutdown()
	})

	Describe("recording lifecycle", func() {
		Context("when a recording starts and stops", func() {
			It("should cover registered surfaces for the duration", func() {
				coord.SurfaceConnected("main")

				mon.SetCaptureActive(true)
				action, visible := renderer.actionFor("main")
				Expect(visible).To(BeTrue())
				Expect(action.Kind).To(Equal(domain.ActionObscure))

				mon.SetCaptureActive(false)
				_, visible = renderer.actionFor("main")
				Expect(visible).To(BeFalse())
			})
		})

		Context("when a surface connects mid-recording", func() {
			It("should cover it immediately", func() {
				mon.SetCaptureActive(true)
				coord.SurfaceConnected("late")

				_, visible := renderer.actionFor("late")
				Expect(visible).To(BeTrue())
			})
		})
	})

	Describe("screenshot window", func() {
		Context("when a screenshot arrives while idle", func() {
			It("should flash a blackout and auto-hide", func() {
				coord.SurfaceConnected("main")

				mon.NoteScreenshot()
				action, visible := renderer.actionFor("main")
				Expect(visible).To(BeTrue())
				Expect(action.Style.Kind).To(Equal(domain.ObscureBlackout))

				Eventually(func() bool {
					_, visible := renderer.actionFor("main")
					return visible
				}, time.Second, 5*time.Millisecond).Should(BeFalse())

				Eventually(mon.State, time.Second, 5*time.Millisecond).
					Should(Equal(domain.StateIdle))
			})
		})

		Context("when screenshots arrive back to back during a recording", func() {
			It("should keep the screenshot state alive without an intermediate revert", func() {
				mon.SetCaptureActive(true)
				mon.NoteScreenshot()
				Expect(mon.State()).To(Equal(domain.StateScreenshotTaken))

				time.Sleep(40 * time.Millisecond)
				mon.NoteScreenshot()

				Consistently(mon.State, 40*time.Millisecond, 5*time.Millisecond).
					Should(Equal(domain.StateScreenshotTaken))

				Eventually(mon.State, time.Second, 5*time.Millisecond).
					Should(Equal(domain.StateRecording))
			})
		})

		Context("when the capture flag drops while a screenshot is pending", func() {
			It("should resolve to idle at fire time", func() {
				mon.SetCaptureActive(true)
				mon.NoteScreenshot()
				mon.SetCaptureActive(false)

				Eventually(mon.State, time.Second, 5*time.Millisecond).
					Should(Equal(domain.StateIdle))
			})
		})
	})

	Describe("administrative changes", func() {
		Context("when the kill switch is flipped mid-recording", func() {
			It("should hide and re-show shields without a monitor transition", func() {
				coord.SurfaceConnected("main")
				mon.SetCaptureActive(true)

				runtime.SetEnabled(false)
				_, visible := renderer.actionFor("main")
				Expect(visible).To(BeFalse())

				runtime.SetEnabled(true)
				_, visible = renderer.actionFor("main")
				Expect(visible).To(BeTrue())
			})
		})

		Context("when the default policy changes mid-recording", func() {
			It("should replace the cover content", func() {
				coord.SurfaceConnected("main")
				mon.SetCaptureActive(true)

				runtime.SetDefaultPolicy(config.PolicySettings{
					Kind:        "block",
					BlockReason: "recording in progress",
				})

				action, visible := renderer.actionFor("main")
				Expect(visible).To(BeTrue())
				Expect(action.Kind).To(Equal(domain.ActionBlock))
				Expect(action.Reason).To(Equal("recording in progress"))
			})
		})
	})
})
