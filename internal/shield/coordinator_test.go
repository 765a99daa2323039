package shield

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/screenveil/screenveil/internal/config"
	"github.com/screenveil/screenveil/internal/domain"
	"github.com/screenveil/screenveil/internal/engine"
	"github.com/screenveil/screenveil/internal/monitor"
)

// renderCall records one renderer invocation
type renderCall struct {
	surface string
	shown   bool
	action  domain.ResolvedAction
}

// mockRenderer implements domain.ShieldRenderer for testing
type mockRenderer struct {
	mu    sync.Mutex
	calls []renderCall
}

func (r *mockRenderer) Show(surfaceKey string, action domain.ResolvedAction) {
	r.mu.Lock()
	r.calls = append(r.calls, renderCall{surface: surfaceKey, shown: true, action: action})
	r.mu.Unlock()
}

func (r *mockRenderer) Hide(surfaceKey string) {
	r.mu.Lock()
	r.calls = append(r.calls, renderCall{surface: surfaceKey})
	r.mu.Unlock()
}

func (r *mockRenderer) snapshot() []renderCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]renderCall, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *mockRenderer) lastFor(surface string) (renderCall, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].surface == surface {
			return r.calls[i], true
		}
	}
	return renderCall{}, false
}

type fixture struct {
	mon      *monitor.Monitor
	runtime  *config.Runtime
	renderer *mockRenderer
	coord    *Coordinator
}

func newFixture(t *testing.T, settings config.Settings) *fixture {
	t.Helper()

	mon := monitor.New(monitor.Config{ScreenshotResetWindow: time.Hour}, zap.NewNop())
	t.Cleanup(mon.Shutdown)

	runtime := config.NewRuntime(settings)
	eng := engine.New(mon, runtime, zap.NewNop())
	renderer := &mockRenderer{}
	coord := NewCoordinator(mon, eng, renderer, runtime, zap.NewNop())
	coord.Start()
	t.Cleanup(coord.Stop)

	return &fixture{mon: mon, runtime: runtime, renderer: renderer, coord: coord}
}

func flashSettings(d time.Duration) config.Settings {
	s := config.Default()
	s.FlashDuration = config.Duration(d)
	return s
}

func TestSurfaceShownOnRecording(t *testing.T) {
	f := newFixture(t, config.Default())
	f.coord.SurfaceConnected("main")

	f.mon.SetCaptureActive(true)

	call, ok := f.renderer.lastFor("main")
	require.True(t, ok)
	assert.True(t, call.shown)
	assert.Equal(t, domain.ActionObscure, call.action.Kind)
}

func TestSurfacesHiddenOnIdle(t *testing.T) {
	f := newFixture(t, config.Default())
	f.coord.SurfaceConnected("main")
	f.coord.SurfaceConnected("external")

	f.mon.SetCaptureActive(true)
	f.mon.SetCaptureActive(false)

	for _, key := range []string{"main", "external"} {
		call, ok := f.renderer.lastFor(key)
		require.True(t, ok, key)
		assert.False(t, call.shown, key)
	}
}

// TestLateConnectHasNoProtectionGap: a surface connecting while the
// monitor is already recording must be covered immediately, not after
// the next transition.
func TestLateConnectHasNoProtectionGap(t *testing.T) {
	f := newFixture(t, config.Default())

	f.mon.SetCaptureActive(true)
	f.coord.SurfaceConnected("late")

	call, ok := f.renderer.lastFor("late")
	require.True(t, ok)
	assert.True(t, call.shown)
}

func TestKillSwitchPreventsShow(t *testing.T) {
	settings := config.Default()
	settings.Enabled = false

	f := newFixture(t, settings)
	f.coord.SurfaceConnected("main")

	f.mon.SetCaptureActive(true)

	_, ok := f.renderer.lastFor("main")
	assert.False(t, ok, "disabled protection must render nothing")
}

// TestConfigChangeRefreshesShields: flipping the kill switch at runtime
// re-evaluates without waiting for a monitor transition.
func TestConfigChangeRefreshesShields(t *testing.T) {
	settings := config.Default()
	settings.Enabled = false

	f := newFixture(t, settings)
	f.coord.SurfaceConnected("main")
	f.mon.SetCaptureActive(true)

	f.runtime.SetEnabled(true)

	call, ok := f.renderer.lastFor("main")
	require.True(t, ok)
	assert.True(t, call.shown)

	f.runtime.SetEnabled(false)
	call, ok = f.renderer.lastFor("main")
	require.True(t, ok)
	assert.False(t, call.shown)
}

// TestScreenshotFlashesHiddenSurfaces: the flash is informational (the
// screenshot already happened) and auto-hides after the delay.
func TestScreenshotFlashesHiddenSurfaces(t *testing.T) {
	f := newFixture(t, flashSettings(30*time.Millisecond))
	f.coord.SurfaceConnected("main")

	f.mon.NoteScreenshot()

	call, ok := f.renderer.lastFor("main")
	require.True(t, ok)
	assert.True(t, call.shown)
	assert.Equal(t, domain.ActionObscure, call.action.Kind)
	assert.Equal(t, domain.ObscureBlackout, call.action.Style.Kind)

	assert.Eventually(t, func() bool {
		call, ok := f.renderer.lastFor("main")
		return ok && !call.shown
	}, time.Second, 5*time.Millisecond)
}

// TestScreenshotLeavesShownSurfacesUntouched: handles already covered by
// an active recording are not flashed.
func TestScreenshotLeavesShownSurfacesUntouched(t *testing.T) {
	f := newFixture(t, flashSettings(30*time.Millisecond))
	f.coord.SurfaceConnected("main")

	f.mon.SetCaptureActive(true)
	before := len(f.renderer.snapshot())

	f.mon.NoteScreenshot()

	assert.Equal(t, before, len(f.renderer.snapshot()), "shown surface must not be re-rendered by the flash")

	// And it stays covered after the flash window.
	time.Sleep(60 * time.Millisecond)
	call, ok := f.renderer.lastFor("main")
	require.True(t, ok)
	assert.True(t, call.shown)
}

func TestDisconnectedSurfaceIsForgotten(t *testing.T) {
	f := newFixture(t, config.Default())
	f.coord.SurfaceConnected("gone")
	f.coord.SurfaceDisconnected("gone")

	f.mon.SetCaptureActive(true)

	_, ok := f.renderer.lastFor("gone")
	assert.False(t, ok)
	assert.Empty(t, f.coord.Surfaces())
}

func TestAnonymousSurfaceGetsGeneratedKey(t *testing.T) {
	f := newFixture(t, config.Default())

	key := f.coord.SurfaceConnected("")
	assert.NotEmpty(t, key)

	surfaces := f.coord.Surfaces()
	require.Len(t, surfaces, 1)
	assert.Equal(t, key, surfaces[0].Key)
}

// TestStyleSwitchReplacesContent: changing the default policy swaps the
// cover in one Show call per surface; no layering.
func TestStyleSwitchReplacesContent(t *testing.T) {
	f := newFixture(t, config.Default())
	f.coord.SurfaceConnected("main")
	f.mon.SetCaptureActive(true)

	f.runtime.SetDefaultPolicy(config.PolicySettings{Kind: "block", BlockReason: "recording detected"})

	call, ok := f.renderer.lastFor("main")
	require.True(t, ok)
	assert.True(t, call.shown)
	assert.Equal(t, domain.ActionBlock, call.action.Kind)
	assert.Equal(t, "recording detected", call.action.Reason)

	surfaces := f.coord.Surfaces()
	require.Len(t, surfaces, 1)
	assert.True(t, surfaces[0].Visible)
	assert.Equal(t, domain.ActionBlock, surfaces[0].Action.Kind)
}

func TestRefreshShieldsIsIdempotent(t *testing.T) {
	f := newFixture(t, config.Default())
	f.coord.SurfaceConnected("main")
	f.mon.SetCaptureActive(true)

	before := len(f.renderer.snapshot())
	f.coord.RefreshShields()
	f.coord.RefreshShields()

	// Identical re-evaluation must not re-render identical content.
	assert.Equal(t, before, len(f.renderer.snapshot()))
}
