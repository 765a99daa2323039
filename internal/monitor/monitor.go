// Package monitor implements the capture-state machine. It owns the
// authoritative capture state, derives transitions from event-source
// callbacks, and publishes them to a violation handler and an explicit
// observer registry.
package monitor

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/screenveil/screenveil/internal/domain"
)

// DefaultScreenshotResetWindow is how long StateScreenshotTaken persists
// before reverting. The exact value is a policy constant, not load-bearing.
const DefaultScreenshotResetWindow = 500 * time.Millisecond

// Config holds monitor configuration.
type Config struct {
	// ScreenshotResetWindow is the duration of StateScreenshotTaken.
	// A newer screenshot event restarts the window.
	ScreenshotResetWindow time.Duration
}

// DefaultConfig returns the default monitor configuration.
func DefaultConfig() Config {
	return Config{ScreenshotResetWindow: DefaultScreenshotResetWindow}
}

type observer struct {
	id uint64
	fn func(domain.Transition)
}

// Monitor is the single source of truth for "is this surface currently
// being captured". It has exactly one writer (the event source feeding
// it) and many readers. Event intake must come from a single goroutine;
// internal locking protects readers, and notifications are dispatched in
// transition order outside the lock so callbacks may read monitor state.
type Monitor struct {
	mu            sync.Mutex
	state         domain.CaptureState
	captureActive bool
	foreground    domain.ForegroundState
	window        time.Duration

	resetGen   uint64
	resetTimer *time.Timer

	handler   domain.ViolationHandler
	observers []observer
	nextObsID uint64

	pending  []domain.Transition
	draining bool

	logger *zap.Logger
}

// New creates a monitor in StateIdle.
func New(cfg Config, logger *zap.Logger) *Monitor {
	window := cfg.ScreenshotResetWindow
	if window <= 0 {
		window = DefaultScreenshotResetWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		state:   domain.StateIdle,
		window:  window,
		handler: domain.NoopViolationHandler{},
		logger:  logger,
	}
}

// SetViolationHandler replaces the violation callback target. A nil
// handler resets to the no-op base.
func (m *Monitor) SetViolationHandler(h domain.ViolationHandler) {
	if h == nil {
		h = domain.NoopViolationHandler{}
	}
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
}

// Subscribe registers an observer for every published transition and
// returns its deregistration func. Observers are invoked in registration
// order, after the violation handler.
func (m *Monitor) Subscribe(fn func(domain.Transition)) (unsubscribe func()) {
	m.mu.Lock()
	m.nextObsID++
	id := m.nextObsID
	m.observers = append(m.observers, observer{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		for i, o := range m.observers {
			if o.id == id {
				m.observers = append(m.observers[:i], m.observers[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
	}
}

// State returns the current capture state.
func (m *Monitor) State() domain.CaptureState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CaptureActive returns the last reported capture-active flag. It can be
// true while the state is StateScreenshotTaken.
func (m *Monitor) CaptureActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captureActive
}

// SetCaptureActive records the capture-active flag and transitions
// between Idle and Recording. While in StateScreenshotTaken only the flag
// is recorded; the pending reset timer resolves against its latest value.
func (m *Monitor) SetCaptureActive(active bool) {
	m.mu.Lock()
	m.captureActive = active
	if m.state == domain.StateScreenshotTaken {
		m.mu.Unlock()
		return
	}
	m.deriveFromFlagLocked()
	m.flushLocked()
}

// NoteScreenshot enters StateScreenshotTaken, cancelling any pending
// reset timer and starting a new one. It always notifies, even when
// already in StateScreenshotTaken: each screenshot is a discrete
// violation.
func (m *Monitor) NoteScreenshot() {
	m.mu.Lock()
	from := m.state
	m.state = domain.StateScreenshotTaken

	m.resetGen++
	gen := m.resetGen
	if m.resetTimer != nil {
		m.resetTimer.Stop()
	}
	m.resetTimer = time.AfterFunc(m.window, func() { m.resetFired(gen) })

	m.logger.Debug("screenshot event",
		zap.Stringer("from", from),
		zap.Duration("reset_window", m.window))

	m.pending = append(m.pending, domain.Transition{
		From:       from,
		To:         domain.StateScreenshotTaken,
		Screenshot: true,
		At:         time.Now(),
	})
	m.flushLocked()
}

// SetForeground records the app's foreground state for future contexts.
func (m *Monitor) SetForeground(state domain.ForegroundState) {
	m.mu.Lock()
	m.foreground = state
	m.mu.Unlock()
}

// RefreshState re-derives Idle/Recording from the current capture-active
// flag. Idempotent; used after environment changes such as display
// reconfiguration. A pending screenshot window is left to its timer.
func (m *Monitor) RefreshState() {
	m.mu.Lock()
	if m.state == domain.StateScreenshotTaken {
		m.mu.Unlock()
		return
	}
	m.deriveFromFlagLocked()
	m.flushLocked()
}

// CreateContext builds a fresh context from current state plus
// caller-supplied identity hints. Never cached.
func (m *Monitor) CreateContext(surfaceID, principalRole string) domain.CaptureContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CaptureContext{
		IsScreenCaptured:  m.captureActive,
		IsScreenshotEvent: m.state == domain.StateScreenshotTaken,
		Foreground:        m.foreground,
		SurfaceID:         surfaceID,
		PrincipalRole:     principalRole,
		CreatedAt:         time.Now(),
	}
}

// Shutdown cancels any pending reset timer. The monitor must not be fed
// events afterwards.
func (m *Monitor) Shutdown() {
	m.mu.Lock()
	m.resetGen++
	if m.resetTimer != nil {
		m.resetTimer.Stop()
		m.resetTimer = nil
	}
	m.mu.Unlock()
}

// resetFired resolves StateScreenshotTaken once the window elapses. The
// generation check makes cancellation race-free: a stale timer that
// already fired cannot supersede a newer screenshot event.
func (m *Monitor) resetFired(gen uint64) {
	m.mu.Lock()
	if gen != m.resetGen || m.state != domain.StateScreenshotTaken {
		m.mu.Unlock()
		return
	}
	// State reflects capture-active at fire time, not at event time.
	m.deriveFromFlagLocked()
	m.flushLocked()
}

// deriveFromFlagLocked moves to Idle/Recording per the capture flag,
// suppressing self-transitions.
func (m *Monitor) deriveFromFlagLocked() {
	target := domain.StateIdle
	if m.captureActive {
		target = domain.StateRecording
	}
	if target == m.state {
		return
	}
	from := m.state
	m.state = target
	m.logger.Debug("capture state transition",
		zap.Stringer("from", from),
		zap.Stringer("to", target))
	m.pending = append(m.pending, domain.Transition{
		From: from,
		To:   target,
		At:   time.Now(),
	})
}

// flushLocked dispatches queued notifications in order. It is called
// with mu held and releases it. Re-entrant transitions triggered from a
// callback are queued and drained by the outer call, preserving order.
func (m *Monitor) flushLocked() {
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true
	for len(m.pending) > 0 {
		t := m.pending[0]
		m.pending = m.pending[1:]
		handler := m.handler
		obs := make([]observer, len(m.observers))
		copy(obs, m.observers)
		m.mu.Unlock()

		m.notify(handler, obs, t)

		m.mu.Lock()
	}
	m.draining = false
	m.mu.Unlock()
}

// notify invokes the at-most-once violation callback for the transition,
// then the observers.
func (m *Monitor) notify(handler domain.ViolationHandler, obs []observer, t domain.Transition) {
	switch {
	case t.Screenshot:
		handler.OnScreenshotTaken()
	case t.From == domain.StateIdle && t.To == domain.StateRecording:
		handler.OnCaptureStarted()
	case t.From == domain.StateRecording && t.To == domain.StateIdle:
		handler.OnCaptureStopped()
	}
	for _, o := range obs {
		o.fn(t)
	}
}

// Ensure Monitor is a valid event sink.
var _ domain.CaptureEventSink = (*Monitor)(nil)
