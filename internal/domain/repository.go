package domain

import "context"

// CaptureCondition decides whether protection should apply in a given
// context. Implementations must be pure: no side effects, and stable
// results for equal contexts, so conditions compose under AND/OR.
type CaptureCondition interface {
	ShouldProtect(ctx CaptureContext) bool
}

// CaptureEventSink is the intake side of the capture monitor. Event
// sources (platform notification adapters, the process prober) feed it.
// All three methods must be called from a single goroutine; the monitor
// serializes transitions but notification order follows call order.
type CaptureEventSink interface {
	// SetCaptureActive reports the current capture-active flag.
	SetCaptureActive(active bool)

	// NoteScreenshot reports a discrete screenshot event.
	NoteScreenshot()

	// SetForeground reports the app's foreground state.
	SetForeground(state ForegroundState)
}

// ViolationHandler receives capture violation callbacks from the monitor.
// Callbacks are fire-and-forget and invoked on the same execution context
// as state transitions; implementations must not block.
type ViolationHandler interface {
	// OnCaptureStarted fires on the Idle -> Recording transition.
	OnCaptureStarted()

	// OnCaptureStopped fires on the Recording -> Idle transition.
	OnCaptureStopped()

	// OnScreenshotTaken fires on every screenshot event, including
	// re-entries into StateScreenshotTaken.
	OnScreenshotTaken()
}

// NoopViolationHandler is an embeddable base so integrators implement
// only the callbacks they need.
type NoopViolationHandler struct{}

func (NoopViolationHandler) OnCaptureStarted()  {}
func (NoopViolationHandler) OnCaptureStopped()  {}
func (NoopViolationHandler) OnScreenshotTaken() {}

// Ensure the base satisfies the interface.
var _ ViolationHandler = NoopViolationHandler{}

// ShieldRenderer is the outbound render collaborator. The core never
// draws pixels; it pushes resolved actions here. Show fully replaces any
// prior content on the surface.
type ShieldRenderer interface {
	// Show covers the surface according to the action. ActionLogout
	// implies both a cover and an external session-termination call.
	Show(surfaceKey string, action ResolvedAction)

	// Hide removes any cover from the surface.
	Hide(surfaceKey string)
}

// ViolationJournal persists violation events. This is the external
// violation-reporting collaborator; the core only ever talks to
// ViolationHandler and never depends on persistence.
type ViolationJournal interface {
	// Record appends one violation event.
	Record(ev ViolationEvent) error

	// Recent returns up to limit events, newest first.
	Recent(limit int) ([]ViolationEvent, error)

	// Close releases resources (e.g., database connection).
	Close() error
}

// CaptureProber answers "is a capture channel active right now" by
// inspecting the environment. Best effort: a prober that never detects
// anything leaves the monitor idle, which is not an error.
type CaptureProber interface {
	// Probe returns the capture-active flag plus the evidence found
	// (e.g., matching recorder process names).
	Probe(ctx context.Context) (active bool, evidence []string, err error)
}

// KeyProvider abstracts the source of encryption keys for the journal.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}
