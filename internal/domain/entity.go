// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// CaptureState is the authoritative capture status of the rendered surface.
// It is owned and mutated only by the capture monitor.
type CaptureState int

const (
	// StateIdle means no capture channel is known to be active.
	StateIdle CaptureState = iota

	// StateRecording means an ongoing capture (recording/mirroring) is active.
	StateRecording

	// StateScreenshotTaken is a transient state entered when a screenshot
	// event arrives. It reverts to Idle or Recording after a fixed window.
	StateScreenshotTaken
)

func (s CaptureState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateScreenshotTaken:
		return "screenshot_taken"
	default:
		return "unknown"
	}
}

// ForegroundState describes the application's scene activation state as
// reported by the platform event source.
type ForegroundState int

const (
	ForegroundActive ForegroundState = iota
	ForegroundInactive
	ForegroundBackground
)

func (s ForegroundState) String() string {
	switch s {
	case ForegroundActive:
		return "active"
	case ForegroundInactive:
		return "inactive"
	case ForegroundBackground:
		return "background"
	default:
		return "unknown"
	}
}

// CaptureContext is an immutable snapshot of capture-relevant facts at a
// single decision instant. It is constructed fresh for every resolution
// call and never mutated or cached.
type CaptureContext struct {
	IsScreenCaptured  bool
	IsScreenshotEvent bool
	Foreground        ForegroundState
	SurfaceID         string // empty means unknown surface
	PrincipalRole     string // empty means unknown principal
	CreatedAt         time.Time
}

// ObscureKind identifies the visual intent of an obscure action.
type ObscureKind int

const (
	ObscureBlur ObscureKind = iota
	ObscureBlackout
	ObscureCustom
)

func (k ObscureKind) String() string {
	switch k {
	case ObscureBlur:
		return "blur"
	case ObscureBlackout:
		return "blackout"
	case ObscureCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ObscureStyle is the visual-intent payload of an obscure policy.
// The Provider field of a custom style is an opaque handle owned by the
// render collaborator; the core never inspects it.
type ObscureStyle struct {
	Kind     ObscureKind
	Radius   float64 // blur only, never negative
	Provider any     // custom only, opaque to the core
}

// Blur returns a blur style with the given radius. Negative radii are
// clamped to zero.
func Blur(radius float64) ObscureStyle {
	if radius < 0 {
		radius = 0
	}
	return ObscureStyle{Kind: ObscureBlur, Radius: radius}
}

// Blackout returns a full blackout style.
func Blackout() ObscureStyle {
	return ObscureStyle{Kind: ObscureBlackout}
}

// CustomCover returns a style backed by a caller-supplied cover provider.
func CustomCover(provider any) ObscureStyle {
	return ObscureStyle{Kind: ObscureCustom, Provider: provider}
}

// Equal reports whether two styles describe the same visual intent.
// Custom styles carry opaque provider handles and compare unequal even to
// themselves.
func (s ObscureStyle) Equal(o ObscureStyle) bool {
	if s.Kind == ObscureCustom || o.Kind == ObscureCustom {
		return false
	}
	return s.Kind == o.Kind && s.Radius == o.Radius
}

// ActionKind identifies the variant of a resolved action.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionObscure
	ActionBlock
	ActionLogout
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionObscure:
		return "obscure"
	case ActionBlock:
		return "block"
	case ActionLogout:
		return "logout"
	default:
		return "unknown"
	}
}

// ResolvedAction is the concrete, already-decided outcome a render layer
// must enact, with all policy/condition ambiguity removed.
type ResolvedAction struct {
	Kind   ActionKind
	Style  ObscureStyle // valid only for ActionObscure
	Reason string       // valid only for ActionBlock, may be empty
}

// NoAction returns the action that requires nothing from the render layer.
func NoAction() ResolvedAction {
	return ResolvedAction{Kind: ActionNone}
}

// ObscureAction returns an action covering the surface with the given style.
func ObscureAction(style ObscureStyle) ResolvedAction {
	return ResolvedAction{Kind: ActionObscure, Style: style}
}

// BlockAction returns an action covering the surface with a message.
func BlockAction(reason string) ResolvedAction {
	return ResolvedAction{Kind: ActionBlock, Reason: reason}
}

// LogoutAction returns an action covering the surface and terminating the
// session via the render collaborator.
func LogoutAction() ResolvedAction {
	return ResolvedAction{Kind: ActionLogout}
}

// RequiresAction reports whether the render layer has anything to do.
func (a ResolvedAction) RequiresAction() bool {
	return a.Kind != ActionNone
}

// Transition is the typed event published by the monitor on every net
// state change. Screenshot is true for screenshot events, which re-notify
// even when the state does not change (each screenshot is a discrete
// violation).
type Transition struct {
	From       CaptureState
	To         CaptureState
	Screenshot bool
	At         time.Time
}

// ViolationKind identifies the class of a capture violation.
type ViolationKind string

const (
	ViolationCaptureStarted ViolationKind = "capture_started"
	ViolationCaptureStopped ViolationKind = "capture_stopped"
	ViolationScreenshot     ViolationKind = "screenshot"
)

// ViolationEvent is the record handed to violation-reporting collaborators.
type ViolationEvent struct {
	Kind       ViolationKind
	State      CaptureState
	OccurredAt time.Time
}

// ShieldSurface is a read-only snapshot of one managed overlay surface,
// exposed for status reporting.
type ShieldSurface struct {
	Key     string
	Visible bool
	Action  ResolvedAction
}
