package policy

import "github.com/screenveil/screenveil/internal/domain"

// ConditionFunc adapts a plain function to domain.CaptureCondition. It is
// the stand-in for heterogeneous predicate storage: any implementation
// fits behind the one interface without losing per-call behavior.
type ConditionFunc func(domain.CaptureContext) bool

// ShouldProtect invokes the wrapped function.
func (f ConditionFunc) ShouldProtect(ctx domain.CaptureContext) bool {
	return f(ctx)
}

type alwaysProtect struct{}

func (alwaysProtect) ShouldProtect(ctx domain.CaptureContext) bool {
	return ctx.IsScreenCaptured || ctx.IsScreenshotEvent
}

// AlwaysProtect protects whenever any capture signal is present.
func AlwaysProtect() domain.CaptureCondition {
	return alwaysProtect{}
}

type neverProtect struct{}

func (neverProtect) ShouldProtect(domain.CaptureContext) bool {
	return false
}

// NeverProtect never protects, regardless of context.
func NeverProtect() domain.CaptureCondition {
	return neverProtect{}
}

type recordingOnly struct{}

func (recordingOnly) ShouldProtect(ctx domain.CaptureContext) bool {
	return ctx.IsScreenCaptured
}

// RecordingOnly protects against ongoing capture and ignores screenshot
// events.
func RecordingOnly() domain.CaptureCondition {
	return recordingOnly{}
}

type screenshotOnly struct{}

func (screenshotOnly) ShouldProtect(ctx domain.CaptureContext) bool {
	return ctx.IsScreenshotEvent
}

// ScreenshotOnly protects against screenshot events and ignores ongoing
// capture.
func ScreenshotOnly() domain.CaptureCondition {
	return screenshotOnly{}
}

type roleBased struct {
	exempt map[string]struct{}
}

func (c roleBased) ShouldProtect(ctx domain.CaptureContext) bool {
	if !ctx.IsScreenCaptured && !ctx.IsScreenshotEvent {
		return false
	}
	if _, ok := c.exempt[ctx.PrincipalRole]; ok {
		return false
	}
	return true
}

// RoleBased protects captured contexts unless the principal's role is in
// the exempt set. An unknown principal (empty role) is never exempt.
func RoleBased(exemptRoles ...string) domain.CaptureCondition {
	exempt := make(map[string]struct{}, len(exemptRoles))
	for _, r := range exemptRoles {
		exempt[r] = struct{}{}
	}
	return roleBased{exempt: exempt}
}

type screenBased struct {
	protected map[string]struct{}
}

func (c screenBased) ShouldProtect(ctx domain.CaptureContext) bool {
	if !ctx.IsScreenCaptured && !ctx.IsScreenshotEvent {
		return false
	}
	// Unknown surfaces default to unprotected. This is an explicit
	// policy choice, not an oversight.
	if ctx.SurfaceID == "" {
		return false
	}
	_, ok := c.protected[ctx.SurfaceID]
	return ok
}

// ScreenBased protects captured contexts only on the named surfaces.
func ScreenBased(protectedSurfaces ...string) domain.CaptureCondition {
	protected := make(map[string]struct{}, len(protectedSurfaces))
	for _, s := range protectedSurfaces {
		protected[s] = struct{}{}
	}
	return screenBased{protected: protected}
}
