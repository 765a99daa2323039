// Package engine implements the single authoritative policy resolver.
// Every protection decision in the system routes through it so behavior
// stays uniform and testable in isolation. Resolution is total over its
// input domain: there is no error path.
package engine

import (
	"go.uber.org/zap"

	"github.com/screenveil/screenveil/internal/config"
	"github.com/screenveil/screenveil/internal/domain"
	"github.com/screenveil/screenveil/internal/monitor"
	"github.com/screenveil/screenveil/internal/policy"
)

// Engine resolves (policy, condition, context) triples into actions.
// Stateless given its inputs; it reads the monitor and the admin
// settings but mutates neither.
type Engine struct {
	monitor  *monitor.Monitor
	settings *config.Runtime
	logger   *zap.Logger
}

// New creates an engine backed by the given monitor and admin settings.
func New(m *monitor.Monitor, settings *config.Runtime, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		monitor:  m,
		settings: settings,
		logger:   logger,
	}
}

// Resolve combines a policy, an optional condition, and a context into
// the action the render layer must enact.
//
// An allow policy short-circuits before the condition is evaluated. With
// no condition, the implicit default applies: protect iff any capture
// signal is present in the context.
func (e *Engine) Resolve(p policy.CapturePolicy, cond domain.CaptureCondition, ctx domain.CaptureContext) domain.ResolvedAction {
	if !p.RequiresProtection() {
		return domain.NoAction()
	}

	if cond != nil {
		if !cond.ShouldProtect(ctx) {
			return domain.NoAction()
		}
	} else if !ctx.IsScreenCaptured && !ctx.IsScreenshotEvent {
		return domain.NoAction()
	}

	action := p.Action()
	e.logger.Debug("policy resolved",
		zap.Stringer("policy", p.Kind),
		zap.Stringer("action", action.Kind),
		zap.String("surface", ctx.SurfaceID))
	return action
}

// ResolveFor builds a fresh context from the monitor's current state and
// delegates to Resolve. Never caches.
func (e *Engine) ResolveFor(p policy.CapturePolicy, cond domain.CaptureCondition, surfaceID, principalRole string) domain.ResolvedAction {
	return e.Resolve(p, cond, e.monitor.CreateContext(surfaceID, principalRole))
}

// ShouldProtectWithDefaultPolicy is the global shield coordinator's
// check. The kill switch overrides everything; per-component Resolve
// calls are intentionally not gated by it (component-level protection is
// opt-in and always active once configured).
func (e *Engine) ShouldProtectWithDefaultPolicy() bool {
	s := e.settings.Current()
	if !s.Enabled {
		return false
	}
	if !s.Policy().RequiresProtection() {
		return false
	}
	st := e.monitor.State()
	return st == domain.StateRecording || st == domain.StateScreenshotTaken
}

// DefaultPolicyAction maps the configured default policy straight to its
// action, for callers that already decided protection is required.
func (e *Engine) DefaultPolicyAction() domain.ResolvedAction {
	return e.settings.Current().Policy().Action()
}
