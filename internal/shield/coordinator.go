// Package shield implements the multi-surface overlay coordinator. It
// keeps one overlay handle per presentation surface synchronized with
// the capture monitor and the policy engine, independent of any
// individual protected component. It never draws: resolved actions go to
// the render collaborator.
package shield

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/screenveil/screenveil/internal/config"
	"github.com/screenveil/screenveil/internal/domain"
	"github.com/screenveil/screenveil/internal/engine"
	"github.com/screenveil/screenveil/internal/monitor"
)

type surfaceState int

const (
	surfaceHidden surfaceState = iota
	surfaceShown
	surfaceFlashing
)

// handle tracks one managed overlay surface. Exactly one visual state at
// a time; showing always fully replaces prior content.
type handle struct {
	key      string
	state    surfaceState
	action   domain.ResolvedAction
	flashGen uint64
}

// Coordinator owns the per-surface handle fleet. All mutation goes
// through its mutex; no other component touches the handle map.
type Coordinator struct {
	mu       sync.Mutex
	surfaces map[string]*handle

	monitor  *monitor.Monitor
	engine   *engine.Engine
	renderer domain.ShieldRenderer
	settings *config.Runtime
	logger   *zap.Logger

	unsubMonitor func()
	unsubConfig  func()
}

// NewCoordinator wires a coordinator to its collaborators. Call Start to
// begin tracking monitor transitions.
func NewCoordinator(
	m *monitor.Monitor,
	e *engine.Engine,
	renderer domain.ShieldRenderer,
	settings *config.Runtime,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		surfaces: make(map[string]*handle),
		monitor:  m,
		engine:   e,
		renderer: renderer,
		settings: settings,
		logger:   logger,
	}
}

// Start subscribes to monitor transitions and admin settings changes.
func (c *Coordinator) Start() {
	c.unsubMonitor = c.monitor.Subscribe(c.onTransition)
	c.unsubConfig = c.settings.OnChange(func(config.Settings) {
		c.RefreshShields()
	})
}

// Stop deregisters subscriptions. Surfaces keep their last visual state;
// disconnect them explicitly if teardown requires it.
func (c *Coordinator) Stop() {
	if c.unsubMonitor != nil {
		c.unsubMonitor()
		c.unsubMonitor = nil
	}
	if c.unsubConfig != nil {
		c.unsubConfig()
		c.unsubConfig = nil
	}
}

// SurfaceConnected registers a presentation surface and returns its key.
// An empty key gets a generated one. A surface connecting while
// protection is currently required is shown immediately: a newly
// connected surface must never have a capture-protection gap.
func (c *Coordinator) SurfaceConnected(key string) string {
	if key == "" {
		key = uuid.NewString()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.surfaces[key]; exists {
		return key
	}

	h := &handle{key: key}
	c.surfaces[key] = h
	c.logger.Debug("surface connected", zap.String("surface", key))

	if c.engine.ShouldProtectWithDefaultPolicy() {
		c.showLocked(h, c.engine.DefaultPolicyAction())
	}
	return key
}

// SurfaceDisconnected destroys the surface's handle. Terminal and
// immediate; no cancellation semantics.
func (c *Coordinator) SurfaceDisconnected(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.surfaces[key]
	if !ok {
		return
	}
	h.flashGen++ // orphan any pending flash timer
	delete(c.surfaces, key)
	c.logger.Debug("surface disconnected", zap.String("surface", key))
}

// RefreshShields forces re-evaluation against the current default-policy
// check, without waiting for a monitor transition. Used after runtime
// configuration changes.
func (c *Coordinator) RefreshShields() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyDefaultLocked()
}

// Surfaces returns a snapshot of the managed surfaces for status
// reporting.
func (c *Coordinator) Surfaces() []domain.ShieldSurface {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.ShieldSurface, 0, len(c.surfaces))
	for _, h := range c.surfaces {
		out = append(out, domain.ShieldSurface{
			Key:     h.key,
			Visible: h.state != surfaceHidden,
			Action:  h.action,
		})
	}
	return out
}

// onTransition reacts to monitor state changes.
func (c *Coordinator) onTransition(t domain.Transition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Screenshot {
		c.flashHiddenLocked()
		return
	}

	switch t.To {
	case domain.StateIdle:
		c.hideAllLocked()
	case domain.StateRecording:
		c.applyDefaultLocked()
	}
}

// applyDefaultLocked shows or hides every handle per the default-policy
// check.
func (c *Coordinator) applyDefaultLocked() {
	if c.engine.ShouldProtectWithDefaultPolicy() {
		action := c.engine.DefaultPolicyAction()
		for _, h := range c.surfaces {
			c.showLocked(h, action)
		}
		return
	}
	c.hideAllLocked()
}

// flashHiddenLocked briefly blacks out currently-hidden handles. The
// screenshot already happened, so the flash is informational, not
// preventive. Handles shown from an active recording are left untouched.
func (c *Coordinator) flashHiddenLocked() {
	flash := c.settings.Current().FlashDuration.Std()
	if flash <= 0 {
		return
	}

	for _, h := range c.surfaces {
		if h.state != surfaceHidden {
			continue
		}
		h.state = surfaceFlashing
		h.action = domain.ObscureAction(domain.Blackout())
		h.flashGen++
		gen := h.flashGen
		key := h.key
		c.renderer.Show(key, h.action)
		c.logger.Debug("screenshot flash", zap.String("surface", key))

		time.AfterFunc(flash, func() { c.flashExpired(key, gen) })
	}
}

// flashExpired auto-hides a flashed surface unless a newer visual state
// superseded the flash.
func (c *Coordinator) flashExpired(key string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.surfaces[key]
	if !ok || h.state != surfaceFlashing || h.flashGen != gen {
		return
	}
	c.hideLocked(h)
}

func (c *Coordinator) hideAllLocked() {
	for _, h := range c.surfaces {
		c.hideLocked(h)
	}
}

// showLocked covers the surface, replacing any prior content.
func (c *Coordinator) showLocked(h *handle, action domain.ResolvedAction) {
	if h.state == surfaceShown && h.action.Kind == action.Kind && h.action.Style.Equal(action.Style) && h.action.Reason == action.Reason {
		return
	}
	h.state = surfaceShown
	h.action = action
	h.flashGen++ // supersede any pending flash
	c.renderer.Show(h.key, action)
	c.logger.Debug("shield shown",
		zap.String("surface", h.key),
		zap.Stringer("action", action.Kind))
}

func (c *Coordinator) hideLocked(h *handle) {
	if h.state == surfaceHidden {
		return
	}
	h.state = surfaceHidden
	h.action = domain.NoAction()
	h.flashGen++
	c.renderer.Hide(h.key)
	c.logger.Debug("shield hidden", zap.String("surface", h.key))
}
