package infra

import (
	"go.uber.org/zap"

	"github.com/screenveil/screenveil/internal/domain"
)

// LogRenderer implements domain.ShieldRenderer by logging actions. It is
// the demo render collaborator for headless runs; real integrations draw
// blur/blackout/custom covers and terminate sessions on logout.
type LogRenderer struct {
	logger *zap.Logger
}

// NewLogRenderer creates a renderer that logs to the given logger.
func NewLogRenderer(logger *zap.Logger) *LogRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogRenderer{logger: logger}
}

// Show logs the cover that a real renderer would draw.
func (r *LogRenderer) Show(surfaceKey string, action domain.ResolvedAction) {
	fields := []zap.Field{
		zap.String("surface", surfaceKey),
		zap.Stringer("action", action.Kind),
	}
	switch action.Kind {
	case domain.ActionObscure:
		fields = append(fields, zap.Stringer("style", action.Style.Kind))
		if action.Style.Kind == domain.ObscureBlur {
			fields = append(fields, zap.Float64("radius", action.Style.Radius))
		}
	case domain.ActionBlock:
		fields = append(fields, zap.String("reason", action.Reason))
	case domain.ActionLogout:
		// A real renderer also calls the session terminator here.
	}
	r.logger.Info("shield show", fields...)
}

// Hide logs the cover removal.
func (r *LogRenderer) Hide(surfaceKey string) {
	r.logger.Info("shield hide", zap.String("surface", surfaceKey))
}

// Ensure LogRenderer implements domain.ShieldRenderer.
var _ domain.ShieldRenderer = (*LogRenderer)(nil)
