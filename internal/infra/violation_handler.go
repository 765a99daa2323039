package infra

import (
	"time"

	"go.uber.org/zap"

	"github.com/screenveil/screenveil/internal/domain"
)

// JournalingHandler implements domain.ViolationHandler by recording each
// violation to a journal and logging it. Journal failures are logged and
// swallowed: violation reporting is best effort and never disturbs the
// monitor.
type JournalingHandler struct {
	journal domain.ViolationJournal
	stateFn func() domain.CaptureState
	logger  *zap.Logger
}

// NewJournalingHandler creates a handler. stateFn supplies the monitor
// state stamped into each record; nil means the state is derived from
// the violation kind.
func NewJournalingHandler(journal domain.ViolationJournal, stateFn func() domain.CaptureState, logger *zap.Logger) *JournalingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalingHandler{
		journal: journal,
		stateFn: stateFn,
		logger:  logger,
	}
}

func (h *JournalingHandler) OnCaptureStarted() {
	h.record(domain.ViolationCaptureStarted, domain.StateRecording)
}

func (h *JournalingHandler) OnCaptureStopped() {
	h.record(domain.ViolationCaptureStopped, domain.StateIdle)
}

func (h *JournalingHandler) OnScreenshotTaken() {
	h.record(domain.ViolationScreenshot, domain.StateScreenshotTaken)
}

func (h *JournalingHandler) record(kind domain.ViolationKind, fallback domain.CaptureState) {
	state := fallback
	if h.stateFn != nil {
		state = h.stateFn()
	}
	ev := domain.ViolationEvent{
		Kind:       kind,
		State:      state,
		OccurredAt: time.Now(),
	}

	h.logger.Info("capture violation",
		zap.String("kind", string(kind)),
		zap.Stringer("state", state))

	if h.journal == nil {
		return
	}
	if err := h.journal.Record(ev); err != nil {
		h.logger.Warn("failed to journal violation", zap.Error(err))
	}
}

// Ensure JournalingHandler implements domain.ViolationHandler.
var _ domain.ViolationHandler = (*JournalingHandler)(nil)
