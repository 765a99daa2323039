// Package infra implements reference collaborators around the core:
// process-table capture probing, the encrypted violation journal, and a
// logging renderer. Integrators embedding the library replace these with
// platform-specific adapters.
package infra

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/screenveil/screenveil/internal/domain"
)

// DefaultRecorderPatterns are process-name fragments treated as evidence
// of an active capture channel. Matched case-insensitively.
func DefaultRecorderPatterns() []string {
	return []string{
		"obs",
		"ffmpeg",
		"QuickTime Player",
		"screencapture",
		"wf-recorder",
		"SimpleScreenRecorder",
		"vokoscreen",
		"kazam",
		"CptHost", // Zoom screen-share helper
		"caphost",
	}
}

// ProcessProber implements domain.CaptureProber by scanning the process
// table for known screen recorders. Best effort: recorders it does not
// know about go undetected, and the system fails open.
type ProcessProber struct {
	patterns []string
	logger   *zap.Logger
}

// NewProcessProber creates a prober. Empty patterns fall back to the
// built-in recorder list.
func NewProcessProber(patterns []string, logger *zap.Logger) *ProcessProber {
	if len(patterns) == 0 {
		patterns = DefaultRecorderPatterns()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessProber{patterns: patterns, logger: logger}
}

// Probe scans the process table and returns whether any recorder pattern
// matched, plus the matching process names as evidence.
func (p *ProcessProber) Probe(ctx context.Context) (bool, []string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, nil, err
	}

	seen := make(map[string]struct{})
	for _, proc := range procs {
		name, err := proc.Name()
		if err != nil {
			continue // Process may have exited
		}
		if MatchesRecorder(name, p.patterns) {
			seen[name] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return false, nil, nil
	}

	evidence := make([]string, 0, len(seen))
	for name := range seen {
		evidence = append(evidence, name)
	}
	sort.Strings(evidence)
	return true, evidence, nil
}

// MatchesRecorder reports whether a process name matches any recorder
// pattern (case-insensitive substring).
func MatchesRecorder(name string, patterns []string) bool {
	nameLower := strings.ToLower(name)
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(nameLower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// Ensure ProcessProber implements domain.CaptureProber.
var _ domain.CaptureProber = (*ProcessProber)(nil)

// ProberSource drives a capture event sink from a prober on a polling
// cadence. It is the reference inbound event source; platform adapters
// with real capture notifications replace it.
type ProberSource struct {
	prober   domain.CaptureProber
	sink     domain.CaptureEventSink
	interval time.Duration
	logger   *zap.Logger
}

// NewProberSource creates a polling source feeding the sink.
func NewProberSource(prober domain.CaptureProber, sink domain.CaptureEventSink, interval time.Duration, logger *zap.Logger) *ProberSource {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProberSource{
		prober:   prober,
		sink:     sink,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until the context is canceled. Probe failures are logged and
// skipped; the sink keeps its last reported flag.
func (s *ProberSource) Run(ctx context.Context) error {
	// Probe immediately on startup, then on the ticker.
	s.probeOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("prober source stopping")
			return ctx.Err()
		case <-ticker.C:
			s.probeOnce(ctx)
		}
	}
}

func (s *ProberSource) probeOnce(ctx context.Context) {
	active, evidence, err := s.prober.Probe(ctx)
	if err != nil {
		s.logger.Warn("capture probe failed", zap.Error(err))
		return
	}
	if active {
		s.logger.Debug("capture evidence found", zap.Strings("processes", evidence))
	}
	s.sink.SetCaptureActive(active)
}
