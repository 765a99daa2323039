// Package config loads and holds administrative settings: the global
// kill switch, the default policy, and timing constants. The core
// consults these settings but never owns them; Runtime is the mutable
// admin object handed to the engine and coordinator.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/screenveil/screenveil/internal/domain"
	"github.com/screenveil/screenveil/internal/policy"
)

// Duration wraps time.Duration so YAML files and env vars can use forms
// like "500ms". Integer nanoseconds are accepted too.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalText implements encoding.TextUnmarshaler (used by env parsing).
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		return d.UnmarshalText([]byte(s))
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration node: %w", err)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// PolicySettings describes the default policy in configuration form.
type PolicySettings struct {
	// Kind is one of "allow", "obscure", "block", "logout".
	Kind string `yaml:"kind" env:"SCREENVEIL_DEFAULT_POLICY"`

	// ObscureStyle is "blur" or "blackout" (obscure only). Custom cover
	// providers cannot be expressed in configuration.
	ObscureStyle string `yaml:"obscure_style" env:"SCREENVEIL_OBSCURE_STYLE"`

	// BlurRadius applies to the blur style.
	BlurRadius float64 `yaml:"blur_radius" env:"SCREENVEIL_BLUR_RADIUS"`

	// BlockReason is the message shown by a block policy.
	BlockReason string `yaml:"block_reason" env:"SCREENVEIL_BLOCK_REASON"`
}

// Settings is the full administrative configuration.
type Settings struct {
	// Enabled is the global kill switch for default-policy protection.
	// Per-component resolution is deliberately not gated by it.
	Enabled bool `yaml:"enabled" env:"SCREENVEIL_ENABLED"`

	DefaultPolicy PolicySettings `yaml:"default_policy"`

	// ScreenshotResetWindow is how long the screenshot state persists.
	ScreenshotResetWindow Duration `yaml:"screenshot_reset_window" env:"SCREENVEIL_RESET_WINDOW"`

	// FlashDuration is how long the informational screenshot flash stays
	// up on otherwise-hidden surfaces.
	FlashDuration Duration `yaml:"flash_duration" env:"SCREENVEIL_FLASH_DURATION"`

	// ProbeInterval is the process-prober polling cadence.
	ProbeInterval Duration `yaml:"probe_interval" env:"SCREENVEIL_PROBE_INTERVAL"`

	// RecorderPatterns are process-name patterns treated as capture
	// channels by the prober. Empty means the built-in list.
	RecorderPatterns []string `yaml:"recorder_patterns" env:"SCREENVEIL_RECORDER_PATTERNS" envSeparator:","`

	// JournalDir is where the encrypted violation journal lives.
	JournalDir string `yaml:"journal_dir" env:"SCREENVEIL_JOURNAL_DIR"`
}

// Default returns the baseline settings: protection enabled with a
// 12-point blur.
func Default() Settings {
	return Settings{
		Enabled: true,
		DefaultPolicy: PolicySettings{
			Kind:         "obscure",
			ObscureStyle: "blur",
			BlurRadius:   12,
		},
		ScreenshotResetWindow: Duration(500 * time.Millisecond),
		FlashDuration:         Duration(1500 * time.Millisecond),
		ProbeInterval:         Duration(5 * time.Second),
	}
}

// Load reads settings from a YAML file, then applies environment-variable
// overrides. A missing file is not an error: defaults plus env apply.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through to env overrides.
	case err != nil:
		return s, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// FromEnv returns defaults with environment overrides applied.
func FromEnv() (Settings, error) {
	s := Default()
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("failed to apply env overrides: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks the policy kind and style names.
func (s Settings) Validate() error {
	switch s.DefaultPolicy.Kind {
	case "", "allow", "obscure", "block", "logout":
	default:
		return fmt.Errorf("unknown default policy kind: %q", s.DefaultPolicy.Kind)
	}
	switch s.DefaultPolicy.ObscureStyle {
	case "", "blur", "blackout":
	default:
		return fmt.Errorf("unknown obscure style: %q", s.DefaultPolicy.ObscureStyle)
	}
	if s.DefaultPolicy.BlurRadius < 0 {
		return fmt.Errorf("blur radius must be non-negative, got %v", s.DefaultPolicy.BlurRadius)
	}
	return nil
}

// Policy translates the configured default policy into a CapturePolicy.
// An empty kind means allow.
func (s Settings) Policy() policy.CapturePolicy {
	switch s.DefaultPolicy.Kind {
	case "obscure":
		if s.DefaultPolicy.ObscureStyle == "blackout" {
			return policy.Obscure(domain.Blackout())
		}
		return policy.Obscure(domain.Blur(s.DefaultPolicy.BlurRadius))
	case "block":
		return policy.Block(s.DefaultPolicy.BlockReason)
	case "logout":
		return policy.Logout()
	default:
		return policy.Allow()
	}
}
