// Package main is the CLI entry point for screenveil.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/screenveil/screenveil/internal/config"
	"github.com/screenveil/screenveil/internal/domain"
	"github.com/screenveil/screenveil/internal/engine"
	"github.com/screenveil/screenveil/internal/infra"
	"github.com/screenveil/screenveil/internal/monitor"
	"github.com/screenveil/screenveil/internal/policy"
	"github.com/screenveil/screenveil/internal/shield"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "screenveil",
	Short: "Capture detection and shield coordination",
	Long: `screenveil detects screen capture (recording or snapshot) and resolves,
via a declarative policy, what protective action the presentation layer
should take. It cannot prevent capture; it guarantees that protected
content is never shown to a known exfiltration channel.

Caveat: without a working detection source the system silently fails
open. Detection, not prevention.`,
	Version: Version,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the capture monitor with the process prober",
	Long: `Runs the capture monitor fed by the process-table prober, with the
global shield coordinator applying the configured default policy to a
demo surface. Shield actions are logged rather than rendered.`,
	RunE: runWatch,
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Scan the process table for capture evidence once",
	RunE:  runProbe,
}

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "Show the configured default policy and built-in conditions",
	RunE:  runPolicies,
}

var violationsCmd = &cobra.Command{
	Use:   "violations",
	Short: "List recent capture violations from the journal",
	RunE:  runViolations,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	configPath string
	jsonOutput bool
	surfaceArg []string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Settings file (YAML)")
	watchCmd.Flags().StringSliceVar(&surfaceArg, "surface", []string{"main"}, "Surface keys to register with the coordinator")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(policiesCmd)
	rootCmd.AddCommand(violationsCmd)
	rootCmd.AddCommand(versionCmd)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "screenveil.yaml"
	}
	return home + "/.config/screenveil/config.yaml"
}

func defaultJournalDir(settings config.Settings) string {
	if settings.JournalDir != "" {
		return settings.JournalDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".screenveil"
	}
	return home + "/.local/share/screenveil"
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := createLogger()
	defer func() { _ = logger.Sync() }()

	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	runtime := config.NewRuntime(settings)

	mon := monitor.New(monitor.Config{
		ScreenshotResetWindow: settings.ScreenshotResetWindow.Std(),
	}, logger)
	defer mon.Shutdown()

	// Violation journal is best effort: run uncovered if it cannot open.
	var journal *infra.EncryptedJournal
	journalDir := defaultJournalDir(settings)
	key, err := infra.EnsureKey(infra.NewFileKeyProvider(journalDir))
	if err == nil {
		journal, err = infra.NewEncryptedJournal(journalDir, key)
	}
	if err != nil {
		logger.Warn("violation journal unavailable", zap.Error(err))
	} else {
		defer journal.Close()
	}
	// Avoid handing a typed nil pointer to the interface parameter.
	var journalSink domain.ViolationJournal
	if journal != nil {
		journalSink = journal
	}
	mon.SetViolationHandler(infra.NewJournalingHandler(journalSink, mon.State, logger))

	eng := engine.New(mon, runtime, logger)
	coordinator := shield.NewCoordinator(mon, eng, infra.NewLogRenderer(logger), runtime, logger)
	coordinator.Start()
	defer coordinator.Stop()

	for _, sk := range surfaceArg {
		coordinator.SurfaceConnected(sk)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	prober := infra.NewProcessProber(settings.RecorderPatterns, logger)
	source := infra.NewProberSource(prober, mon, settings.ProbeInterval.Std(), logger)

	logger.Info("screenveil watching",
		zap.Strings("surfaces", surfaceArg),
		zap.Duration("probe_interval", settings.ProbeInterval.Std()),
		zap.Bool("enabled", settings.Enabled))

	err = source.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func runProbe(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	prober := infra.NewProcessProber(settings.RecorderPatterns, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	active, evidence, err := prober.Probe(ctx)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	if !active {
		fmt.Println("No capture evidence found.")
		return nil
	}

	fmt.Println("Capture evidence:")
	for _, name := range evidence {
		fmt.Printf("  - %s\n", name)
	}
	return nil
}

func runPolicies(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Default Policy ===")
	p := settings.Policy()
	fmt.Printf("Kind: %s\n", p.Kind)
	switch p.Kind {
	case policy.KindObscure:
		fmt.Printf("Style: %s\n", p.Style.Kind)
		if p.Style.Kind == domain.ObscureBlur {
			fmt.Printf("Blur radius: %.1f\n", p.Style.Radius)
		}
	case policy.KindBlock:
		fmt.Printf("Block reason: %s\n", p.Reason)
	}
	fmt.Printf("Protection enabled: %v\n", settings.Enabled)
	fmt.Printf("Screenshot reset window: %s\n", settings.ScreenshotResetWindow)
	fmt.Printf("Flash duration: %s\n", settings.FlashDuration)

	fmt.Println("\nBuilt-in conditions:")
	for _, name := range []string{
		"always-protect", "never-protect", "recording-only",
		"screenshot-only", "role-based", "screen-based", "and", "or",
	} {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("======================")
	return nil
}

func runViolations(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}

	journalDir := defaultJournalDir(settings)
	provider := infra.NewFileKeyProvider(journalDir)
	if !provider.KeyExists() {
		fmt.Println("No journal found.")
		return nil
	}
	key, err := provider.GetKey()
	if err != nil {
		return err
	}
	journal, err := infra.NewEncryptedJournal(journalDir, key)
	if err != nil {
		return err
	}
	defer journal.Close()

	events, err := journal.Recent(50)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No violations recorded.")
		return nil
	}

	fmt.Println("\n=== Recent Violations ===")
	for _, ev := range events {
		fmt.Printf("%s  %-16s state=%s\n",
			ev.OccurredAt.Format(time.RFC3339), ev.Kind, ev.State)
	}
	fmt.Println("=========================")
	return nil
}

func createLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("screenveil %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
