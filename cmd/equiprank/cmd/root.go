// Package cmd provides the CLI commands for equiprank.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/equiprank/equiprank/internal/config"
	"github.com/equiprank/equiprank/internal/logging"
	"github.com/equiprank/equiprank/internal/profiling"
	"github.com/equiprank/equiprank/pkg/version"
)

var (
	cfgPath  string
	logLevel string
	noColor  bool

	profileCPU   string
	profileMem   string
	profileTrace string

	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()

	loggingCleanup func()
)

// NewRootCmd creates the root command for the equiprank CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equiprank",
		Short: "Hybrid ranking for cleaning-equipment descriptions",
		Long: `Equiprank ranks a static catalog of cleaning-equipment documents
against short Portuguese free-text descriptions, combining BM25 lexical
retrieval, embeddings, an optional cross-encoder, and category affinity.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("equiprank version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default ./"+config.ConfigFileName+")")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = setupEnvironment
	cmd.PersistentPostRunE = teardownEnvironment

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupEnvironment loads .env and configures logging before any command.
func setupEnvironment(_ *cobra.Command, _ []string) error {
	// Optional: credentials for remote providers usually live here.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cleanup, err := logging.SetupDefault(logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.FilePath,
		WriteToStderr: true,
	})
	if err != nil {
		return err
	}
	loggingCleanup = cleanup

	if profileCPU != "" {
		if cpuCleanup, err = profiler.StartCPU(profileCPU); err != nil {
			return err
		}
	}
	if profileTrace != "" {
		if traceCleanup, err = profiler.StartTrace(profileTrace); err != nil {
			return err
		}
	}
	return nil
}

// teardownEnvironment flushes profiles and closes log files.
func teardownEnvironment(_ *cobra.Command, _ []string) error {
	var err error
	if profileMem != "" {
		err = profiler.WriteHeap(profileMem)
	}
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// loadConfig loads the configuration honoring the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// Execute runs the root command with signal-aware context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
