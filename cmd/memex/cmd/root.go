// Package cmd provides the CLI commands for memex.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/memex/internal/config"
	merrors "github.com/Aman-CERP/memex/internal/errors"
	"github.com/Aman-CERP/memex/internal/logging"
	"github.com/Aman-CERP/memex/internal/profiling"
	"github.com/Aman-CERP/memex/pkg/version"
)

// Persistent flags and the state they set up for one run.
var (
	debugMode  bool
	logLevel   string
	configPath string

	profileCPU   string
	profileMem   string
	profileTrace string

	loggingCleanup func()
	profiler       *profiling.Session
)

// NewRootCmd creates the root command for memex CLI.
func NewRootCmd() *cobra.Command {
	var opts buildOptions
	var srv serveOptions

	cmd := &cobra.Command{
		Use:   "memex",
		Short: "Index a directory tree and search it from a launcher",
		Long: heredoc.Doc(`
			memex crawls a directory, extracts text from plain text, Markdown, PDF
			and .webloc files, builds a full-text index and serves it over HTTP in
			the JSON shape launchers such as Alfred expect.

			Without a subcommand it builds an in-memory index and then serves it.
		`),
		Example: heredoc.Doc(`
			memex --source ~/Documents
			curl 'http://localhost:3000/api/?q=invoice'
		`),
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuildAndServe(cmd, opts, srv)
		},
	}

	cmd.SetVersionTemplate("memex version {{.Version}}\n")

	opts.register(cmd, false)
	srv.register(cmd)
	_ = cmd.MarkFlagRequired("source")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.memex/logs/")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file")
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startLoggingAndProfiling
	cmd.PersistentPostRunE = stopLoggingAndProfiling

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints any error for the terminal.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, merrors.FormatForCLI(err))
	}
	// PersistentPostRunE is skipped when RunE fails.
	cleanupRun()
	return err
}

// startLoggingAndProfiling installs the default logger and starts any
// requested profiles.
func startLoggingAndProfiling(cmd *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	logCfg.Stderr = cmd.ErrOrStderr()
	if debugMode {
		logCfg = logging.DebugConfig()
		logCfg.Stderr = cmd.ErrOrStderr()
	}
	switch {
	case logLevel != "":
		logCfg.Level = logLevel
	case !debugMode && os.Getenv("MEMEX_LOG_LEVEL") != "":
		logCfg.Level = os.Getenv("MEMEX_LOG_LEVEL")
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	if debugMode {
		slog.Debug("debug_logging_enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("version", version.Short()))
	}

	popts := profiling.Options{CPU: profileCPU, Heap: profileMem, Trace: profileTrace}
	if popts.Enabled() {
		if profiler, err = profiling.Start(popts); err != nil {
			return err
		}
	}
	return nil
}

func stopLoggingAndProfiling(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}
	cleanupRun()
	return err
}

func cleanupRun() {
	if profiler != nil {
		_ = profiler.Stop()
		profiler = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// loadConfig loads configuration from defaults, the user config, --config
// and the environment. Command flags are applied by the caller.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, config.ErrNotFound) {
		return nil, merrors.New(merrors.ErrCodeConfigNotFound, "config file not found", err).
			WithSuggestion("Check the --config path or create one with 'memex config init'")
	}
	if err != nil {
		return nil, merrors.ConfigError("cannot load configuration", err).
			WithSuggestion("Fix the file or run 'memex config show' to inspect the effective values")
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func runBuildAndServe(cmd *cobra.Command, opts buildOptions, srv serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts.apply(cmd, cfg)
	srv.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return merrors.New(merrors.ErrCodeConfigInvalid, err.Error(), err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	res, err := buildIndex(ctx, cmd, cfg, opts)
	if err != nil {
		return err
	}
	defer func() { _ = res.Close() }()

	return serveIndex(ctx, cmd, cfg, res.Index)
}
