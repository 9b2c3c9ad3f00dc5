package cmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/memex/internal/config"
	merrors "github.com/Aman-CERP/memex/internal/errors"
	"github.com/Aman-CERP/memex/internal/extract"
	"github.com/Aman-CERP/memex/internal/index"
	"github.com/Aman-CERP/memex/internal/output"
	"github.com/Aman-CERP/memex/internal/ui"
)

// buildOptions are the flags shared by the root and build commands.
type buildOptions struct {
	source      string
	destination string
	threads     int
	noTUI       bool
}

func (o *buildOptions) register(cmd *cobra.Command, destinationRequired bool) {
	cmd.Flags().StringVarP(&o.source, "source", "s", "", "File or directory to index")
	usage := "Index directory (default: in memory)"
	if destinationRequired {
		usage = "Index directory"
	}
	cmd.Flags().StringVarP(&o.destination, "destination", "d", "", usage)
	cmd.Flags().IntVarP(&o.threads, "threads", "j", config.DefaultThreads, "Crawler threads (env INGEST_THREADS)")
	cmd.Flags().BoolVar(&o.noTUI, "no-tui", false, "Plain progress output")
}

// apply copies explicitly set flags over cfg.
func (o *buildOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("threads") {
		cfg.Ingest.Threads = o.threads
	}
}

func newBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an index on disk and exit",
		Long: heredoc.Doc(`
			Crawl --source and write the index to --destination.

			Rebuilding into an existing destination replaces documents for the same
			paths. Only one build may write to a destination at a time.
		`),
		Example: heredoc.Doc(`
			memex build --source ~/Documents --destination ~/.memex/docs.idx
			INGEST_THREADS=16 memex build -s ~/Notes -d /tmp/notes.idx
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	opts.register(cmd, true)
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("destination")

	return cmd
}

func runBuild(cmd *cobra.Command, opts buildOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return merrors.New(merrors.ErrCodeConfigInvalid, err.Error(), err)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	res, err := buildIndex(ctx, cmd, cfg, opts)
	if err != nil {
		return err
	}
	return res.Close()
}

// buildIndex runs a build with progress on stderr and prints the summary
// line on stdout. The caller must Close the result.
func buildIndex(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts buildOptions) (*index.RunnerResult, error) {
	source, err := filepath.Abs(opts.source)
	if err != nil {
		return nil, merrors.New(merrors.ErrCodeInvalidPath, "cannot resolve source", err)
	}
	destination := opts.destination
	if destination != "" {
		if destination, err = filepath.Abs(destination); err != nil {
			return nil, merrors.New(merrors.ErrCodeInvalidPath, "cannot resolve destination", err)
		}
	}

	ex, err := extract.New(extract.Options{
		PDFToText:   cfg.Extract.PDFToText,
		PDFTimeout:  cfg.Extract.Timeout(),
		MaxFileSize: cfg.Extract.MaxFileSize,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = ex.Close() }()

	renderer := ui.NewRenderer(ui.NewConfig(cmd.ErrOrStderr(),
		ui.WithForcePlain(opts.noTUI),
		ui.WithNoColor(ui.DetectNoColor()),
		ui.WithTitle("memex · "+source)))
	if err := renderer.Start(ctx); err != nil {
		slog.Warn("failed to start progress renderer", slog.String("error", err.Error()))
	}

	runner, err := index.NewRunner(index.RunnerDependencies{Renderer: renderer, Extractor: ex})
	if err != nil {
		_ = renderer.Stop()
		return nil, err
	}

	res, err := runner.Run(ctx, index.RunnerConfig{
		Source:         source,
		Destination:    destination,
		Threads:        cfg.Ingest.Threads,
		BatchSize:      cfg.Index.BatchSize,
		Hidden:         cfg.Ingest.Hidden,
		NoIgnore:       cfg.Ingest.NoIgnore,
		FollowSymlinks: cfg.Ingest.FollowSymlinks,
		Exclude:        cfg.Ingest.Exclude,
	})
	_ = renderer.Stop()
	if err != nil {
		return nil, err
	}

	out := output.New(cmd.OutOrStdout())
	out.Printf("Built index in %d seconds.", int(res.Duration.Seconds()))
	if res.Failed > 0 {
		output.New(cmd.ErrOrStderr()).Warningf("%d files could not be indexed (run with --debug for details)", res.Failed)
	}
	return res, nil
}
