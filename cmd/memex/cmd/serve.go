package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/memex/internal/api"
	"github.com/Aman-CERP/memex/internal/config"
	merrors "github.com/Aman-CERP/memex/internal/errors"
	"github.com/Aman-CERP/memex/internal/search"
	"github.com/Aman-CERP/memex/internal/store"
)

// serveOptions are the listener flags shared by the root and serve commands.
type serveOptions struct {
	host string
	port int
}

func (o *serveOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.host, "host", "localhost", "Host to listen on (env MEMEX_HOST)")
	cmd.Flags().IntVarP(&o.port, "port", "p", 3000, "Port to listen on (env MEMEX_PORT)")
}

func (o *serveOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = o.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = o.port
	}
}

func newServeCmd() *cobra.Command {
	var opts serveOptions
	var indexPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a previously built index over HTTP",
		Long: heredoc.Doc(`
			Serve an index written by 'memex build'.

			  GET /api/?q=<query>&nhits=<n>&offset=<n>
			  GET /healthz
		`),
		Example: heredoc.Doc(`
			memex serve --index ~/.memex/docs.idx --port 3000
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return merrors.New(merrors.ErrCodeConfigInvalid, err.Error(), err)
			}

			idx, err := openExisting(indexPath)
			if err != nil {
				return err
			}
			defer func() { _ = idx.Close() }()

			ctx, stop := signalContext(cmd)
			defer stop()
			return serveIndex(ctx, cmd, cfg, idx)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&indexPath, "index", "i", "", "Index directory written by 'memex build'")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}

// openExisting opens an index that must already exist on disk.
func openExisting(path string) (*store.Index, error) {
	idx, err := store.OpenExisting(path)
	if errors.Is(err, store.ErrIndexNotFound) {
		return nil, merrors.New(merrors.ErrCodeFileNotFound, fmt.Sprintf("index %s not found", path), err).
			WithSuggestion("Build it first with 'memex build --source <dir> --destination " + path + "'")
	}
	return idx, err
}

// serveIndex serves idx until ctx is cancelled.
func serveIndex(ctx context.Context, cmd *cobra.Command, cfg *config.Config, idx *store.Index) error {
	read, write := cfg.Server.Timeouts()
	srv := api.NewServer(
		api.NewHandler(search.NewService(idx), slog.Default()),
		api.ServerConfig{Addr: cfg.Server.Addr(), ReadTimeout: read, WriteTimeout: write},
		slog.Default(),
	)

	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s\n", net.JoinHostPort(cfg.Server.Host, strconv.Itoa(port)))

	return srv.Serve(ctx, ln)
}
