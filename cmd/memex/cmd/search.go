package cmd

import (
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	merrors "github.com/Aman-CERP/memex/internal/errors"
	"github.com/Aman-CERP/memex/internal/output"
	"github.com/Aman-CERP/memex/internal/search"
)

type searchOptions struct {
	index  string
	limit  int
	offset int
	format string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query a built index from the command line",
		Long: heredoc.Doc(`
			Run one query against an index written by 'memex build'.

			Queries use the same syntax as the HTTP endpoint. Bare terms match
			titles and bodies, "quoted phrases" match in order, +term is required,
			-term is excluded and field:value addresses title, body, loc or
			archive_loc.
		`),
		Example: heredoc.Doc(`
			memex search --index ~/.memex/docs.idx invoice 2024
			memex search -i ~/.memex/docs.idx -n 5 --format json 'title:report'
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.index, "index", "i", "", "Index directory written by 'memex build'")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", search.DefaultNHits, "Maximum number of results")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Number of results to skip")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return merrors.New(merrors.ErrCodeInvalidInput, err.Error(), err)
	}
	if strings.TrimSpace(query) == "" {
		return merrors.New(merrors.ErrCodeQueryEmpty, "query is empty", nil)
	}

	idx, err := openExisting(opts.index)
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	ctx, stop := signalContext(cmd)
	defer stop()

	req := search.Request{Query: query, NHits: opts.limit, Offset: opts.offset}
	resp, err := search.NewService(idx).Search(ctx, req)
	if err != nil {
		return err
	}

	offset := opts.offset
	if offset < 0 {
		offset = 0
	}
	return output.New(cmd.OutOrStdout()).Results(resp, offset, format)
}
