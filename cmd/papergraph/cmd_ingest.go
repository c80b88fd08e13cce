package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alaris-labs/papergraph/pkg/extract"
	"github.com/alaris-labs/papergraph/pkg/graph"
	"github.com/alaris-labs/papergraph/pkg/loader"
	fileloader "github.com/alaris-labs/papergraph/pkg/loader/io"
	"github.com/alaris-labs/papergraph/pkg/loader/pdf"
	"github.com/alaris-labs/papergraph/pkg/loader/web"
	"github.com/alaris-labs/papergraph/pkg/logger"
	"github.com/alaris-labs/papergraph/pkg/pipeline"
	pgstore "github.com/alaris-labs/papergraph/pkg/store/pgx"
)

var ingestExtensions = map[string]bool{".txt": true, ".md": true, ".pdf": true}

type ingestOptions struct {
	dryRun    bool
	parallel  int
	noExtract bool
}

func newIngestCmd(opts *cliOptions) *cobra.Command {
	flags := &ingestOptions{}
	cmd := &cobra.Command{
		Use:     "ingest [file, directory or URL...]",
		Short:   "Ingest paper files and save their graphs",
		Aliases: []string{"i"},
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, opts, flags, args)
		},
	}
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "print the graphs as JSON instead of saving them")
	cmd.Flags().IntVarP(&flags.parallel, "parallel", "p", 0, "documents processed at once (default INGEST_PARALLEL)")
	cmd.Flags().BoolVar(&flags.noExtract, "no-extract", false, "skip concept and author extraction")
	return cmd
}

// collectFiles expands directories into the paper files they contain.
// URLs are kept as given.
func collectFiles(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if web.IsURL(p) {
			out = append(out, p)
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && ingestExtensions[strings.ToLower(filepath.Ext(path))] {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no paper files found")
	}
	return out, nil
}

func runIngest(cmd *cobra.Command, opts *cliOptions, flags *ingestOptions, args []string) error {
	ctx := cmd.Context()
	cfg := opts.cfg

	paths, err := collectFiles(args)
	if err != nil {
		return err
	}

	params := pipeline.Params{}
	if !flags.noExtract {
		aiClient, err := cfg.AI.NewAIClient()
		if err != nil {
			return err
		}
		extractor := extract.NewLLMExtractor(aiClient, cfg.ExtractParams())
		params.Concepts = extractor
		params.Authors = extractor
	}

	if !flags.dryRun {
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("unable to connect to database: %w", err)
		}
		defer pool.Close()
		params.Store = pgstore.NewGraphDBStorageWithConnection(pool)
	}

	local := pdf.NewTextLoader(fileloader.NewFileLoader())
	remote := pdf.NewTextLoader(web.NewWebLoader(nil))
	files := make([]loader.SourceFile, len(paths))
	for i, p := range paths {
		l := local
		if web.IsURL(p) {
			l = remote
		}
		files[i] = loader.NewSourceFile(strconv.Itoa(i), p, l)
	}

	parallel := flags.parallel
	if parallel <= 0 {
		parallel = cfg.Parallel
	}

	results, runErr := pipeline.New(params).RunFiles(ctx, files, parallel, !flags.dryRun)

	if flags.dryRun {
		graphs := make([]graph.Graph, 0, len(results))
		for _, r := range results {
			if r.Err == nil {
				graphs = append(graphs, r.Graph)
			}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(graphs); err != nil {
			return err
		}
	}

	ok := 0
	for _, r := range results {
		if r.Err == nil {
			ok++
		}
	}
	logger.Info("[CLI] Ingestion finished", "files", len(files), "succeeded", ok, "dry_run", flags.dryRun)
	return runErr
}
