package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alaris-labs/papergraph/pkg/extract"
	"github.com/alaris-labs/papergraph/pkg/graph"
	"github.com/alaris-labs/papergraph/pkg/ingest"
	"github.com/alaris-labs/papergraph/pkg/loader"
	"github.com/alaris-labs/papergraph/pkg/logger"
	"github.com/alaris-labs/papergraph/pkg/paper"
	"github.com/alaris-labs/papergraph/pkg/store"
)

// ErrNoStore is returned by Run when the pipeline was built without a store.
var ErrNoStore = errors.New("pipeline has no store")

type Params struct {
	Concepts extract.ConceptExtractor
	Authors  extract.AuthorExtractor
	Store    store.GraphSaver
}

// Pipeline turns documents into graphs and persists them. It holds no
// per-document state and may be shared between goroutines.
type Pipeline struct {
	extractor extract.Degrading
	store     store.GraphSaver
}

// New creates a pipeline. Extraction failures of the given extractors are
// logged and treated as zero entities; nil extractors never find any.
func New(params Params) *Pipeline {
	return &Pipeline{
		extractor: extract.Degrading{Concepts: params.Concepts, Authors: params.Authors},
		store:     params.Store,
	}
}

// Build derives the graph of doc: paper and sections, then concepts, then
// authors. Only cancellation of ctx is returned as an error.
func (p *Pipeline) Build(ctx context.Context, doc paper.Document) (graph.Graph, error) {
	start := time.Now()
	paperID := graph.PaperNodeID(doc)
	g := graph.FromDocument(doc)

	concepts, err := p.extractor.ExtractConcepts(ctx, doc.RawText)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("concept extraction for %s: %w", paperID, err)
	}
	g = graph.IntegrateConcepts(g, paperID, concepts)
	logger.Debug("[Pipeline] Concepts integrated", "paper", paperID, "concepts", len(concepts), "duration", time.Since(start))

	authorStart := time.Now()
	authors, err := p.extractor.ExtractAuthors(ctx, doc.RawText)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("author extraction for %s: %w", paperID, err)
	}
	g = graph.IntegrateAuthors(g, paperID, authors)
	logger.Debug("[Pipeline] Authors integrated", "paper", paperID, "authors", len(authors), "duration", time.Since(authorStart))

	logger.Info(
		"[Pipeline] Graph built",
		"paper", paperID,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"duration", time.Since(start),
	)
	return g, nil
}

// Run builds the graph of doc and saves it.
func (p *Pipeline) Run(ctx context.Context, doc paper.Document) (graph.Graph, error) {
	if p.store == nil {
		return graph.Graph{}, ErrNoStore
	}
	g, err := p.Build(ctx, doc)
	if err != nil {
		return graph.Graph{}, err
	}

	start := time.Now()
	if err := p.store.SaveGraph(ctx, g); err != nil {
		return graph.Graph{}, fmt.Errorf("failed to save graph of %s: %w", graph.PaperNodeID(doc), err)
	}
	logger.Info("[Pipeline] Graph saved", "paper", graph.PaperNodeID(doc), "duration", time.Since(start))
	return g, nil
}

// RunFile ingests file and runs the pipeline on the resulting document. With
// save false the graph is built but not persisted.
func (p *Pipeline) RunFile(ctx context.Context, file loader.SourceFile, save bool) (graph.Graph, error) {
	doc, err := ingest.Ingest(ctx, file)
	if err != nil {
		return graph.Graph{}, err
	}
	if !save {
		return p.Build(ctx, doc)
	}
	return p.Run(ctx, doc)
}

// Result is the outcome for one file of RunFiles.
type Result struct {
	File  loader.SourceFile
	Graph graph.Graph
	Err   error
}

// RunFiles processes files independently with at most parallel documents in
// flight. A failing file does not stop the others; its error is reported in
// its Result and joined into the returned error. Results keep the order of
// files.
func (p *Pipeline) RunFiles(ctx context.Context, files []loader.SourceFile, parallel int, save bool) ([]Result, error) {
	if parallel <= 0 {
		parallel = 1
	}
	results := make([]Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = Result{File: f, Err: gctx.Err()}
				return gctx.Err()
			}
			out, err := p.RunFile(gctx, f, save)
			results[i] = Result{File: f, Graph: out, Err: err}
			if err != nil {
				logger.Error("[Pipeline] File failed", "file", f.FilePath, "err", err)
				if gctx.Err() != nil {
					return gctx.Err()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.File.FilePath, r.Err))
		}
	}
	return results, errors.Join(errs...)
}
