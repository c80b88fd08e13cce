package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/alaris-labs/papergraph/internal/timing"
	"github.com/alaris-labs/papergraph/internal/util"
	"github.com/alaris-labs/papergraph/pkg/ingest"
	"github.com/alaris-labs/papergraph/pkg/leaselock"
	"github.com/alaris-labs/papergraph/pkg/loader"
	"github.com/alaris-labs/papergraph/pkg/logger"
	"github.com/alaris-labs/papergraph/pkg/pipeline"
)

// Processor ingests papers named by queue messages.
type Processor struct {
	// Loader reads uploaded objects, usually the S3 loader wrapped by the
	// PDF text loader.
	Loader   loader.SourceLoader
	Pipeline *pipeline.Pipeline
	// Locker keeps two workers from ingesting the same object at once.
	// Optional.
	Locker leaselock.Locker
	// Timer records ingestion durations. Optional.
	Timer Timer
}

// Timer is implemented by *timing.Recorder.
type Timer interface {
	AddProcessingTime(ctx context.Context, statType string, amount int, durationMs int64) error
	PredictProcessingTime(ctx context.Context, statType string, amount int) (int64, error)
}

var _ Timer = (*timing.Recorder)(nil)

// ProcessIngestMessage loads, segments, extracts and saves the paper of one
// message. Malformed messages are marked permanent.
func (p *Processor) ProcessIngestMessage(ctx context.Context, body []byte) error {
	msg, err := DecodeIngestMsg(body)
	if err != nil {
		return util.Permanent(err)
	}

	run := func(ctx context.Context) error {
		file := loader.NewSourceFile(msg.CorrelationID, msg.FileKey, p.Loader)
		content, err := file.GetBytes(ctx)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", msg.FileKey, err)
		}

		fallback := msg.FileName
		if fallback == "" {
			fallback = file.Name()
		}
		doc := ingest.FromText(string(content), fallback)
		chars := len([]rune(doc.RawText))

		if p.Timer != nil {
			prediction, err := p.Timer.PredictProcessingTime(ctx, timing.StatIngest, chars)
			if err != nil {
				prediction = 0
			}
			logger.Info("[Queue] Prediction for ingestion", "file", msg.FileKey, "chars", chars, "time_ms", prediction)
		}

		start := time.Now()
		g, err := p.Pipeline.Run(ctx, doc)
		if err != nil {
			return err
		}
		duration := time.Since(start)
		logger.Info(
			"[Queue] Paper ingested",
			"file", msg.FileKey,
			"correlation_id", msg.CorrelationID,
			"nodes", len(g.Nodes),
			"edges", len(g.Edges),
			"duration", duration,
		)

		if p.Timer != nil {
			if err := p.Timer.AddProcessingTime(ctx, timing.StatIngest, chars, duration.Milliseconds()); err != nil {
				logger.Warn("[Queue] Failed to record processing time", "file", msg.FileKey, "err", err)
			}
		}
		return nil
	}

	if p.Locker == nil {
		return run(ctx)
	}
	return p.Locker.WithLease(ctx, "ingest:"+msg.FileKey, leaselock.Options{}, run)
}
