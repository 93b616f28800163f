// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest loads input records into the catalog: each record is
// normalized, fanned out into projections and written through the store
// writer. Records are processed by a bounded pool of workers that share
// only the writer.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-catalog/internal/keywords"
	"github.com/pdiddy/paper-catalog/internal/metrics"
	"github.com/pdiddy/paper-catalog/internal/normalize"
	"github.com/pdiddy/paper-catalog/internal/projection"
	"github.com/pdiddy/paper-catalog/internal/store"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 4

// Pipeline ingests records through a store writer.
type Pipeline struct {
	writer   *store.Writer
	keywords int
	workers  int
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithKeywords sets the number of keywords extracted per abstract.
func WithKeywords(k int) Option {
	return func(p *Pipeline) { p.keywords = k }
}

// WithWorkers sets the worker pool size; values below one are ignored.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the pipeline's logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records written items and skipped records in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// NewPipeline returns a Pipeline writing through w.
func NewPipeline(w *store.Writer, opts ...Option) *Pipeline {
	p := &Pipeline{
		writer:   w,
		keywords: keywords.DefaultCount,
		workers:  DefaultWorkers,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ingests records and writes one progress line per record to out.
// A record that fails normalization is skipped and counted. A store
// failure stops the run: Run returns the report of the work already
// durable together with the *store.StoreError, whose Written and Tally
// cover the whole run.
func (p *Pipeline) Run(ctx context.Context, records []normalize.Record, out io.Writer) (Report, error) {
	report := Report{RunID: uuid.NewString(), Records: len(records)}
	logger := p.logger.With(zap.String("run_id", report.RunID))
	logger.Info("ingestion started",
		zap.Int("records", len(records)),
		zap.Int("workers", p.workers),
		zap.Int("keywords", p.keywords))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			paper, err := normalize.Paper(rec)
			if err != nil {
				mu.Lock()
				defer mu.Unlock()
				report.Skipped++
				fmt.Fprintf(out, "skipped record %d: %v\n", i, err)
				logger.Warn("record skipped", zap.Int("record", i), zap.Error(err))
				if p.metrics != nil {
					p.metrics.PapersSkipped.Inc()
				}
				return nil
			}

			items := projection.Build(paper, p.keywords)
			written, err := p.writer.Write(gctx, items)

			mu.Lock()
			defer mu.Unlock()
			report.Items.Merge(written)
			if p.metrics != nil {
				p.metrics.AddWritten(written)
			}
			if err != nil {
				report.Partial += written.Total()
				fmt.Fprintf(out, "failed  %s: %v\n", paper.ID, err)
				logger.Error("paper write failed",
					zap.String("arxiv_id", paper.ID),
					zap.Int("written", written.Total()),
					zap.Error(err))
				return fmt.Errorf("ingesting %s: %w", paper.ID, err)
			}
			report.Papers++
			fmt.Fprintf(out, "indexing %s (%d items)\n", paper.ID, len(items))
			return nil
		})
	}

	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		var se *store.StoreError
		if errors.As(err, &se) {
			se.Written = report.Items.Total()
			se.Tally = report.Items
		}
		logger.Error("ingestion aborted", zap.Int("papers", report.Papers), zap.Error(err))
		return report, err
	}

	logger.Info("ingestion finished",
		zap.Int("papers", report.Papers),
		zap.Int("skipped", report.Skipped),
		zap.Int("items", report.Items.Total()))
	return report, nil
}
