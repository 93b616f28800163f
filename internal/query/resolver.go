// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query resolves the catalog's access patterns. Each pattern maps
// to exactly one key-range lookup against the table's primary key or one
// of its secondary indexes; there are no scans and no joins.
package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-catalog/internal/metrics"
	"github.com/pdiddy/paper-catalog/internal/store"
	"github.com/pdiddy/paper-catalog/pkg/types"
)

// ErrNotFound is returned by Resolver.Paper when no paper has the id.
var ErrNotFound = errors.New("paper not found")

// Result is the answer to one request.
type Result struct {
	Pattern    Pattern            `json:"pattern" yaml:"pattern"`
	Parameters map[string]any     `json:"parameters" yaml:"parameters"`
	Results    []types.Projection `json:"results" yaml:"results"`
	Count      int                `json:"count" yaml:"count"`
	ElapsedMS  float64            `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// Found reports whether the lookup matched at least one item.
func (r Result) Found() bool { return r.Count > 0 }

// Resolver runs requests against a table. It is safe for concurrent use.
type Resolver struct {
	table   store.Table
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records lookup latency and result counts in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Resolver) { r.metrics = c }
}

// NewResolver returns a Resolver over table.
func NewResolver(table store.Table, opts ...Option) *Resolver {
	r := &Resolver{table: table, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the request's lookup. A lookup matching nothing is an
// empty result, not an error.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	kq, err := req.Lookup()
	if err != nil {
		return Result{}, err
	}
	req = req.normalized()

	start := time.Now()
	items, err := r.table.Query(ctx, kq)
	elapsed := time.Since(start)
	if err != nil {
		r.logger.Error("query failed",
			zap.String("pattern", string(req.Pattern)),
			zap.String("key", kq.Key),
			zap.Error(err))
		return Result{}, fmt.Errorf("resolving %s: %w", req.Pattern, err)
	}
	if items == nil {
		items = []types.Projection{}
	}

	if r.metrics != nil {
		r.metrics.QueryDuration.WithLabelValues(string(req.Pattern)).Observe(elapsed.Seconds())
		r.metrics.QueryResults.WithLabelValues(string(req.Pattern)).Add(float64(len(items)))
	}
	r.logger.Debug("query resolved",
		zap.String("pattern", string(req.Pattern)),
		zap.String("key", kq.Key),
		zap.Int("count", len(items)),
		zap.Duration("elapsed", elapsed))

	return Result{
		Pattern:    req.Pattern,
		Parameters: req.Parameters(),
		Results:    items,
		Count:      len(items),
		ElapsedMS:  math.Round(float64(elapsed.Microseconds())/10) / 100,
	}, nil
}

// Paper returns the id projection of a paper, or ErrNotFound.
func (r *Resolver) Paper(ctx context.Context, id string) (types.Projection, error) {
	res, err := r.Resolve(ctx, ByID(id))
	if err != nil {
		return types.Projection{}, err
	}
	if !res.Found() {
		return types.Projection{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return res.Results[0], nil
}
