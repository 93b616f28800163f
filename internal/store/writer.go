// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-catalog/internal/backoff"
	"github.com/pdiddy/paper-catalog/pkg/types"
)

// BatchSize is the largest batch handed to Table.Put, the DynamoDB
// BatchWriteItem limit.
const BatchSize = 25

// Writer persists projections in batches, retrying transient failures with
// exponential backoff.
type Writer struct {
	table      Table
	batchSize  int
	maxRetries int
	logger     *zap.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithBatchSize sets the batch size; values outside 1..BatchSize are ignored.
func WithBatchSize(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 && n <= BatchSize {
			w.batchSize = n
		}
	}
}

// WithMaxRetries sets the retry count for transient failures. Zero uses
// the backoff default; a negative value disables retries.
func WithMaxRetries(n int) WriterOption {
	return func(w *Writer) { w.maxRetries = n }
}

// WithLogger sets the writer's logger.
func WithLogger(l *zap.Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// NewWriter returns a Writer over table.
func NewWriter(table Table, opts ...WriterOption) *Writer {
	w := &Writer{
		table:     table,
		batchSize: BatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write persists items in order, batch by batch. Items that share an
// identity overwrite each other. The call is not atomic: on failure it
// returns a *StoreError whose Written and Tally count the items already
// durable, and the caller decides whether to resubmit the rest.
func (w *Writer) Write(ctx context.Context, items []types.Projection) (types.Tally, error) {
	var written types.Tally

	for start := 0; start < len(items); start += w.batchSize {
		end := min(start+w.batchSize, len(items))
		batch := items[start:end]

		if err := validate(batch); err != nil {
			return written, &StoreError{Written: written.Total(), Tally: written, Err: err}
		}

		done, err := w.putBatch(ctx, batch)
		written.Merge(done)
		if err != nil {
			return written, &StoreError{Written: written.Total(), Tally: written, Err: err}
		}
	}

	return written, nil
}

// putBatch writes one batch, resubmitting unprocessed items and retrying
// transient errors until maxRetries is exhausted.
func (w *Writer) putBatch(ctx context.Context, batch []types.Projection) (types.Tally, error) {
	var done types.Tally
	pending := batch

	err := backoff.Retry(ctx, w.maxRetries, func(attempt int) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		unprocessed, err := w.table.Put(ctx, pending)
		if err != nil {
			if IsTransient(err) {
				w.logger.Warn("transient store error, backing off",
					zap.Int("attempt", attempt+1),
					zap.Int("pending", len(pending)),
					zap.Error(err))
				return true, err
			}
			return false, err
		}

		for _, it := range written(pending, unprocessed) {
			done.Add(it)
		}
		if len(unprocessed) == 0 {
			return false, nil
		}

		w.logger.Debug("unprocessed items, backing off",
			zap.Int("attempt", attempt+1),
			zap.Int("unprocessed", len(unprocessed)))
		pending = unprocessed
		return true, fmt.Errorf("%d items left unprocessed", len(unprocessed))
	})
	return done, err
}

// written returns the items of pending that are not in unprocessed.
func written(pending, unprocessed []types.Projection) []types.Projection {
	if len(unprocessed) == 0 {
		return pending
	}
	left := make(map[string]int, len(unprocessed))
	for _, it := range unprocessed {
		left[identity(it)]++
	}
	var out []types.Projection
	for _, it := range pending {
		id := identity(it)
		if left[id] > 0 {
			left[id]--
			continue
		}
		out = append(out, it)
	}
	return out
}

func identity(p types.Projection) string {
	return p.PK + "\x00" + p.RangeKey()
}

// validate rejects items the table cannot key.
func validate(batch []types.Projection) error {
	for _, it := range batch {
		if it.PK == "" || it.SK == "" {
			return fmt.Errorf("%w: empty partition or sort key (PK=%q SK=%q)", ErrInvalidKey, it.PK, it.SK)
		}
	}
	return nil
}
