// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-catalog/internal/metrics"
	"github.com/pdiddy/paper-catalog/internal/normalize"
	"github.com/pdiddy/paper-catalog/internal/query"
	"github.com/pdiddy/paper-catalog/internal/store"
	"github.com/pdiddy/paper-catalog/internal/store/sqlitestore"
	"github.com/pdiddy/paper-catalog/pkg/types"
)

func testTable(t *testing.T) *sqlitestore.Table {
	t.Helper()
	table, err := sqlitestore.Open(filepath.Join(t.TempDir(), "papers.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { table.Close() })
	return table
}

func records() []normalize.Record {
	return []normalize.Record{
		{
			"id":         "P1",
			"title":      "  Clustering Data ",
			"authors":    []any{"Alice", "Bob"},
			"abstract":   "this paper proposes a new method for clustering data",
			"categories": []any{"cs.LG"},
			"published":  "2024-03-01",
		},
		{
			"arxiv_id":      "P2",
			"title":         "No Categories",
			"author_list":   []any{"Carol"},
			"category_list": []any{},
			"date":          "2023-05-05",
		},
		{
			"title": "missing identifier",
		},
	}
}

func TestRunScenario(t *testing.T) {
	table := testTable(t)
	p := NewPipeline(store.NewWriter(table), WithKeywords(5), WithWorkers(2))

	var out bytes.Buffer
	report, err := p.Run(context.Background(), records(), &out)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 2, report.Papers)
	assert.Equal(t, 1, report.Skipped)

	// P1: 1 category, 2 authors, 1 id, 4 keywords; P2: 1 category, 1 author, 1 id.
	assert.Equal(t, types.Tally{Category: 2, Author: 3, ID: 2, Keyword: 4}, report.Items)

	stored, err := table.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.Items, stored)

	assert.Contains(t, out.String(), "indexing P1 (8 items)")
	assert.Contains(t, out.String(), "indexing P2 (3 items)")
	assert.Contains(t, out.String(), "skipped record 2:")
}

func TestRunEmptyCategoriesUseUnknown(t *testing.T) {
	table := testTable(t)
	_, err := NewPipeline(store.NewWriter(table)).Run(context.Background(), records()[1:2], &bytes.Buffer{})
	require.NoError(t, err)

	res, err := query.NewResolver(table).Resolve(context.Background(), query.Recent(types.UnknownCategory, 10))
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "CATEGORY#unknown", res.Results[0].PK)
}

func TestRunIsIdempotent(t *testing.T) {
	table := testTable(t)
	p := NewPipeline(store.NewWriter(table), WithKeywords(5))

	first, err := p.Run(context.Background(), records(), &bytes.Buffer{})
	require.NoError(t, err)
	before, err := table.Count(context.Background())
	require.NoError(t, err)

	second, err := p.Run(context.Background(), records(), &bytes.Buffer{})
	require.NoError(t, err)
	after, err := table.Count(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Items, second.Items, "every run writes the same items")
	assert.Equal(t, before, after, "re-ingesting overwrites instead of duplicating")
	assert.Equal(t, 2, after.ID)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunRoundTrip(t *testing.T) {
	table := testTable(t)
	_, err := NewPipeline(store.NewWriter(table)).Run(context.Background(), records(), &bytes.Buffer{})
	require.NoError(t, err)

	got, err := query.NewResolver(table).Paper(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, "P1", got.ArxivID)
	assert.Equal(t, "Clustering Data", got.Title)
	assert.Equal(t, []string{"Alice", "Bob"}, got.Authors)
	assert.Equal(t, "2024-03-01", got.Published)
}

// brokenTable accepts the first n Put calls and fails the rest.
type brokenTable struct {
	store.Table
	ok int
}

func (b *brokenTable) Put(ctx context.Context, batch []types.Projection) ([]types.Projection, error) {
	if b.ok == 0 {
		return nil, errors.New("disk full")
	}
	b.ok--
	return b.Table.Put(ctx, batch)
}

func TestRunStopsOnStoreError(t *testing.T) {
	table := &brokenTable{Table: testTable(t), ok: 1}
	p := NewPipeline(store.NewWriter(table), WithWorkers(1), WithKeywords(5))

	var out bytes.Buffer
	report, err := p.Run(context.Background(), records(), &out)
	require.Error(t, err)

	var se *store.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 8, se.Written, "the first paper was durable before the failure")
	assert.Equal(t, 8, report.Items.Total())
	assert.Equal(t, 1, report.Papers)
	assert.True(t, strings.Contains(out.String(), "failed  P2"))
}

func TestRunPartialPaperLeftOutOfFactor(t *testing.T) {
	table := &brokenTable{Table: testTable(t), ok: 5}
	w := store.NewWriter(table, store.WithBatchSize(2))
	p := NewPipeline(w, WithWorkers(1), WithKeywords(5))

	var out bytes.Buffer
	report, err := p.Run(context.Background(), records(), &out)
	require.Error(t, err)

	assert.Equal(t, 1, report.Papers)
	assert.Equal(t, 10, report.Items.Total(), "P1 plus the first batch of P2")
	assert.Equal(t, 2, report.Partial)
	assert.InDelta(t, 8.0, report.Factor(), 1e-9)

	var se *store.StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 10, se.Written)
	assert.Equal(t, report.Items, se.Tally)
	assert.Equal(t, 1, strings.Count(err.Error(), "store write failed"))
	assert.Contains(t, err.Error(), "ingesting P2")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewPipeline(store.NewWriter(testTable(t))).Run(ctx, records(), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Papers)
}

func TestRunMetrics(t *testing.T) {
	c := metrics.New()
	p := NewPipeline(store.NewWriter(testTable(t)), WithKeywords(5), WithMetrics(c))

	_, err := p.Run(context.Background(), records(), &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.PapersSkipped))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.ItemsWritten.WithLabelValues("author")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.ItemsWritten.WithLabelValues("keyword")))
}

func TestReportPrint(t *testing.T) {
	r := Report{
		Papers:  2,
		Skipped: 1,
		Items:   types.Tally{Category: 2, Author: 3, ID: 2, Keyword: 4},
	}
	var out bytes.Buffer
	r.Print(&out)

	assert.Equal(t,
		"Created items: total=11, categories=2, authors=3, keywords=4, by_id=2\n"+
			"Skipped records: 1\n"+
			"Denormalization factor: 5.50x\n",
		out.String())
	assert.InDelta(t, 5.5, r.Factor(), 1e-9)
}

func TestReportNoPapers(t *testing.T) {
	var out bytes.Buffer
	Report{}.Print(&out)
	assert.Equal(t, "Created items: total=0, categories=0, authors=0, keywords=0, by_id=0\n", out.String())
	assert.Zero(t, Report{}.Factor())
}
