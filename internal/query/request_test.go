// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-catalog/internal/projection"
	"github.com/pdiddy/paper-catalog/internal/store"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want store.KeyQuery
	}{
		{
			name: "recent in category",
			req:  Recent("cs.LG", 5),
			want: store.KeyQuery{Key: "CATEGORY#cs.LG", Descending: true, Limit: 5},
		},
		{
			name: "recent defaults the limit",
			req:  Recent("cs.LG", 0),
			want: store.KeyQuery{Key: "CATEGORY#cs.LG", Descending: true, Limit: DefaultLimit},
		},
		{
			name: "papers by author",
			req:  ByAuthor("Alice"),
			want: store.KeyQuery{Index: store.AuthorIndex, Key: "AUTHOR#Alice"},
		},
		{
			name: "paper by id",
			req:  ByID("2301.07041"),
			want: store.KeyQuery{Index: store.PaperIDIndex, Key: "PAPER#2301.07041"},
		},
		{
			name: "date range",
			req:  DateRange("cs.LG", "2023-01-01", "2023-01-31"),
			want: store.KeyQuery{
				Key:  "CATEGORY#cs.LG",
				From: "2023-01-01#",
				To:   "2023-01-31#" + projection.MaxSuffix,
			},
		},
		{
			name: "date range with open bounds",
			req:  DateRange("cs.LG", "", ""),
			want: store.KeyQuery{
				Key:  "CATEGORY#cs.LG",
				From: DefaultStart + "#",
				To:   DefaultEnd + "#" + projection.MaxSuffix,
			},
		},
		{
			name: "keyword is lowercased",
			req:  ByKeyword("Clustering", 3),
			want: store.KeyQuery{Index: store.KeywordIndex, Key: "KEYWORD#clustering", Descending: true, Limit: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.Lookup()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"recent without category", Recent("", 5)},
		{"author without name", ByAuthor("")},
		{"id without id", ByID("")},
		{"date range without category", DateRange("", "2023-01-01", "2023-01-31")},
		{"keyword without keyword", ByKeyword("", 5)},
		{"negative limit", Recent("cs.LG", -1)},
		{"unknown pattern", Request{Pattern: "scan"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.req.Validate(), ErrInvalidRequest)
			_, err := tt.req.Lookup()
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestEveryPatternHasLookupAndParameters(t *testing.T) {
	reqs := map[Pattern]Request{
		RecentInCategory:  Recent("cs.LG", 1),
		PapersByAuthor:    ByAuthor("Alice"),
		PaperByID:         ByID("P1"),
		PapersInDateRange: DateRange("cs.LG", "2023-01-01", "2023-12-31"),
		PapersByKeyword:   ByKeyword("data", 1),
	}
	require.Len(t, reqs, len(Patterns))

	for _, p := range Patterns {
		req, ok := reqs[p]
		require.True(t, ok, "no request for %s", p)
		_, err := req.Lookup()
		assert.NoError(t, err, p)
		assert.NotEmpty(t, req.Parameters(), p)
	}
}

func TestParameters(t *testing.T) {
	assert.Equal(t, map[string]any{"category": "cs.LG", "limit": 20}, Recent("cs.LG", 20).Parameters())
	assert.Equal(t, map[string]any{"arxiv_id": "P1"}, ByID("P1").Parameters())
	assert.Equal(t,
		map[string]any{"category": "cs.LG", "start_date": "2023-01-01", "end_date": "2023-01-31"},
		DateRange("cs.LG", "2023-01-01", "2023-01-31").Parameters())
}
