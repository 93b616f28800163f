// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"errors"
	"fmt"

	"github.com/pdiddy/paper-catalog/internal/projection"
	"github.com/pdiddy/paper-catalog/internal/store"
)

// Pattern names one of the supported access patterns. The set is closed:
// every switch over Pattern in this module handles all five values.
type Pattern string

const (
	RecentInCategory  Pattern = "recent_in_category"
	PapersByAuthor    Pattern = "papers_by_author"
	PaperByID         Pattern = "get_by_id"
	PapersInDateRange Pattern = "date_range"
	PapersByKeyword   Pattern = "keyword"
)

// Patterns lists every access pattern.
var Patterns = []Pattern{RecentInCategory, PapersByAuthor, PaperByID, PapersInDateRange, PapersByKeyword}

// Defaults applied to unset request parameters.
const (
	DefaultCategory = "cs.LG"
	DefaultLimit    = 20
	DefaultStart    = "0000-01-01"
	DefaultEnd      = "9999-12-31"
)

// ErrInvalidRequest marks a request missing a required parameter or
// naming an unknown pattern.
var ErrInvalidRequest = errors.New("invalid query request")

// Request is one access pattern with its parameters. Only the fields the
// pattern uses are read; use the constructors to build one.
type Request struct {
	Pattern  Pattern
	Category string
	Author   string
	ID       string
	Keyword  string
	Start    string
	End      string
	Limit    int
}

// Recent requests the most recent papers of a category.
func Recent(category string, limit int) Request {
	return Request{Pattern: RecentInCategory, Category: category, Limit: limit}
}

// ByAuthor requests every paper of an author, oldest first.
func ByAuthor(author string) Request {
	return Request{Pattern: PapersByAuthor, Author: author}
}

// ByID requests a single paper.
func ByID(id string) Request {
	return Request{Pattern: PaperByID, ID: id}
}

// DateRange requests the papers of a category published between start and
// end, both inclusive. Empty bounds are open.
func DateRange(category, start, end string) Request {
	return Request{Pattern: PapersInDateRange, Category: category, Start: start, End: end}
}

// ByKeyword requests the most recent papers tagged with a keyword.
func ByKeyword(keyword string, limit int) Request {
	return Request{Pattern: PapersByKeyword, Keyword: keyword, Limit: limit}
}

// Validate reports a missing required parameter or a negative limit.
func (r Request) Validate() error {
	var missing string
	switch r.Pattern {
	case RecentInCategory:
		if r.Category == "" {
			missing = "category"
		}
	case PapersByAuthor:
		if r.Author == "" {
			missing = "author"
		}
	case PaperByID:
		if r.ID == "" {
			missing = "arxiv_id"
		}
	case PapersInDateRange:
		if r.Category == "" {
			missing = "category"
		}
	case PapersByKeyword:
		if r.Keyword == "" {
			missing = "keyword"
		}
	default:
		return fmt.Errorf("%w: unknown pattern %q", ErrInvalidRequest, r.Pattern)
	}
	if missing != "" {
		return fmt.Errorf("%w: %s requires %s", ErrInvalidRequest, r.Pattern, missing)
	}
	if r.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidRequest, r.Limit)
	}
	return nil
}

// normalized fills unset limit and date bounds with their defaults.
func (r Request) normalized() Request {
	switch r.Pattern {
	case RecentInCategory, PapersByKeyword:
		if r.Limit == 0 {
			r.Limit = DefaultLimit
		}
	case PapersInDateRange:
		if r.Start == "" {
			r.Start = DefaultStart
		}
		if r.End == "" {
			r.End = DefaultEnd
		}
	}
	return r
}

// Parameters returns the request's parameters under their wire names.
func (r Request) Parameters() map[string]any {
	switch r.Pattern {
	case RecentInCategory:
		return map[string]any{"category": r.Category, "limit": r.Limit}
	case PapersByAuthor:
		return map[string]any{"author": r.Author}
	case PaperByID:
		return map[string]any{"arxiv_id": r.ID}
	case PapersInDateRange:
		return map[string]any{"category": r.Category, "start_date": r.Start, "end_date": r.End}
	case PapersByKeyword:
		return map[string]any{"keyword": r.Keyword, "limit": r.Limit}
	}
	return map[string]any{}
}

// Lookup maps the request to its single key-range lookup.
func (r Request) Lookup() (store.KeyQuery, error) {
	if err := r.Validate(); err != nil {
		return store.KeyQuery{}, err
	}
	r = r.normalized()

	switch r.Pattern {
	case RecentInCategory:
		return store.KeyQuery{
			Key:        projection.CategoryKey(r.Category),
			Descending: true,
			Limit:      r.Limit,
		}, nil
	case PapersByAuthor:
		return store.KeyQuery{
			Index: store.AuthorIndex,
			Key:   projection.AuthorKey(r.Author),
		}, nil
	case PaperByID:
		return store.KeyQuery{
			Index: store.PaperIDIndex,
			Key:   projection.PaperKey(r.ID),
		}, nil
	case PapersInDateRange:
		return store.KeyQuery{
			Key:  projection.CategoryKey(r.Category),
			From: projection.DateLowerBound(r.Start),
			To:   projection.DateUpperBound(r.End),
		}, nil
	case PapersByKeyword:
		return store.KeyQuery{
			Index:      store.KeywordIndex,
			Key:        projection.KeywordKey(r.Keyword),
			Descending: true,
			Limit:      r.Limit,
		}, nil
	}
	return store.KeyQuery{}, fmt.Errorf("%w: unknown pattern %q", ErrInvalidRequest, r.Pattern)
}
