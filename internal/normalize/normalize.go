// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns loosely structured paper records into canonical
// types.Paper values. Each canonical field is resolved from an explicit,
// ordered list of accepted field names; the first present, non-empty value
// wins.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/paper-catalog/pkg/types"
)

// Record is one decoded input record. Keys are source field names.
type Record map[string]any

// Accepted field names per canonical attribute, in priority order.
var (
	IDFields        = []string{"id", "arxiv_id", "paper_id"}
	TitleFields     = []string{"title"}
	AuthorFields    = []string{"authors", "author_list"}
	AbstractFields  = []string{"abstract"}
	CategoryFields  = []string{"categories", "category_list"}
	PublishedFields = []string{"published", "date", "updated"}
)

// ValidationError reports a record that cannot become a canonical paper.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: %s: %s", e.Field, e.Reason)
}

// Paper resolves rec into a canonical paper. Missing fields default to the
// empty string or an empty list. It fails with *ValidationError only when
// no identifier field is present.
func Paper(rec Record) (types.Paper, error) {
	id := firstString(rec, IDFields)
	if id == "" {
		return types.Paper{}, &ValidationError{
			Field:  "id",
			Reason: fmt.Sprintf("none of %s present", strings.Join(IDFields, ", ")),
		}
	}

	return types.Paper{
		ID:         id,
		Title:      strings.TrimSpace(firstString(rec, TitleFields)),
		Authors:    firstList(rec, AuthorFields),
		Abstract:   firstString(rec, AbstractFields),
		Categories: firstList(rec, CategoryFields),
		Published:  firstString(rec, PublishedFields),
	}, nil
}

// lookup returns the first value under names that is present and non-empty.
func lookup(rec Record, names []string) (any, bool) {
	for _, name := range names {
		v, ok := rec[name]
		if ok && !isEmpty(v) {
			return v, true
		}
	}
	return nil, false
}

func firstString(rec Record, names []string) string {
	v, ok := lookup(rec, names)
	if !ok {
		return ""
	}
	return scalarString(v)
}

func firstList(rec Record, names []string) []string {
	v, ok := lookup(rec, names)
	if !ok {
		return []string{}
	}
	switch list := v.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			out = append(out, scalarString(e))
		}
		return out
	case []string:
		return append([]string(nil), list...)
	default:
		return []string{scalarString(v)}
	}
}

// scalarString renders a decoded scalar. Timestamps decoded by YAML are
// formatted as RFC 3339 so the date prefix stays sortable.
func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.Format(time.RFC3339)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// isEmpty mirrors the "falsy" values that fall through to the next alias.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	case bool:
		return !x
	case int:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0
	}
	return false
}
