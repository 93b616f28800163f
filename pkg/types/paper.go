// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper catalog:
// the canonical Paper produced by normalization, the Projection items
// persisted to the single table, and the configuration structs.
package types

// UnknownCategory substitutes for an empty category list.
const UnknownCategory = "unknown"

// Paper is the canonical paper entity. It is built once per input record
// by the normalizer and never modified afterwards.
type Paper struct {
	// ID is the paper identifier (e.g. "2301.07041"). Required and unique.
	ID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the paper title with surrounding whitespace removed.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order. May be empty.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract. May be empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Categories lists subject categories in source order (e.g. "cs.LG").
	// May be empty.
	Categories []string `json:"categories" yaml:"categories"`

	// Published is the publication date as given by the source, ISO-ish.
	Published string `json:"published" yaml:"published"`
}

// DatePrefix returns the first ten characters of Published, the sortable
// date part of every sort key. Shorter values are returned whole.
func (p Paper) DatePrefix() string {
	r := []rune(p.Published)
	if len(r) <= 10 {
		return p.Published
	}
	return string(r[:10])
}

// PrimaryCategory returns the first category, or UnknownCategory when the
// paper has none.
func (p Paper) PrimaryCategory() string {
	if len(p.Categories) == 0 {
		return UnknownCategory
	}
	return p.Categories[0]
}

// CategoriesOrUnknown returns Categories, or a single UnknownCategory
// entry when the list is empty.
func (p Paper) CategoriesOrUnknown() []string {
	if len(p.Categories) == 0 {
		return []string{UnknownCategory}
	}
	return p.Categories
}
