// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package projection computes the denormalized items written for one
// canonical paper. Every paper fans out into four kinds of projection:
//
//	category  PK=CATEGORY#<c>      one per category ("unknown" if none)
//	author    PK=CATEGORY#<first>  GSI1PK=AUTHOR#<a>   one per author
//	id        PK=CATEGORY#<first>  GSI2PK=PAPER#<id>   exactly one
//	keyword   PK=CATEGORY#<first>  GSI3PK=KEYWORD#<k>  one per keyword
//
// All of them share the sort key "<date10>#<id>". The author, id and
// keyword projections are pinned to the first category's partition; a
// lookup through their index therefore returns items whose partition
// depends on the paper's category order.
package projection

import (
	"github.com/pdiddy/paper-catalog/internal/keywords"
	"github.com/pdiddy/paper-catalog/pkg/types"
)

// Build returns the projections of p in write order: category fan-out,
// author fan-out, the id projection, then keyword fan-out driven by the
// top k keywords of the abstract. It performs no I/O.
func Build(p types.Paper, k int) []types.Projection {
	kws := keywords.Extract(p.Abstract, k)
	sk := SortKey(p)
	primary := CategoryKey(p.PrimaryCategory())
	categories := p.CategoriesOrUnknown()

	out := make([]types.Projection, 0, len(categories)+len(p.Authors)+1+len(kws))

	full := types.Payload{
		ArxivID:    p.ID,
		Title:      p.Title,
		Authors:    p.Authors,
		Abstract:   p.Abstract,
		Categories: p.Categories,
		Keywords:   kws,
		Published:  p.Published,
	}
	for _, c := range categories {
		out = append(out, types.Projection{
			Kind:    types.KindCategory,
			PK:      CategoryKey(c),
			SK:      sk,
			Payload: full,
		})
	}

	brief := types.Payload{
		ArxivID:   p.ID,
		Title:     p.Title,
		Authors:   p.Authors,
		Published: p.Published,
	}
	for _, a := range p.Authors {
		out = append(out, types.Projection{
			Kind:    types.KindAuthor,
			PK:      primary,
			SK:      sk,
			GSI1PK:  AuthorKey(a),
			Payload: brief,
		})
	}

	out = append(out, types.Projection{
		Kind:    types.KindID,
		PK:      primary,
		SK:      sk,
		GSI2PK:  PaperKey(p.ID),
		Payload: brief,
	})

	for _, kw := range kws {
		out = append(out, types.Projection{
			Kind:    types.KindKeyword,
			PK:      primary,
			SK:      sk,
			GSI3PK:  KeywordKey(kw),
			Payload: brief,
		})
	}

	return out
}

// Count returns the number of projections Build produces for p:
// max(1, categories) + authors + 1 + keywords.
func Count(p types.Paper, k int) int {
	return len(p.CategoriesOrUnknown()) + len(p.Authors) + 1 + len(keywords.Extract(p.Abstract, k))
}

// TallyOf counts projections by kind.
func TallyOf(items []types.Projection) types.Tally {
	var t types.Tally
	for _, it := range items {
		t.Add(it)
	}
	return t
}
