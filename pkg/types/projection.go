// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ProjectionKind identifies the access pattern a projection serves.
type ProjectionKind string

const (
	KindCategory ProjectionKind = "category"
	KindAuthor   ProjectionKind = "author"
	KindID       ProjectionKind = "id"
	KindKeyword  ProjectionKind = "keyword"
)

// Payload holds the paper fields copied onto a projection. Category
// projections carry every field; author, id and keyword projections carry
// only ArxivID, Title, Authors and Published.
type Payload struct {
	ArxivID    string   `json:"arxiv_id" yaml:"arxiv_id" dynamodbav:"arxiv_id"`
	Title      string   `json:"title" yaml:"title" dynamodbav:"title"`
	Authors    []string `json:"authors" yaml:"authors" dynamodbav:"authors"`
	Abstract   string   `json:"abstract,omitempty" yaml:"abstract,omitempty" dynamodbav:"abstract,omitempty"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty" dynamodbav:"categories,omitempty"`
	Keywords   []string `json:"keywords,omitempty" yaml:"keywords,omitempty" dynamodbav:"keywords,omitempty"`
	Published  string   `json:"published" yaml:"published" dynamodbav:"published"`
}

// Projection is one denormalized item of the single table. Exactly one of
// GSI1PK, GSI2PK and GSI3PK is set on author, id and keyword projections;
// none is set on category projections. A missing index attribute means the
// item is not part of that index.
type Projection struct {
	Kind ProjectionKind `json:"kind" yaml:"kind" dynamodbav:"kind"`

	// PK is the partition key, always "CATEGORY#<category>".
	PK string `json:"PK" yaml:"PK" dynamodbav:"PK"`

	// SK is the sort key "<date10>#<id>", shared by all projections of a paper.
	SK string `json:"SK" yaml:"SK" dynamodbav:"SK"`

	// GSI1PK is "AUTHOR#<author>" on author projections (AuthorIndex).
	GSI1PK string `json:"GSI1PK,omitempty" yaml:"GSI1PK,omitempty" dynamodbav:"GSI1PK,omitempty"`

	// GSI2PK is "PAPER#<id>" on the id projection (PaperIdIndex).
	GSI2PK string `json:"GSI2PK,omitempty" yaml:"GSI2PK,omitempty" dynamodbav:"GSI2PK,omitempty"`

	// GSI3PK is "KEYWORD#<keyword>" on keyword projections (KeywordIndex).
	GSI3PK string `json:"GSI3PK,omitempty" yaml:"GSI3PK,omitempty" dynamodbav:"GSI3PK,omitempty"`

	Payload `yaml:",inline"`
}

// IndexKey returns the secondary-index key value the projection carries,
// or "" for category projections.
func (p Projection) IndexKey() string {
	switch {
	case p.GSI1PK != "":
		return p.GSI1PK
	case p.GSI2PK != "":
		return p.GSI2PK
	default:
		return p.GSI3PK
	}
}

// RangeKey returns the item's identity within its partition. Category
// projections are identified by SK alone; index projections append their
// index key so that the author, id and keyword projections of one paper do
// not overwrite each other. Ordering by RangeKey within a partition orders
// by SK first.
func (p Projection) RangeKey() string {
	ik := p.IndexKey()
	if ik == "" {
		return p.SK
	}
	return p.SK + "#" + ik
}

// Tally counts projections by kind. It backs the ingestion report's
// per-kind counters.
type Tally struct {
	Category int `json:"category" yaml:"category"`
	Author   int `json:"author" yaml:"author"`
	ID       int `json:"id" yaml:"id"`
	Keyword  int `json:"keyword" yaml:"keyword"`
}

// Add counts one projection.
func (t *Tally) Add(p Projection) {
	switch p.Kind {
	case KindCategory:
		t.Category++
	case KindAuthor:
		t.Author++
	case KindID:
		t.ID++
	case KindKeyword:
		t.Keyword++
	}
}

// Merge adds the counts of o to t.
func (t *Tally) Merge(o Tally) {
	t.Category += o.Category
	t.Author += o.Author
	t.ID += o.ID
	t.Keyword += o.Keyword
}

// Total returns the number of projections counted.
func (t Tally) Total() int {
	return t.Category + t.Author + t.ID + t.Keyword
}
