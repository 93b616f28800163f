// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists projections to the single table and runs
// key-range lookups against it. Backends live in subpackages: sqlitestore
// for local catalogs and dynamostore for DynamoDB.
//
// An item is identified by its partition key and range key
// (types.Projection.RangeKey). Writing an item with an existing identity
// overwrites it; nothing is merged and stale items are never removed.
package store

import (
	"context"

	"github.com/pdiddy/paper-catalog/pkg/types"
)

// Index names a key a lookup runs against.
type Index string

const (
	// Primary is the table's own key: partition key PK, sort key SK. Only
	// category projections are visible through it.
	Primary Index = ""

	// AuthorIndex is keyed by GSI1PK and sorted by SK.
	AuthorIndex Index = "AuthorIndex"

	// PaperIDIndex is keyed by GSI2PK.
	PaperIDIndex Index = "PaperIdIndex"

	// KeywordIndex is keyed by GSI3PK and sorted by SK.
	KeywordIndex Index = "KeywordIndex"
)

// Indexes lists the secondary indexes of the table.
var Indexes = []Index{AuthorIndex, PaperIDIndex, KeywordIndex}

// KeyQuery is a single key-range lookup: one partition (or index key)
// value, an optional inclusive sort-key range, a direction and a limit.
type KeyQuery struct {
	Index Index

	// Key is the partition key value of Index (PK, GSI1PK, GSI2PK or GSI3PK).
	Key string

	// From and To bound SK inclusively. Both empty means the whole partition.
	From string
	To   string

	// Descending orders results by SK from high to low.
	Descending bool

	// Limit caps the result count. Zero means no limit.
	Limit int
}

// HasRange reports whether the query restricts the sort key.
func (q KeyQuery) HasRange() bool {
	return q.From != "" || q.To != ""
}

// Table is the single-table backend. Implementations must be safe for
// concurrent use.
type Table interface {
	// Put writes a batch of at most BatchSize items. It returns the items
	// the backend accepted but did not write (to be resubmitted) and an
	// error when the call failed as a whole. A non-nil error means none of
	// the batch was written.
	Put(ctx context.Context, batch []types.Projection) (unprocessed []types.Projection, err error)

	// Query runs one key-range lookup and returns matching items in sort
	// key order.
	Query(ctx context.Context, q KeyQuery) ([]types.Projection, error)

	// Close releases the backend's resources.
	Close() error
}
