// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package projection

import (
	"strings"

	"github.com/pdiddy/paper-catalog/pkg/types"
)

// Key prefixes of the single-table schema.
const (
	CategoryPrefix = "CATEGORY#"
	AuthorPrefix   = "AUTHOR#"
	PaperPrefix    = "PAPER#"
	KeywordPrefix  = "KEYWORD#"
)

// MaxSuffix sorts after any sort-key character the catalog produces. It
// closes the upper bound of a date range so that every "<date>#<id>" of
// the end date falls inside it. U+10FFFF is used instead of a raw 0xFF
// byte because DynamoDB only accepts valid UTF-8 key values.
const MaxSuffix = "\U0010FFFF"

// CategoryKey returns the partition key of a category.
func CategoryKey(category string) string { return CategoryPrefix + category }

// AuthorKey returns the AuthorIndex key of an author.
func AuthorKey(author string) string { return AuthorPrefix + author }

// PaperKey returns the PaperIdIndex key of a paper identifier.
func PaperKey(id string) string { return PaperPrefix + id }

// KeywordKey returns the KeywordIndex key of a keyword, lowercased to match
// extractor output.
func KeywordKey(keyword string) string { return KeywordPrefix + strings.ToLower(keyword) }

// SortKey returns "<date10>#<id>", the sort key shared by every projection
// of p.
func SortKey(p types.Paper) string { return p.DatePrefix() + "#" + p.ID }

// DateLowerBound returns the inclusive lower sort-key bound for a start date.
func DateLowerBound(start string) string { return start + "#" }

// DateUpperBound returns the inclusive upper sort-key bound for an end date.
func DateUpperBound(end string) string { return end + "#" + MaxSuffix }
