// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keywords derives a bounded set of topical keywords from free-text
// abstracts. Keywords are one of the denormalization dimensions of the
// catalog: each becomes a KEYWORD# projection.
package keywords

import (
	"sort"
	"strings"
)

// DefaultCount is the number of keywords extracted when none is configured.
const DefaultCount = 10

// minLength is the shortest token kept; tokens of length <= 2 are dropped.
const minLength = 3

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
		"from", "up", "about", "into", "through", "during",
		"is", "are", "was", "were", "be", "been", "being", "have", "has", "had", "do", "does",
		"did", "will", "would", "could", "should", "may", "might",
		"can", "this", "that", "these", "those", "we", "our", "use", "using", "based",
		"approach", "method", "paper", "propose", "proposed", "show",
	} {
		stopwords[w] = struct{}{}
	}
}

// IsStopword reports whether tok is in the fixed stopword set.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}

// Tokenize lowercases text, replaces every character outside [a-z0-9] and
// whitespace with a space, splits on whitespace, and drops stopwords and
// tokens shorter than three characters. Token order is preserved.
func Tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			// Whitespace and everything else both become a separator.
			b.WriteByte(' ')
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) < minLength || IsStopword(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Extract returns up to k tokens of text ranked by descending frequency.
// Tokens with equal frequency keep the order in which they first appear.
// The result is deterministic for a given text and k; empty text or
// k <= 0 yields an empty slice.
func Extract(text string, k int) []string {
	if k <= 0 {
		return []string{}
	}

	counts := make(map[string]int)
	var order []string
	for _, tok := range Tokenize(text) {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > k {
		order = order[:k]
	}
	if order == nil {
		return []string{}
	}
	return order
}
