package search

import (
	"strings"

	"github.com/MrSnakeDoc/marque/internal/domain"
)

// TagQuery is a parsed tag search expression.
//
// Semantics: every positive token must be satisfied by at least one of the
// bookmark's tags (AND across tokens, any-tag within a token); no bookmark
// tag may satisfy any negative token. A query made only of exclusions keeps
// bookmarks where nothing matches — so "-*" keeps exactly the tagless ones.
type TagQuery struct {
	Positive []string
	Negative []string
}

// ParseTagQuery splits a raw tag expression on separator and partitions the
// tokens into positive and negative (leading '-') patterns. Empty tokens are
// discarded; a lone "-" is ignored.
func ParseTagQuery(raw string, separator string) *TagQuery {
	q := &TagQuery{}
	for _, token := range domain.NormalizeTags(raw, separator) {
		if strings.HasPrefix(token, "-") {
			pattern := token[1:]
			if pattern == "" {
				continue
			}
			q.Negative = append(q.Negative, pattern)
			continue
		}
		q.Positive = append(q.Positive, token)
	}
	return q
}

// IsEmpty reports whether the query has no tokens at all.
func (q *TagQuery) IsEmpty() bool {
	return len(q.Positive) == 0 && len(q.Negative) == 0
}

// Match evaluates the query against a bookmark's tag set.
func (q *TagQuery) Match(tags []string) bool {
	for _, pattern := range q.Positive {
		if !anyTagMatches(pattern, tags) {
			return false
		}
	}
	for _, pattern := range q.Negative {
		if anyTagMatches(pattern, tags) {
			return false
		}
	}
	return true
}

func anyTagMatches(pattern string, tags []string) bool {
	for _, tag := range tags {
		if MatchTag(pattern, tag) {
			return true
		}
	}
	return false
}

// MatchTag tests a single query pattern against a single tag.
// '*' at the start and/or end of the pattern acts as a placeholder:
// "*x" = suffix, "x*" = prefix, "*x*" = substring, "*" = everything.
// Without '*' the match is plain case-insensitive equality.
func MatchTag(pattern, tag string) bool {
	if pattern == "*" {
		return true
	}

	pattern = strings.ToLower(pattern)
	tag = strings.ToLower(tag)

	hasLeading := strings.HasPrefix(pattern, "*")
	hasTrailing := strings.HasSuffix(pattern, "*")
	trimmed := strings.Trim(pattern, "*")
	if trimmed == "" {
		// Patterns like "**" degenerate to match-all.
		return true
	}

	switch {
	case hasLeading && hasTrailing:
		return strings.Contains(tag, trimmed)
	case hasLeading:
		return strings.HasSuffix(tag, trimmed)
	case hasTrailing:
		return strings.HasPrefix(tag, trimmed)
	default:
		return tag == trimmed
	}
}
