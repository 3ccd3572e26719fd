package search

import (
	"errors"
	"strings"
	"time"

	"github.com/MrSnakeDoc/marque/internal/domain"
)

// Visibility selects which privacy classes of bookmarks a search covers.
type Visibility string

const (
	VisibilityAll     Visibility = "all"
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ErrOffsetOutOfBounds is returned when the pagination offset lies beyond
// the total match count and the caller did not opt into out-of-bounds pages.
var ErrOffsetOutOfBounds = errors.New("pagination offset out of bounds")

// Criteria carries the filter dimensions of a search. Zero values mean
// "no filter" for that dimension.
type Criteria struct {
	// SearchTags is a raw tag expression, see ParseTagQuery.
	SearchTags string

	// SearchTerm is a free-text query. Whitespace-separated terms must all
	// match (AND); a double-quoted phrase matches as one contiguous substring.
	SearchTerm string

	// StartDate / EndDate restrict by creation date, day granularity,
	// both bounds inclusive.
	StartDate time.Time
	EndDate   time.Time

	// Day restricts to bookmarks created on a single calendar day.
	Day time.Time
}

// Options tune search behavior beyond the criteria themselves.
type Options struct {
	// CaseSensitive switches full-text matching to exact case.
	CaseSensitive bool

	// UntaggedOnly restricts results to bookmarks with zero tags.
	UntaggedOnly bool

	// PendingOnly restricts results to bookmarks whose thumbnail retrieval
	// is still due.
	PendingOnly bool

	// StickyFirst promotes sticky bookmarks to the front of the result,
	// preserving relative order within each group.
	StickyFirst bool
}

// Pagination slices the matched set. Limit <= 0 means "all on one page".
type Pagination struct {
	Offset           int
	Limit            int
	AllowOutOfBounds bool
}

// Result is one page of matches plus the page bookkeeping.
type Result struct {
	Bookmarks   []*domain.Bookmark
	Total       int
	Page        int
	LastPage    int
	IsFirstPage bool
	IsLastPage  bool
}

// Engine evaluates searches over an ordered bookmark collection.
// It never mutates the collection and holds no state beyond configuration.
type Engine struct {
	separator  string
	now        func() time.Time
	thumbRetry time.Duration
}

// NewEngine creates a search engine. separator is the configured tag
// separator, now the injectable clock, thumbRetry the retry window used by
// the PendingOnly filter.
func NewEngine(separator string, now func() time.Time, thumbRetry time.Duration) *Engine {
	if separator == "" {
		separator = " "
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{separator: separator, now: now, thumbRetry: thumbRetry}
}

// Search filters bookmarks (already in the datastore's newest-first order)
// against the criteria and returns the requested page. Empty criteria return
// the visibility-filtered collection unchanged in order.
func (e *Engine) Search(bookmarks []*domain.Bookmark, c Criteria, visibility Visibility, opts Options, page Pagination) (Result, error) {
	tagQuery := ParseTagQuery(c.SearchTags, e.separator)
	terms := parseTerms(c.SearchTerm)
	now := e.now()

	matched := make([]*domain.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if !visibilityAllows(visibility, b) {
			continue
		}
		if opts.UntaggedOnly && len(b.Tags) > 0 {
			continue
		}
		if opts.PendingOnly && !b.ShouldUpdateThumbnail(e.thumbRetry, now) {
			continue
		}
		if !tagQuery.IsEmpty() && !tagQuery.Match(b.Tags) {
			continue
		}
		if len(terms) > 0 && !matchesTerms(b, terms, opts.CaseSensitive) {
			continue
		}
		if !matchesDates(b.Created, c) {
			continue
		}
		matched = append(matched, b)
	}

	if opts.StickyFirst {
		matched = stickyFirst(matched)
	}

	return paginate(matched, page)
}

func visibilityAllows(v Visibility, b *domain.Bookmark) bool {
	switch v {
	case VisibilityPublic:
		return !b.Private
	case VisibilityPrivate:
		return b.Private
	default:
		return true
	}
}

// parseTerms splits a free-text query into terms, honoring double-quoted
// phrases as single terms.
func parseTerms(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var terms []string
	var current strings.Builder
	inQuote := false

	flush := func() {
		if current.Len() > 0 {
			terms = append(terms, current.String())
			current.Reset()
		}
	}

	for _, r := range raw {
		switch {
		case r == '"':
			if inQuote {
				flush()
			}
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == '\t'):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return terms
}

func matchesTerms(b *domain.Bookmark, terms []string, caseSensitive bool) bool {
	haystack := b.Title + " " + b.Description + " " + b.URL + " " + b.TagsString
	if !caseSensitive {
		haystack = strings.ToLower(haystack)
	}
	for _, term := range terms {
		if !caseSensitive {
			term = strings.ToLower(term)
		}
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func matchesDates(created time.Time, c Criteria) bool {
	if !c.Day.IsZero() {
		dayStart := truncateDay(c.Day)
		if created.Before(dayStart) || !created.Before(dayStart.AddDate(0, 0, 1)) {
			return false
		}
	}
	if !c.StartDate.IsZero() && created.Before(truncateDay(c.StartDate)) {
		return false
	}
	if !c.EndDate.IsZero() && !created.Before(truncateDay(c.EndDate).AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// stickyFirst stably partitions sticky bookmarks to the front.
func stickyFirst(bookmarks []*domain.Bookmark) []*domain.Bookmark {
	out := make([]*domain.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if b.Sticky {
			out = append(out, b)
		}
	}
	for _, b := range bookmarks {
		if !b.Sticky {
			out = append(out, b)
		}
	}
	return out
}

func paginate(matched []*domain.Bookmark, p Pagination) (Result, error) {
	total := len(matched)

	if p.Limit <= 0 {
		return Result{
			Bookmarks:   matched,
			Total:       total,
			Page:        1,
			LastPage:    1,
			IsFirstPage: true,
			IsLastPage:  true,
		}, nil
	}

	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Offset >= total && total > 0 {
		if !p.AllowOutOfBounds {
			return Result{}, ErrOffsetOutOfBounds
		}
	}

	last := (total + p.Limit - 1) / p.Limit
	if last < 1 {
		last = 1
	}

	end := p.Offset + p.Limit
	if end > total {
		end = total
	}
	start := p.Offset
	if start > total {
		start = total
	}

	return Result{
		Bookmarks:   matched[start:end],
		Total:       total,
		Page:        p.Offset/p.Limit + 1,
		LastPage:    last,
		IsFirstPage: p.Offset == 0,
		IsLastPage:  end >= total,
	}, nil
}
