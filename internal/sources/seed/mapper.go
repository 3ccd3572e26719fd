package seed

import (
	"strings"

	"github.com/MrSnakeDoc/marque/internal/domain"
)

// Mapper converts seed entries to domain bookmarks.
type Mapper struct {
	separator    string
	extraSchemes []string
}

// NewMapper creates a mapper using the configured tag separator and the
// extra URL schemes allowed besides http/https.
func NewMapper(separator string, extraSchemes []string) *Mapper {
	return &Mapper{separator: separator, extraSchemes: extraSchemes}
}

// Map converts entries to bookmarks, dropping entries whose URL scheme is
// not allowed. Returns the bookmarks and the number of entries skipped.
func (m *Mapper) Map(entries []Entry) ([]*domain.Bookmark, int) {
	bookmarks := make([]*domain.Bookmark, 0, len(entries))
	skipped := 0

	for _, entry := range entries {
		b := &domain.Bookmark{
			Title:       entry.Title,
			Description: entry.Description,
			Private:     entry.Private,
			Sticky:      entry.Sticky,
		}
		if err := b.SetURL(entry.URL, m.extraSchemes); err != nil {
			skipped++
			continue
		}
		if b.Title == "" {
			b.Title = titleFromURL(b.URL)
		}
		b.SetTags(entry.Tags, m.separator)

		bookmarks = append(bookmarks, b)
	}

	return bookmarks, skipped
}

// titleFromURL derives a fallback title from the URL, the URL itself as a
// last resort.
func titleFromURL(url string) string {
	if url == "" {
		return "Note"
	}
	trimmed := url
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	}
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" {
		return url
	}
	return trimmed
}
