package domain

import (
	"strings"
	"time"
)

// ThumbnailState tracks whether a thumbnail has been resolved for a bookmark.
type ThumbnailState int

const (
	// ThumbnailUnchecked means no retrieval has been attempted yet.
	ThumbnailUnchecked ThumbnailState = iota
	// ThumbnailNone means retrieval was attempted and nothing usable was found.
	ThumbnailNone
	// ThumbnailSet means a thumbnail URL has been stored.
	ThumbnailSet
)

// Bookmark represents a single saved link and its metadata.
//
// A bookmark with an empty URL is a "note": a self-referencing entry whose
// permalink points at its own short hash.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable once stored)
	// ─────────────────────────────

	// ID is the canonical unique identifier, assigned by the datastore
	// monotonically on creation. Stable for the bookmark's lifetime.
	ID int `json:"id"`

	// PrivateKey is a per-bookmark secret required to resolve a private
	// bookmark through its permalink hash. Empty for public bookmarks.
	PrivateKey string `json:"private_key,omitempty"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// URL is the saved link. Empty means the bookmark is a note.
	URL string `json:"url"`

	// Title is the display title.
	Title string `json:"title"`

	// Description is free-form text attached to the bookmark.
	Description string `json:"description"`

	// TagsString is the raw separator-delimited tag input.
	TagsString string `json:"tags_string"`

	// Tags is the normalized tag list derived from TagsString:
	// unique within the entry, first-seen order, original case preserved.
	Tags []string `json:"tags"`

	// ─────────────────────────────
	// Flags
	// ─────────────────────────────

	// Private hides the bookmark from unauthenticated listings.
	Private bool `json:"private"`

	// Sticky pins the bookmark to the top of unfiltered listings.
	Sticky bool `json:"sticky"`

	// ─────────────────────────────
	// Timestamps
	// ─────────────────────────────

	// Created is set once at creation and never changes afterward.
	Created time.Time `json:"created"`

	// Updated is zero until the first mutation after creation.
	Updated time.Time `json:"updated,omitzero"`

	// ─────────────────────────────
	// Thumbnail
	// ─────────────────────────────

	// Thumbnail is the resolved thumbnail URL when ThumbState is ThumbnailSet.
	Thumbnail string `json:"thumbnail,omitempty"`

	// ThumbState distinguishes "not yet checked" from "checked, none found".
	ThumbState ThumbnailState `json:"thumb_state"`

	// ThumbCheckedAt is the time of the last retrieval attempt.
	ThumbCheckedAt time.Time `json:"thumb_checked_at,omitzero"`
}

// defaultSchemes are always accepted by SetURL in addition to the
// configured allow-list.
var defaultSchemes = []string{"http", "https"}

// SetURL validates and assigns the bookmark URL. The scheme must be http,
// https, or one of extraSchemes. An empty URL is accepted and turns the
// bookmark into a note.
func (b *Bookmark) SetURL(rawURL string, extraSchemes []string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		b.URL = ""
		return nil
	}

	if idx := strings.Index(rawURL, "://"); idx > 0 {
		scheme := strings.ToLower(rawURL[:idx])
		if !schemeAllowed(scheme, extraSchemes) {
			return &ValidationError{Field: "url", Reason: "scheme " + scheme + " is not allowed"}
		}
	}

	b.URL = rawURL
	return nil
}

func schemeAllowed(scheme string, extra []string) bool {
	for _, s := range defaultSchemes {
		if scheme == s {
			return true
		}
	}
	for _, s := range extra {
		if scheme == strings.ToLower(s) {
			return true
		}
	}
	return false
}

// SetTagsString assigns the raw tag input and rebuilds the normalized tag
// list: tokens are split on separator, empties dropped, duplicates removed
// case-insensitively while keeping the first-seen casing.
func (b *Bookmark) SetTagsString(raw string, separator string) {
	tags := NormalizeTags(raw, separator)
	b.Tags = tags
	b.TagsString = strings.Join(tags, separator)
}

// SetTags assigns the tag list directly, applying the same normalization
// as SetTagsString.
func (b *Bookmark) SetTags(tags []string, separator string) {
	b.SetTagsString(strings.Join(tags, separator), separator)
}

// NormalizeTags splits raw on separator and returns unique non-empty tokens
// in first-seen order. Uniqueness is case-insensitive; the casing of the
// first occurrence wins.
func NormalizeTags(raw string, separator string) []string {
	if separator == "" {
		separator = " "
	}
	parts := strings.Split(raw, separator)
	tags := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := strings.ToLower(part)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, part)
	}
	return tags
}

// IsNote reports whether the bookmark is a note (no external URL).
func (b *Bookmark) IsNote() bool {
	return b.URL == ""
}

// ShortHash returns the compact permalink identifier for this bookmark.
func (b *Bookmark) ShortHash() string {
	return SmallHash(b.Created, b.ID)
}

// ShouldUpdateThumbnail reports whether a thumbnail retrieval attempt is due.
// Only non-note http(s) bookmarks qualify. A failed attempt is retried only
// after retryAfter has elapsed, never on every access.
func (b *Bookmark) ShouldUpdateThumbnail(retryAfter time.Duration, now time.Time) bool {
	if b.IsNote() {
		return false
	}
	lower := strings.ToLower(b.URL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}

	switch b.ThumbState {
	case ThumbnailUnchecked:
		return true
	case ThumbnailNone:
		return now.Sub(b.ThumbCheckedAt) >= retryAfter
	default:
		return false
	}
}

// HasTag reports whether the bookmark carries tag (case-insensitive).
func (b *Bookmark) HasTag(tag string) bool {
	for _, t := range b.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
