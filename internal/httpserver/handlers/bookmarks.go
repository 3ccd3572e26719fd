package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marque/internal/domain"
	"github.com/MrSnakeDoc/marque/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marque/internal/logger"
	"github.com/MrSnakeDoc/marque/internal/search"
)

const dateParamLayout = "2006-01-02"

type bookmarkPayload struct {
	ID          int       `json:"id"`
	ShortURL    string    `json:"shorturl"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Private     bool      `json:"private"`
	Sticky      bool      `json:"sticky"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated,omitzero"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
}

type listResponse struct {
	Bookmarks   []bookmarkPayload `json:"bookmarks"`
	Total       int               `json:"total"`
	Page        int               `json:"page"`
	LastPage    int               `json:"last_page"`
	IsFirstPage bool              `json:"is_first_page"`
	IsLastPage  bool              `json:"is_last_page"`
}

type bookmarkRequest struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Private     bool     `json:"private"`
	Sticky      bool     `json:"sticky"`
}

func toPayload(b *domain.Bookmark) bookmarkPayload {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return bookmarkPayload{
		ID:          b.ID,
		ShortURL:    b.ShortHash(),
		URL:         b.URL,
		Title:       b.Title,
		Description: b.Description,
		Tags:        tags,
		Private:     b.Private,
		Sticky:      b.Sticky,
		Created:     b.Created,
		Updated:     b.Updated,
		Thumbnail:   b.Thumbnail,
	}
}

// ListBookmarks serves the search endpoint. Query params: searchterm,
// searchtags, visibility, untaggedonly, casesensitive, since, until, day
// (YYYY-MM-DD), page, limit (number or "all"). Unfiltered listings promote
// sticky bookmarks to the top.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q := r.URL.Query()

		// Cached pages are keyed by the full query string; the datastore
		// invalidates the whole namespace on every save.
		fingerprint := pageFingerprint(r.URL.RawQuery)
		if d.PageCache != nil {
			if payload, err := d.PageCache.GetPage(ctx, fingerprint); err == nil && payload != nil {
				d.Logger.Debug("page cache hit", logger.String("fingerprint", fingerprint))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write(payload)
				return
			}
		}

		criteria := search.Criteria{
			SearchTerm: q.Get("searchterm"),
			SearchTags: q.Get("searchtags"),
		}
		var err error
		if criteria.StartDate, err = parseDateParam(q.Get("since")); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if criteria.EndDate, err = parseDateParam(q.Get("until")); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if criteria.Day, err = parseDateParam(q.Get("day")); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		unfiltered := criteria.SearchTerm == "" && criteria.SearchTags == ""
		opts := search.Options{
			CaseSensitive: q.Get("casesensitive") == "true",
			UntaggedOnly:  q.Get("untaggedonly") == "true",
			StickyFirst:   unfiltered,
		}

		limit, err := parseLimit(q.Get("limit"), d.PageSize)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		page, _ := strconv.Atoi(q.Get("page"))
		if page < 1 {
			page = 1
		}

		visibility := search.Visibility(q.Get("visibility"))
		bookmarks := d.Store.All(string(visibility))

		pagination := search.Pagination{Limit: limit, AllowOutOfBounds: true}
		if limit > 0 {
			pagination.Offset = (page - 1) * limit
		}

		result, err := d.Engine.Search(bookmarks, criteria, visibility, opts, pagination)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		// Out-of-range pages clamp to the last page instead of erroring.
		if limit > 0 && pagination.Offset >= result.Total && result.Total > 0 {
			pg := search.Paginate(result.Total, limit, page)
			pagination.Offset = pg.Offset
			result, err = d.Engine.Search(bookmarks, criteria, visibility, opts, pagination)
			if err != nil {
				writeError(w, d.Logger, err)
				return
			}
		}

		resp := listResponse{
			Bookmarks:   make([]bookmarkPayload, 0, len(result.Bookmarks)),
			Total:       result.Total,
			Page:        result.Page,
			LastPage:    result.LastPage,
			IsFirstPage: result.IsFirstPage,
			IsLastPage:  result.IsLastPage,
		}
		for _, b := range result.Bookmarks {
			resp.Bookmarks = append(resp.Bookmarks, toPayload(b))
		}

		payload, err := json.Marshal(resp)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if d.PageCache != nil {
			if err := d.PageCache.CachePage(ctx, fingerprint, payload); err != nil {
				d.Logger.Warn("failed to cache page", logger.Error(err))
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}
}

// GetBookmark serves a single bookmark by id.
func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, &domain.ValidationError{Field: "id", Reason: "must be an integer"})
			return
		}
		b, err := d.Store.Get(id)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toPayload(b))
	}
}

// GetBookmarkByHash resolves a permalink. Private bookmarks need ?key= to
// match their stored secret.
func GetBookmarkByHash(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hash := chi.URLParam(r, "hash")
		key := r.URL.Query().Get("key")

		b, err := d.Store.FindByHash(hash, key)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toPayload(b))
	}
}

// CreateBookmark stores a new bookmark. An empty URL creates a note.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookmarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, d.Logger, &domain.ValidationError{Field: "body", Reason: "invalid json"})
			return
		}

		b := &domain.Bookmark{
			Title:       req.Title,
			Description: req.Description,
			Private:     req.Private,
			Sticky:      req.Sticky,
		}
		if err := b.SetURL(req.URL, d.ExtraSchemes); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		b.SetTags(req.Tags, d.TagSeparator)

		if err := d.Store.Add(r.Context(), b, true); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("bookmark created",
			logger.Int("id", b.ID),
			logger.String("url", b.URL))
		writeJSON(w, http.StatusCreated, toPayload(b))
	}
}

// UpdateBookmark edits an existing bookmark. Created and the permalink key
// are preserved; Updated is stamped by the store.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, &domain.ValidationError{Field: "id", Reason: "must be an integer"})
			return
		}
		existing, err := d.Store.Get(id)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		var req bookmarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, d.Logger, &domain.ValidationError{Field: "body", Reason: "invalid json"})
			return
		}

		b := &domain.Bookmark{
			ID:          existing.ID,
			PrivateKey:  existing.PrivateKey,
			Created:     existing.Created,
			Title:       req.Title,
			Description: req.Description,
			Private:     req.Private,
			Sticky:      req.Sticky,
			Thumbnail:   existing.Thumbnail,
			ThumbState:  existing.ThumbState,
		}
		if err := b.SetURL(req.URL, d.ExtraSchemes); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		b.SetTags(req.Tags, d.TagSeparator)

		// A changed URL invalidates the stored thumbnail.
		if b.URL != existing.URL {
			b.Thumbnail = ""
			b.ThumbState = domain.ThumbnailUnchecked
		}

		if err := d.Store.Set(r.Context(), b, true); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("bookmark updated", logger.Int("id", b.ID))
		writeJSON(w, http.StatusOK, toPayload(b))
	}
}

// DeleteBookmark removes a bookmark.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, &domain.ValidationError{Field: "id", Reason: "must be an integer"})
			return
		}
		b, err := d.Store.Get(id)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := d.Store.Remove(r.Context(), b, true); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("bookmark deleted", logger.Int("id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateParamLayout, raw)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	return t, nil
}

func parseLimit(raw string, def int) (int, error) {
	switch raw {
	case "":
		return def, nil
	case "all":
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, &domain.ValidationError{Field: "limit", Reason: "expected a positive integer or \"all\""}
	}
	return limit, nil
}

func pageFingerprint(rawQuery string) string {
	sum := sha256.Sum256([]byte(rawQuery))
	return hex.EncodeToString(sum[:8])
}
