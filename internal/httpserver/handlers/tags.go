package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marque/internal/domain"
	"github.com/MrSnakeDoc/marque/internal/httpserver/deps"
)

type tagsResponse struct {
	Tags map[string]int `json:"tags"`
}

// Tags serves tag frequencies. Query params: visibility, filter (a tag
// expression in the configured separator; only bookmarks carrying every
// listed tag are counted).
func Tags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filterTags := domain.NormalizeTags(q.Get("filter"), d.TagSeparator)
		counts := d.Store.CountPerTag(filterTags, q.Get("visibility"))

		writeJSON(w, http.StatusOK, tagsResponse{Tags: counts})
	}
}
