package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/marque/internal/domain"
	"github.com/MrSnakeDoc/marque/internal/httpserver/deps"
)

type historyResponse struct {
	Entries []domain.HistoryEntry `json:"entries"`
}

// History serves the mutation log, newest first. Query params: event
// (CREATED, UPDATED, DELETED, SETTINGS_UPDATED, IMPORTED; empty = all),
// since, until (YYYY-MM-DD, inclusive).
func History(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		since, err := parseDateParam(q.Get("since"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		until, err := parseDateParam(q.Get("until"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if !until.IsZero() {
			// Day granularity: include the whole "until" day.
			until = until.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}

		entries := d.History.FilterSearch(domain.HistoryEvent(q.Get("event")), since, until)
		writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
	}
}
