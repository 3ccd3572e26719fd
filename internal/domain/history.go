package domain

import "time"

// HistoryEvent identifies the kind of mutation a history entry records.
type HistoryEvent string

const (
	EventCreated         HistoryEvent = "CREATED"
	EventUpdated         HistoryEvent = "UPDATED"
	EventDeleted         HistoryEvent = "DELETED"
	EventSettingsUpdated HistoryEvent = "SETTINGS_UPDATED"
	EventImported        HistoryEvent = "IMPORTED"
)

// HistoryEntry records a single datastore mutation. Entries are append-only:
// once written they are never modified.
type HistoryEntry struct {
	// Event is the mutation kind.
	Event HistoryEvent `json:"event"`

	// ID is the affected bookmark's id. Nil for events that do not target
	// a single bookmark (SETTINGS_UPDATED, IMPORTED).
	ID *int `json:"id,omitempty"`

	// DateTime is the moment the mutation was recorded.
	DateTime time.Time `json:"datetime"`
}
