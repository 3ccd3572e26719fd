package file

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/marque/internal/domain"
)

// HistoryStore is the append-only mutation log. It owns its own backing
// file, separate from the datastore's, in the same envelope format. The
// whole log is rewritten on every mutation; conceptually it is still an
// append-log and existing entries are never altered.
//
// File writes triggered through the Datastore happen under the datastore's
// advisory lock; standalone Record* calls rely on the store's own mutex only
// and are meant for single-writer deployments.
type HistoryStore struct {
	mu      sync.RWMutex
	path    string
	now     func() time.Time
	entries []domain.HistoryEntry // newest first
}

// NewHistoryStore creates a history store backed by path.
func NewHistoryStore(path string, clock func() time.Time) *HistoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &HistoryStore{path: path, now: clock}
}

// Load reads the log from disk. A missing file is an empty log.
func (h *HistoryStore) Load() error {
	var entries []domain.HistoryEntry
	if _, err := loadEnvelope(h.path, &entries); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = entries
	return nil
}

// GetHistory returns all entries, newest first.
func (h *HistoryStore) GetHistory() []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// FilterSearch returns entries matching event (all events when empty)
// within the optional [since, until] window, newest first.
func (h *HistoryStore) FilterSearch(event domain.HistoryEvent, since, until time.Time) []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.HistoryEntry, 0, len(h.entries))
	for _, e := range h.entries {
		if event != "" && e.Event != event {
			continue
		}
		if !since.IsZero() && e.DateTime.Before(since) {
			continue
		}
		if !until.IsZero() && e.DateTime.After(until) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// RecordCreated logs a bookmark creation.
func (h *HistoryStore) RecordCreated(id int) error {
	return h.Record(domain.EventCreated, &id)
}

// RecordUpdated logs a bookmark edit.
func (h *HistoryStore) RecordUpdated(id int) error {
	return h.Record(domain.EventUpdated, &id)
}

// RecordDeleted logs a bookmark deletion.
func (h *HistoryStore) RecordDeleted(id int) error {
	return h.Record(domain.EventDeleted, &id)
}

// RecordSettingsUpdated logs a configuration change. No bookmark id.
func (h *HistoryStore) RecordSettingsUpdated() error {
	return h.Record(domain.EventSettingsUpdated, nil)
}

// RecordImported logs a bulk import. No bookmark id.
func (h *HistoryStore) RecordImported() error {
	return h.Record(domain.EventImported, nil)
}

// Record appends an entry and rewrites the log file.
func (h *HistoryStore) Record(event domain.HistoryEvent, id *int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.append(event, id, h.now())
}

// record is the datastore-facing variant: the caller already holds the
// advisory lock and supplies the mutation timestamp.
func (h *HistoryStore) record(event domain.HistoryEvent, id *int, at time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.append(event, id, at)
}

func (h *HistoryStore) append(event domain.HistoryEvent, id *int, at time.Time) error {
	entry := domain.HistoryEntry{Event: event, DateTime: at}
	if id != nil {
		v := *id
		entry.ID = &v
	}
	h.entries = append([]domain.HistoryEntry{entry}, h.entries...)
	return saveEnvelope(h.path, h.entries)
}
