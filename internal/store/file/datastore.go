// Package file implements the flat-file bookmark datastore and its paired
// history log. One file per store, written whole and atomically; an advisory
// mutex collaborator serializes writers across processes.
package file

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/marque/internal/domain"
	"github.com/MrSnakeDoc/marque/internal/mutex"
)

// Invalidator is notified after every successful datastore save so that
// downstream page caches can be dropped. Notification is fire-and-forget:
// failures are the collaborator's problem, never the store's.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// NoopInvalidator ignores invalidation requests.
type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(context.Context) error { return nil }

// Options configures a Datastore.
type Options struct {
	Path     string             // backing file
	Lock     mutex.Mutex        // advisory write lock (required)
	Cache    Invalidator        // page cache, NoopInvalidator if absent
	History  *HistoryStore      // mutation log, written before the main store
	Clock    func() time.Time   // injectable time source
	LoggedIn bool               // false hides private bookmarks entirely
}

// Datastore owns the authoritative in-memory bookmark collection and is the
// only component that touches its backing file. Iteration order is
// newest-created first.
type Datastore struct {
	mu       sync.RWMutex
	path     string
	lock     mutex.Mutex
	cache    Invalidator
	history  *HistoryStore
	now      func() time.Time
	loggedIn bool

	order []int                    // ids, newest first
	byID  map[int]*domain.Bookmark // id -> bookmark
	byURL map[string]int           // url -> id, rebuilt on load and mutation
}

// New creates an empty datastore. Call Load before use.
func New(opts Options) *Datastore {
	if opts.Lock == nil {
		opts.Lock = mutex.Noop{}
	}
	if opts.Cache == nil {
		opts.Cache = NoopInvalidator{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Datastore{
		path:     opts.Path,
		lock:     opts.Lock,
		cache:    opts.Cache,
		history:  opts.History,
		now:      opts.Clock,
		loggedIn: opts.LoggedIn,
		byID:     make(map[int]*domain.Bookmark),
		byURL:    make(map[string]int),
	}
}

// Load reads the backing file into memory and rebuilds the indexes.
// A missing file is an empty collection, not an error.
func (d *Datastore) Load() error {
	var bookmarks []*domain.Bookmark
	if _, err := loadEnvelope(d.path, &bookmarks); err != nil {
		return err
	}

	sort.SliceStable(bookmarks, func(i, j int) bool {
		if bookmarks[i].Created.Equal(bookmarks[j].Created) {
			return bookmarks[i].ID > bookmarks[j].ID
		}
		return bookmarks[i].Created.After(bookmarks[j].Created)
	})

	d.mu.Lock()
	defer d.mu.Unlock()

	d.order = make([]int, 0, len(bookmarks))
	d.byID = make(map[int]*domain.Bookmark, len(bookmarks))
	d.byURL = make(map[string]int, len(bookmarks))
	for _, b := range bookmarks {
		d.order = append(d.order, b.ID)
		d.byID[b.ID] = b
		if b.URL != "" {
			d.byURL[b.URL] = b.ID
		}
	}
	return nil
}

// Get returns the bookmark with the given id. Private bookmarks are not
// visible to logged-out callers and produce ErrNotFound.
func (d *Datastore) Get(id int) (*domain.Bookmark, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	b, ok := d.byID[id]
	if !ok || (b.Private && !d.loggedIn) {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

// Exists reports whether a bookmark with the given id is stored.
func (d *Datastore) Exists(id int) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.byID[id]
	return ok
}

// FindByURL returns the bookmark with exactly this URL, or nil when absent.
// Reflects all in-memory mutations, committed or not.
func (d *Datastore) FindByURL(url string) *domain.Bookmark {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if url == "" {
		return nil
	}
	id, ok := d.byURL[url]
	if !ok {
		return nil
	}
	return d.byID[id]
}

// FindByHash locates a bookmark by its permalink short hash. A private
// bookmark additionally requires privateKey to equal its stored secret;
// a miss is ErrNotFound in every case, so existence is never leaked.
func (d *Datastore) FindByHash(hash, privateKey string) (*domain.Bookmark, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, id := range d.order {
		b := d.byID[id]
		if b.ShortHash() != hash {
			continue
		}
		if b.Private && !d.loggedIn {
			if b.PrivateKey == "" || privateKey != b.PrivateKey {
				return nil, domain.ErrNotFound
			}
		}
		return b, nil
	}
	return nil, domain.ErrNotFound
}

// All returns the visibility-filtered collection in newest-first order.
// Logged-out callers never see private bookmarks, whatever v says.
func (d *Datastore) All(v string) []*domain.Bookmark {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*domain.Bookmark, 0, len(d.order))
	for _, id := range d.order {
		b := d.byID[id]
		if !d.visible(b, v) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (d *Datastore) visible(b *domain.Bookmark, v string) bool {
	if b.Private && !d.loggedIn {
		return false
	}
	switch v {
	case "public":
		return !b.Private
	case "private":
		return b.Private
	default:
		return true
	}
}

// Add stores a new bookmark: assigns the next id, stamps Created if unset,
// generates the private-permalink key for private bookmarks and rejects
// duplicate non-empty URLs. writeThrough=false defers the file write to an
// explicit Save (the history event is still recorded immediately).
func (d *Datastore) Add(ctx context.Context, b *domain.Bookmark, writeThrough bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if b.URL != "" {
		if existing, dup := d.byURL[b.URL]; dup {
			return &domain.DuplicateURLError{URL: b.URL, ExistingID: existing}
		}
	}

	b.ID = d.nextID()
	if b.Created.IsZero() {
		b.Created = d.now()
	}
	b.Updated = time.Time{}
	if b.Private && b.PrivateKey == "" {
		b.PrivateKey = uuid.NewString()
	}

	d.order = append([]int{b.ID}, d.order...)
	d.byID[b.ID] = b
	if b.URL != "" {
		d.byURL[b.URL] = b.ID
	}

	return d.commit(ctx, domain.EventCreated, &b.ID, writeThrough)
}

// Set replaces a stored bookmark's fields. The id must exist, Created is
// immutable and the Updated timestamp is stamped from the clock.
func (d *Datastore) Set(ctx context.Context, b *domain.Bookmark, writeThrough bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored, ok := d.byID[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if b.Created.IsZero() {
		return &domain.ValidationError{Field: "created", Reason: "must not be empty"}
	}
	if b.URL != "" {
		if existing, dup := d.byURL[b.URL]; dup && existing != b.ID {
			return &domain.DuplicateURLError{URL: b.URL, ExistingID: existing}
		}
	}

	b.Created = stored.Created
	b.Updated = d.now()

	if stored.URL != "" && stored.URL != b.URL {
		delete(d.byURL, stored.URL)
	}
	d.byID[b.ID] = b
	if b.URL != "" {
		d.byURL[b.URL] = b.ID
	}

	return d.commit(ctx, domain.EventUpdated, &b.ID, writeThrough)
}

// Remove deletes a bookmark from the collection and both indexes.
func (d *Datastore) Remove(ctx context.Context, b *domain.Bookmark, writeThrough bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored, ok := d.byID[b.ID]
	if !ok {
		return domain.ErrNotFound
	}

	delete(d.byID, b.ID)
	if stored.URL != "" {
		delete(d.byURL, stored.URL)
	}
	for i, id := range d.order {
		if id == b.ID {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}

	return d.commit(ctx, domain.EventDeleted, &b.ID, writeThrough)
}

// Import adds every bookmark that is not already stored (by URL), records a
// single IMPORTED history event and saves once. Returns the number added.
func (d *Datastore) Import(ctx context.Context, bookmarks []*domain.Bookmark) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	added := 0
	for _, b := range bookmarks {
		if b.URL != "" {
			if _, dup := d.byURL[b.URL]; dup {
				continue
			}
		}
		b.ID = d.nextID()
		if b.Created.IsZero() {
			b.Created = d.now()
		}
		if b.Private && b.PrivateKey == "" {
			b.PrivateKey = uuid.NewString()
		}
		d.order = append([]int{b.ID}, d.order...)
		d.byID[b.ID] = b
		if b.URL != "" {
			d.byURL[b.URL] = b.ID
		}
		added++
	}

	if added == 0 {
		return 0, nil
	}
	return added, d.commit(ctx, domain.EventImported, nil, true)
}

// Save persists the whole collection under the advisory lock, then notifies
// the cache invalidator (fire-and-forget).
func (d *Datastore) Save(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.lock.Acquire(ctx); err != nil {
		return err
	}
	defer func() { _ = d.lock.Release() }()

	return d.save(ctx)
}

// commit records the history event and persists, all under one advisory
// lock acquisition. The history file is written first: a crash in between
// leaves an event for a mutation that never landed (history over-reports,
// never under-reports).
func (d *Datastore) commit(ctx context.Context, event domain.HistoryEvent, id *int, writeThrough bool) error {
	if err := d.lock.Acquire(ctx); err != nil {
		return err
	}
	defer func() { _ = d.lock.Release() }()

	if d.history != nil {
		if err := d.history.record(event, id, d.now()); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}
	}
	if !writeThrough {
		return nil
	}
	return d.save(ctx)
}

// save writes the collection; callers hold d.mu and the advisory lock.
func (d *Datastore) save(ctx context.Context) error {
	bookmarks := make([]*domain.Bookmark, 0, len(d.order))
	for _, id := range d.order {
		bookmarks = append(bookmarks, d.byID[id])
	}
	if err := saveEnvelope(d.path, bookmarks); err != nil {
		return err
	}

	// Best effort: a cache that cannot be invalidated is the cache's problem.
	_ = d.cache.Invalidate(ctx)
	return nil
}

// Count returns the number of bookmarks matching the visibility filter.
func (d *Datastore) Count(v string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, id := range d.order {
		if d.visible(d.byID[id], v) {
			n++
		}
	}
	return n
}

// CountPerTag aggregates tag frequencies across the visibility-filtered
// collection, restricted to bookmarks carrying every tag in filterTags.
// Case variants of a tag are merged; the first-seen casing is kept.
func (d *Datastore) CountPerTag(filterTags []string, v string) map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	counts := make(map[string]int)
	casing := make(map[string]string)

	for _, id := range d.order {
		b := d.byID[id]
		if !d.visible(b, v) {
			continue
		}
		if !hasAllTags(b, filterTags) {
			continue
		}
		for _, tag := range b.Tags {
			key := strings.ToLower(tag)
			if _, seen := casing[key]; !seen {
				casing[key] = tag
			}
			counts[key]++
		}
	}

	out := make(map[string]int, len(counts))
	for key, n := range counts {
		out[casing[key]] = n
	}
	return out
}

func hasAllTags(b *domain.Bookmark, tags []string) bool {
	for _, tag := range tags {
		if !b.HasTag(tag) {
			return false
		}
	}
	return true
}

// nextID is max existing id + 1, or 0 for an empty collection.
// Callers hold d.mu.
func (d *Datastore) nextID() int {
	next := 0
	for id := range d.byID {
		if id >= next {
			next = id + 1
		}
	}
	return next
}
