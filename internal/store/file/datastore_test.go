package file

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/marque/internal/domain"
)

type tickingClock struct {
	t time.Time
}

func (c *tickingClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T, loggedIn bool) (*Datastore, *HistoryStore) {
	t.Helper()
	dir := t.TempDir()
	clock := &tickingClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}

	history := NewHistoryStore(filepath.Join(dir, "history.php"), clock.Now)
	require.NoError(t, history.Load())

	ds := New(Options{
		Path:     filepath.Join(dir, "datastore.php"),
		History:  history,
		Clock:    clock.Now,
		LoggedIn: loggedIn,
	})
	require.NoError(t, ds.Load())
	return ds, history
}

func newBookmark(t *testing.T, url, title, tags string) *domain.Bookmark {
	t.Helper()
	b := &domain.Bookmark{Title: title}
	if url != "" {
		require.NoError(t, b.SetURL(url, nil))
	}
	b.SetTagsString(tags, " ")
	return b
}

func TestAddAssignsIDsFromZero(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	first := newBookmark(t, "https://one.example.com", "one", "")
	second := newBookmark(t, "https://two.example.com", "two", "")

	require.NoError(t, ds.Add(ctx, first, true))
	require.NoError(t, ds.Add(ctx, second, true))

	assert.Equal(t, 0, first.ID)
	assert.Equal(t, 1, second.ID)
	assert.False(t, first.Created.IsZero())
	assert.True(t, first.Updated.IsZero())
}

func TestAddRejectsDuplicateURL(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	require.NoError(t, ds.Add(ctx, newBookmark(t, "https://dup.example.com", "a", ""), true))

	err := ds.Add(ctx, newBookmark(t, "https://dup.example.com", "b", ""), true)
	var dup *domain.DuplicateURLError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "https://dup.example.com", dup.URL)
	assert.Equal(t, 0, dup.ExistingID)
}

func TestAddAllowsMultipleNotes(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	require.NoError(t, ds.Add(ctx, newBookmark(t, "", "note one", ""), true))
	require.NoError(t, ds.Add(ctx, newBookmark(t, "", "note two", ""), true))

	assert.Equal(t, 2, ds.Count("all"))
}

func TestAddGeneratesPrivateKey(t *testing.T) {
	ds, _ := newTestStore(t, true)

	b := newBookmark(t, "https://secret.example.com", "secret", "")
	b.Private = true
	require.NoError(t, ds.Add(context.Background(), b, true))

	assert.NotEmpty(t, b.PrivateKey)
}

func TestSetPreservesCreatedAndStampsUpdated(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	b := newBookmark(t, "https://edit.example.com", "before", "")
	require.NoError(t, ds.Add(ctx, b, true))
	created := b.Created

	edited := newBookmark(t, "https://edit.example.com", "after", "")
	edited.ID = b.ID
	edited.Created = created.Add(time.Hour) // ignored: Created is immutable
	require.NoError(t, ds.Set(ctx, edited, true))

	stored, err := ds.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", stored.Title)
	assert.Equal(t, created, stored.Created)
	assert.False(t, stored.Updated.IsZero())
}

func TestSetIsIdempotent(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	b := newBookmark(t, "https://same.example.com", "same", "tag1 tag2")
	require.NoError(t, ds.Add(ctx, b, true))

	require.NoError(t, ds.Set(ctx, b, true))
	firstUpdate := b.Updated
	require.NoError(t, ds.Set(ctx, b, true))

	stored, err := ds.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "same", stored.Title)
	assert.Equal(t, "https://same.example.com", stored.URL)
	assert.Equal(t, []string{"tag1", "tag2"}, stored.Tags)
	assert.True(t, stored.Updated.After(firstUpdate))
	assert.Equal(t, 1, ds.Count("all"))
}

func TestSetUnknownIDFails(t *testing.T) {
	ds, _ := newTestStore(t, true)

	b := newBookmark(t, "https://ghost.example.com", "ghost", "")
	b.ID = 99
	b.Created = time.Now()

	err := ds.Set(context.Background(), b, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetRejectsDuplicateURLOfAnotherBookmark(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	a := newBookmark(t, "https://a.example.com", "a", "")
	b := newBookmark(t, "https://b.example.com", "b", "")
	require.NoError(t, ds.Add(ctx, a, true))
	require.NoError(t, ds.Add(ctx, b, true))

	edited := newBookmark(t, "https://a.example.com", "b moved", "")
	edited.ID = b.ID
	edited.Created = b.Created

	err := ds.Set(ctx, edited, true)
	var dup *domain.DuplicateURLError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, a.ID, dup.ExistingID)
}

func TestSetMaintainsURLIndex(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	b := newBookmark(t, "https://old.example.com", "mover", "")
	require.NoError(t, ds.Add(ctx, b, true))

	edited := newBookmark(t, "https://new.example.com", "mover", "")
	edited.ID = b.ID
	edited.Created = b.Created
	require.NoError(t, ds.Set(ctx, edited, true))

	assert.Nil(t, ds.FindByURL("https://old.example.com"))
	require.NotNil(t, ds.FindByURL("https://new.example.com"))
}

func TestRemoveWritesPairedHistoryEntry(t *testing.T) {
	ds, history := newTestStore(t, true)
	ctx := context.Background()

	b := newBookmark(t, "https://gone.example.com", "gone", "")
	require.NoError(t, ds.Add(ctx, b, true))
	id := b.ID

	require.NoError(t, ds.Remove(ctx, b, true))

	assert.False(t, ds.Exists(id))
	_, err := ds.Get(id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entries := history.GetHistory()
	require.Len(t, entries, 2) // DELETED then CREATED, newest first
	assert.Equal(t, domain.EventDeleted, entries[0].Event)
	require.NotNil(t, entries[0].ID)
	assert.Equal(t, id, *entries[0].ID)
}

func TestRemoveUnknownIDFails(t *testing.T) {
	ds, _ := newTestStore(t, true)

	err := ds.Remove(context.Background(), &domain.Bookmark{ID: 41}, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetHidesPrivateWhenLoggedOut(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	b := newBookmark(t, "https://secret.example.com", "secret", "")
	b.Private = true
	require.NoError(t, ds.Add(ctx, b, true))

	got, err := ds.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	loggedOut := New(Options{Path: ds.path, LoggedIn: false})
	require.NoError(t, loggedOut.Load())

	_, err = loggedOut.Get(b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, loggedOut.All("all"))
}

func TestFindByHash(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	pub := newBookmark(t, "https://pub.example.com", "pub", "")
	priv := newBookmark(t, "https://priv.example.com", "priv", "")
	priv.Private = true
	require.NoError(t, ds.Add(ctx, pub, true))
	require.NoError(t, ds.Add(ctx, priv, true))

	got, err := ds.FindByHash(pub.ShortHash(), "")
	require.NoError(t, err)
	assert.Equal(t, pub.ID, got.ID)

	_, err = ds.FindByHash("zzzzzz", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// a logged-out reader needs the private permalink key
	loggedOut := New(Options{Path: ds.path, LoggedIn: false})
	require.NoError(t, loggedOut.Load())

	_, err = loggedOut.FindByHash(priv.ShortHash(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = loggedOut.FindByHash(priv.ShortHash(), "wrong-key")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err = loggedOut.FindByHash(priv.ShortHash(), priv.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, priv.ID, got.ID)
}

func TestSaveLoadRoundTripKeepsOrder(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	for _, url := range []string{
		"https://first.example.com",
		"https://second.example.com",
		"https://third.example.com",
	} {
		require.NoError(t, ds.Add(ctx, newBookmark(t, url, url, ""), true))
	}

	reloaded := New(Options{Path: ds.path, LoggedIn: true})
	require.NoError(t, reloaded.Load())

	all := reloaded.All("all")
	require.Len(t, all, 3)
	assert.Equal(t, "https://third.example.com", all[0].URL)
	assert.Equal(t, "https://first.example.com", all[2].URL)
	assert.Equal(t, 3, reloaded.Count("all"))
}

func TestImportSkipsDuplicatesAndRecordsOneEvent(t *testing.T) {
	ds, history := newTestStore(t, true)
	ctx := context.Background()

	require.NoError(t, ds.Add(ctx, newBookmark(t, "https://kept.example.com", "kept", ""), true))

	added, err := ds.Import(ctx, []*domain.Bookmark{
		newBookmark(t, "https://kept.example.com", "dup", ""),
		newBookmark(t, "https://new1.example.com", "new1", ""),
		newBookmark(t, "https://new2.example.com", "new2", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 3, ds.Count("all"))

	imported := history.FilterSearch(domain.EventImported, time.Time{}, time.Time{})
	require.Len(t, imported, 1)
	assert.Nil(t, imported[0].ID)
}

func TestImportNothingNewWritesNothing(t *testing.T) {
	ds, history := newTestStore(t, true)
	ctx := context.Background()

	require.NoError(t, ds.Add(ctx, newBookmark(t, "https://kept.example.com", "kept", ""), true))

	added, err := ds.Import(ctx, []*domain.Bookmark{
		newBookmark(t, "https://kept.example.com", "dup", ""),
	})
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Empty(t, history.FilterSearch(domain.EventImported, time.Time{}, time.Time{}))
}

func TestDeferredWriteThrough(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	b := newBookmark(t, "https://lazy.example.com", "lazy", "")
	require.NoError(t, ds.Add(ctx, b, false))

	// not on disk yet
	fresh := New(Options{Path: ds.path, LoggedIn: true})
	require.NoError(t, fresh.Load())
	assert.Zero(t, fresh.Count("all"))

	require.NoError(t, ds.Save(ctx))

	fresh = New(Options{Path: ds.path, LoggedIn: true})
	require.NoError(t, fresh.Load())
	assert.Equal(t, 1, fresh.Count("all"))
}

func TestCountPerTagMergesCasings(t *testing.T) {
	ds, _ := newTestStore(t, true)
	ctx := context.Background()

	require.NoError(t, ds.Add(ctx, newBookmark(t, "https://a.example.com", "a", "Golang web"), true))
	require.NoError(t, ds.Add(ctx, newBookmark(t, "https://b.example.com", "b", "golang"), true))

	// newest-first iteration, so the lowercase variant wins the casing
	counts := ds.CountPerTag(nil, "all")
	assert.Equal(t, map[string]int{"golang": 2, "web": 1}, counts)

	filtered := ds.CountPerTag([]string{"web"}, "all")
	assert.Equal(t, map[string]int{"Golang": 1, "web": 1}, filtered)
}
