package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/marque/internal/domain"
	"github.com/MrSnakeDoc/marque/internal/logger"
	"github.com/MrSnakeDoc/marque/internal/search"
	"github.com/MrSnakeDoc/marque/internal/store/file"
	"github.com/MrSnakeDoc/marque/internal/utils"
)

// Thumbnailer periodically resolves thumbnails for bookmarks whose
// retrieval is still pending. It probes the site's favicon with a bounded
// HTTP request and stores the outcome through the datastore, batched into
// a single save per sweep.
type Thumbnailer struct {
	store         *file.Datastore
	engine        *search.Engine
	client        *http.Client
	logger        logger.Logger
	interval      time.Duration
	timeout       time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewThumbnailer creates a thumbnail worker.
func NewThumbnailer(
	store *file.Datastore,
	engine *search.Engine,
	log logger.Logger,
	interval time.Duration,
	timeout time.Duration,
	manualTrigger chan struct{},
) *Thumbnailer {
	return &Thumbnailer{
		store:         store,
		engine:        engine,
		client:        &http.Client{Timeout: timeout},
		logger:        log,
		interval:      interval,
		timeout:       timeout,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic sweep process.
func (t *Thumbnailer) Start(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := t.Sweep(ctx); err != nil {
					t.logger.Error("thumbnail sweep failed", logger.Error(err))
				}
			case <-t.manualTrigger:
				t.logger.Info("manual thumbnail sweep triggered")
				if err := t.Sweep(ctx); err != nil {
					t.logger.Error("thumbnail sweep failed", logger.Error(err))
				}
			case <-t.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop halts the periodic sweeps.
func (t *Thumbnailer) Stop() {
	close(t.stopCh)
}

// Sweep resolves every pending thumbnail, then saves once.
func (t *Thumbnailer) Sweep(ctx context.Context) error {
	result, err := t.engine.Search(
		t.store.All("all"),
		search.Criteria{},
		search.VisibilityAll,
		search.Options{PendingOnly: true},
		search.Pagination{},
	)
	if err != nil {
		return fmt.Errorf("failed to list pending bookmarks: %w", err)
	}
	if len(result.Bookmarks) == 0 {
		return nil
	}

	t.logger.Info("thumbnail sweep started",
		logger.Int("pending", len(result.Bookmarks)))

	updated := 0
	for _, b := range result.Bookmarks {
		thumb := t.probe(ctx, b.URL)
		if thumb != "" {
			b.Thumbnail = thumb
			b.ThumbState = domain.ThumbnailSet
		} else {
			b.Thumbnail = ""
			b.ThumbState = domain.ThumbnailNone
		}
		b.ThumbCheckedAt = time.Now()

		if err := t.store.Set(ctx, b, false); err != nil {
			t.logger.Warn("failed to store thumbnail result",
				logger.Int("id", b.ID),
				logger.Error(err))
			continue
		}
		updated++
	}

	if updated == 0 {
		return nil
	}
	if err := t.store.Save(ctx); err != nil {
		return fmt.Errorf("failed to save thumbnail results: %w", err)
	}

	t.logger.Info("thumbnail sweep finished", logger.Int("updated", updated))
	return nil
}

// probe checks scheme://host/favicon.ico and returns its URL when the
// server answers with an image, empty string otherwise.
func (t *Thumbnailer) probe(ctx context.Context, bookmarkURL string) string {
	parsed, err := url.Parse(bookmarkURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	faviconURL := parsed.Scheme + "://" + parsed.Host + "/favicon.ico"

	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, faviconURL, nil)
	if err != nil {
		return ""
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return ""
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return ""
	}
	return faviconURL
}
