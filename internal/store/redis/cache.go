// Package redis implements the page cache collaborator: rendered search
// pages are cached under query fingerprints and the whole namespace is
// dropped whenever the datastore saves.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marque/internal/logger"
)

// DefaultPageTTL bounds staleness even if an invalidation is lost.
const DefaultPageTTL = 24 * time.Hour

// Store is the redis-backed page cache.
type Store struct {
	client *redis.Client
	log    logger.Logger
}

// NewStore wraps an established redis client.
func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{client: client, log: log}
}

// CachePage stores a rendered search page under its query fingerprint.
func (s *Store) CachePage(ctx context.Context, fingerprint string, payload []byte) error {
	if err := s.client.Set(ctx, PageKey(fingerprint), payload, DefaultPageTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache page: %w", err)
	}
	return nil
}

// GetPage retrieves a cached page. A miss returns (nil, nil).
func (s *Store) GetPage(ctx context.Context, fingerprint string) ([]byte, error) {
	payload, err := s.client.Get(ctx, PageKey(fingerprint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached page: %w", err)
	}
	return payload, nil
}

// Invalidate drops every cached page. Called by the datastore after each
// save; errors are logged here and swallowed, the save already succeeded.
func (s *Store) Invalidate(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixPage+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			s.log.Warn("failed to drop cached page",
				logger.String("key", iter.Val()),
				logger.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		s.log.Warn("page cache invalidation incomplete", logger.Error(err))
		return fmt.Errorf("failed to scan page cache: %w", err)
	}
	return nil
}
