// Package cache keeps resolved links in Redis in front of the link repository.
//
// Only handle lookups are cached. Writes go to the repository first and then drop every
// key the link could be cached under. Redis failures are logged and the repository is
// used instead, so the cache never turns a successful lookup into an error.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const keyPrefix = "shortlink:handle:"

type linkRepository interface {
	Create(ctx context.Context, link *entity.Link) (*entity.Link, error)
	GetByID(ctx context.Context, id int64) (*entity.Link, error)
	FindByHandle(ctx context.Context, handle string) (*entity.Link, error)
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Link, error)
	Update(ctx context.Context, link *entity.Link, prevAlias string) (*entity.Link, error)
	Delete(ctx context.Context, id int64) error
	IncrementCounters(ctx context.Context, id int64, delta entity.CounterDelta, at time.Time) error
}

// LinkRepository decorates a link repository with a cache-aside FindByHandle.
type LinkRepository struct {
	linkRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewLinkRepository(repo linkRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *LinkRepository {
	return &LinkRepository{
		linkRepository: repo,
		client:         client,
		ttl:            ttl,
		logger:         logger,
	}
}

func handleKey(handle string) string {
	return keyPrefix + handle
}

func (r *LinkRepository) FindByHandle(ctx context.Context, handle string) (*entity.Link, error) {
	const op = "adapter.cache.LinkRepository.FindByHandle"

	data, err := r.client.Get(ctx, handleKey(handle)).Bytes()
	switch {
	case err == nil:
		var link entity.Link
		if err := json.Unmarshal(data, &link); err == nil {
			return &link, nil
		}
		r.logger.WarnContext(ctx, "discarding malformed cache entry", slog.String("handle", handle))
	case !errors.Is(err, redis.Nil):
		r.logger.WarnContext(ctx, "cache lookup failed", slog.String("handle", handle), slog.Any("err", err))
	}

	link, err := r.linkRepository.FindByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if data, err := json.Marshal(link); err == nil {
		if err := r.client.Set(ctx, handleKey(handle), data, r.ttl).Err(); err != nil {
			r.logger.WarnContext(ctx, "cache store failed", slog.String("handle", handle), slog.Any("err", err))
		}
	}

	return link, nil
}

func (r *LinkRepository) Update(ctx context.Context, link *entity.Link, prevAlias string) (*entity.Link, error) {
	const op = "adapter.cache.LinkRepository.Update"

	updated, err := r.linkRepository.Update(ctx, link, prevAlias)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.invalidate(ctx, updated.Token, prevAlias, updated.Alias)

	return updated, nil
}

func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	const op = "adapter.cache.LinkRepository.Delete"

	link, err := r.linkRepository.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.linkRepository.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.invalidate(ctx, link.Token, link.Alias)

	return nil
}

func (r *LinkRepository) invalidate(ctx context.Context, handles ...string) {
	keys := make([]string, 0, len(handles))
	for _, h := range handles {
		if h != "" {
			keys = append(keys, handleKey(h))
		}
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.WarnContext(ctx, "cache invalidation failed", slog.Any("handles", handles), slog.Any("err", err))
	}
}

// NewClient connects to Redis and checks the connection with a ping.
func NewClient(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	const op = "adapter.cache.NewClient"

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: failed to ping redis: %w", op, err)
	}

	return client, nil
}
