// Package usecase implements the link registry, visit recording, resolution and
// analytics on top of storage interfaces declared next to their consumers.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// ErrMaxRetriesExceeded is returned when the maximum number of retries for generating a token is exceeded.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating token")

type linkRepository interface {
	Create(ctx context.Context, link *entity.Link) (*entity.Link, error)
	GetByID(ctx context.Context, id int64) (*entity.Link, error)
	FindByHandle(ctx context.Context, handle string) (*entity.Link, error)
	ListByOwner(ctx context.Context, ownerID string) ([]entity.Link, error)
	Update(ctx context.Context, link *entity.Link, prevAlias string) (*entity.Link, error)
	Delete(ctx context.Context, id int64) error
	IncrementCounters(ctx context.Context, id int64, delta entity.CounterDelta, at time.Time) error
}

type visitRepository interface {
	Append(ctx context.Context, visit *entity.VisitEvent) (*entity.VisitEvent, error)
	ListByLink(ctx context.Context, linkID int64, from, to time.Time) ([]entity.VisitEvent, error)
	ListByOwner(ctx context.Context, ownerID string, from, to time.Time) ([]entity.VisitEvent, error)
	ListRecentByOwner(ctx context.Context, ownerID string, limit int) ([]entity.VisitEvent, error)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
