package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type mockLinkRepository struct {
	mock.Mock
}

func (r *mockLinkRepository) Create(ctx context.Context, link *entity.Link) (*entity.Link, error) {
	args := r.Called(ctx, link)
	created, _ := args.Get(0).(*entity.Link)
	return created, args.Error(1)
}

func (r *mockLinkRepository) GetByID(ctx context.Context, id int64) (*entity.Link, error) {
	args := r.Called(ctx, id)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (r *mockLinkRepository) FindByHandle(ctx context.Context, handle string) (*entity.Link, error) {
	args := r.Called(ctx, handle)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (r *mockLinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Link, error) {
	args := r.Called(ctx, ownerID)
	links, _ := args.Get(0).([]entity.Link)
	return links, args.Error(1)
}

func (r *mockLinkRepository) Update(ctx context.Context, link *entity.Link, prevAlias string) (*entity.Link, error) {
	args := r.Called(ctx, link, prevAlias)
	updated, _ := args.Get(0).(*entity.Link)
	return updated, args.Error(1)
}

func (r *mockLinkRepository) Delete(ctx context.Context, id int64) error {
	args := r.Called(ctx, id)
	return args.Error(0)
}

func (r *mockLinkRepository) IncrementCounters(ctx context.Context, id int64, delta entity.CounterDelta, at time.Time) error {
	args := r.Called(ctx, id, delta, at)
	return args.Error(0)
}

type mockVisitRepository struct {
	mock.Mock
}

func (r *mockVisitRepository) Append(ctx context.Context, visit *entity.VisitEvent) (*entity.VisitEvent, error) {
	args := r.Called(ctx, visit)
	saved, _ := args.Get(0).(*entity.VisitEvent)
	return saved, args.Error(1)
}

func (r *mockVisitRepository) ListByLink(ctx context.Context, linkID int64, from, to time.Time) ([]entity.VisitEvent, error) {
	args := r.Called(ctx, linkID, from, to)
	visits, _ := args.Get(0).([]entity.VisitEvent)
	return visits, args.Error(1)
}

func (r *mockVisitRepository) ListByOwner(ctx context.Context, ownerID string, from, to time.Time) ([]entity.VisitEvent, error) {
	args := r.Called(ctx, ownerID, from, to)
	visits, _ := args.Get(0).([]entity.VisitEvent)
	return visits, args.Error(1)
}

func (r *mockVisitRepository) ListRecentByOwner(ctx context.Context, ownerID string, limit int) ([]entity.VisitEvent, error) {
	args := r.Called(ctx, ownerID, limit)
	visits, _ := args.Get(0).([]entity.VisitEvent)
	return visits, args.Error(1)
}

type mockVisitRecorder struct {
	mock.Mock
}

func (r *mockVisitRecorder) Record(ctx context.Context, linkID int64, in VisitInput) (*entity.VisitEvent, error) {
	args := r.Called(ctx, linkID, in)
	visit, _ := args.Get(0).(*entity.VisitEvent)
	return visit, args.Error(1)
}
