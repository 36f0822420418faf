package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

type mockLinkUseCase struct {
	mock.Mock
}

func (m *mockLinkUseCase) Create(ctx context.Context, in usecase.CreateLinkInput) (*entity.Link, error) {
	args := m.Called(ctx, in)
	if link, ok := args.Get(0).(*entity.Link); ok {
		return link, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLinkUseCase) Get(ctx context.Context, id int64, callerID string) (*entity.Link, error) {
	args := m.Called(ctx, id, callerID)
	if link, ok := args.Get(0).(*entity.Link); ok {
		return link, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLinkUseCase) List(ctx context.Context, ownerID string) ([]entity.Link, error) {
	args := m.Called(ctx, ownerID)
	if links, ok := args.Get(0).([]entity.Link); ok {
		return links, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLinkUseCase) Update(ctx context.Context, id int64, callerID string, in usecase.UpdateLinkInput) (*entity.Link, error) {
	args := m.Called(ctx, id, callerID, in)
	if link, ok := args.Get(0).(*entity.Link); ok {
		return link, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLinkUseCase) Delete(ctx context.Context, id int64, callerID string) error {
	args := m.Called(ctx, id, callerID)
	return args.Error(0)
}

type mockResolveUseCase struct {
	mock.Mock
}

func (m *mockResolveUseCase) Resolve(ctx context.Context, handle string, password *string, req usecase.ResolveRequest) (*entity.Resolution, error) {
	args := m.Called(ctx, handle, password, req)
	if res, ok := args.Get(0).(*entity.Resolution); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockResolveUseCase) VerifyPassword(ctx context.Context, handle, password string, req usecase.ResolveRequest) (*entity.Resolution, error) {
	args := m.Called(ctx, handle, password, req)
	if res, ok := args.Get(0).(*entity.Resolution); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAnalyticsUseCase struct {
	mock.Mock
}

func (m *mockAnalyticsUseCase) Summarize(ctx context.Context, linkID int64, callerID string, period entity.Period) (*entity.LinkAnalytics, error) {
	args := m.Called(ctx, linkID, callerID, period)
	if a, ok := args.Get(0).(*entity.LinkAnalytics); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAnalyticsUseCase) Dashboard(ctx context.Context, ownerID string, period entity.Period) (*entity.Dashboard, error) {
	args := m.Called(ctx, ownerID, period)
	if d, ok := args.Get(0).(*entity.Dashboard); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
