package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/fingerprint"
)

// ResolveRequest carries the request attributes used for fingerprinting and analytics.
type ResolveRequest struct {
	RemoteAddr     string
	UserAgent      string
	AcceptLanguage string
	Referrer       string
	Client         entity.ClientMeta
	Geo            *entity.Geo
}

type linkFinder interface {
	FindByHandle(ctx context.Context, handle string) (*entity.Link, error)
}

type visitRecorder interface {
	Record(ctx context.Context, linkID int64, in VisitInput) (*entity.VisitEvent, error)
}

// Resolver turns a handle into a destination, applying the expiry and password gates
// and recording the visit.
type Resolver struct {
	links    linkFinder
	recorder visitRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewResolver creates a new Resolver.
func NewResolver(links linkFinder, recorder visitRecorder, logger *slog.Logger) *Resolver {
	return &Resolver{
		links:    links,
		recorder: recorder,
		logger:   logger,
		now:      utcNow,
	}
}

// Resolve returns the destination of handle.
//
// Gate failures are entity.ErrLinkNotFound, entity.ErrLinkExpired and *entity.GateError.
// A failure to record the visit is logged and never fails the resolution.
func (s *Resolver) Resolve(ctx context.Context, handle string, password *string, req ResolveRequest) (*entity.Resolution, error) {
	const op = "usecase.Resolver.Resolve"

	link, err := s.open(ctx, handle, password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.complete(ctx, op, link, req), nil
}

// VerifyPassword applies the same gates as Resolve for a password check that does not redirect.
// On success the visit is recorded and the destination returned.
func (s *Resolver) VerifyPassword(ctx context.Context, handle, password string, req ResolveRequest) (*entity.Resolution, error) {
	const op = "usecase.Resolver.VerifyPassword"

	link, err := s.open(ctx, handle, &password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.complete(ctx, op, link, req), nil
}

func (s *Resolver) open(ctx context.Context, handle string, password *string) (*entity.Link, error) {
	link, err := s.links.FindByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	if link.IsExpired(s.now()) {
		return nil, entity.ErrLinkExpired
	}
	if !link.Active {
		return nil, entity.ErrLinkNotFound
	}

	if link.PasswordProtected {
		if password == nil || *password == "" {
			return nil, &entity.GateError{Handle: handle, Err: entity.ErrPasswordRequired}
		}
		if !passwordMatches(link.PasswordHash, *password) {
			return nil, &entity.GateError{Handle: handle, Err: entity.ErrPasswordIncorrect}
		}
	}

	return link, nil
}

func (s *Resolver) complete(ctx context.Context, op string, link *entity.Link, req ResolveRequest) *entity.Resolution {
	visit, err := s.recorder.Record(ctx, link.ID, VisitInput{
		VisitorKey: fingerprint.VisitorKey(req.RemoteAddr, req.UserAgent, req.AcceptLanguage),
		Client:     req.Client,
		Geo:        req.Geo,
		Referrer:   req.Referrer,
	})
	if err != nil {
		s.logger.Warn(
			"failed to record visit",
			slog.String("op", op),
			slog.Int64("link_id", link.ID),
			slog.String("handle", link.Handle()),
			slog.Any("err", err),
		)
	}

	return &entity.Resolution{
		Destination: link.Destination,
		Link:        link,
		Visit:       visit,
	}
}
