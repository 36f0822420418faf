package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"golang.org/x/crypto/bcrypt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// CreateLinkInput holds the attributes of a link to be created.
type CreateLinkInput struct {
	Destination       string
	Alias             string
	ExpiresAt         *time.Time
	PasswordProtected bool
	Password          string
	OwnerID           string
}

// UpdateLinkInput holds the attributes to change. Nil fields are left untouched.
type UpdateLinkInput struct {
	Destination       *string
	Alias             *string // An empty alias removes the current one.
	ExpiresAt         *time.Time
	ClearExpiry       bool
	PasswordProtected *bool
	Password          *string
	Active            *bool
}

// LinkUseCase is the link registry: it owns the handle namespace and the link counters.
type LinkUseCase struct {
	tokenLength  int
	passwordCost int
	repo         linkRepository
}

// NewLinkUseCase creates a new LinkUseCase that generates tokens of tokenLength characters.
func NewLinkUseCase(repo linkRepository, tokenLength int) *LinkUseCase {
	return &LinkUseCase{
		tokenLength:  tokenLength,
		passwordCost: bcrypt.DefaultCost,
		repo:         repo,
	}
}

// Create validates the input, generates a fresh token and stores the link.
// A token collision is retried with a longer token; an alias collision fails with entity.ErrAliasTaken.
func (uc *LinkUseCase) Create(ctx context.Context, in CreateLinkInput) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.Create"
	const maxRetries = 5

	if err := validateDestination(in.Destination); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if in.Alias != "" && !aliasPattern.MatchString(in.Alias) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidAlias)
	}

	link := &entity.Link{
		Alias:       in.Alias,
		Destination: in.Destination,
		OwnerID:     in.OwnerID,
		Active:      true,
		ExpiresAt:   in.ExpiresAt,
	}

	if in.PasswordProtected {
		if in.Password == "" {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrPasswordRequired)
		}

		hash, err := hashPassword(in.Password, uc.passwordCost)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
		}

		link.PasswordProtected = true
		link.PasswordHash = hash
	}

	length := uc.tokenLength

	for i := 0; i < maxRetries; i++ {
		token, err := gonanoid.New(length)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate token: %w", op, err)
		}
		if token == in.Alias {
			continue
		}

		link.Token = token

		created, err := uc.repo.Create(ctx, link)
		if err != nil {
			if errors.Is(err, entity.ErrTokenExists) {
				length++
				continue
			}

			return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
		}

		return created, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// FindByHandle returns the link whose token or alias equals handle, active or not.
func (uc *LinkUseCase) FindByHandle(ctx context.Context, handle string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.FindByHandle"

	link, err := uc.repo.FindByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to find link: %w", op, err)
	}

	return link, nil
}

// Get returns the link with the given id. Owned links are visible to their owner only.
func (uc *LinkUseCase) Get(ctx context.Context, id int64, callerID string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.Get"

	link, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	if link.OwnerID != "" && !link.OwnedBy(callerID) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrForbidden)
	}

	return link, nil
}

// List returns every link owned by ownerID, newest first.
func (uc *LinkUseCase) List(ctx context.Context, ownerID string) ([]entity.Link, error) {
	const op = "usecase.LinkUseCase.List"

	if ownerID == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrUnauthenticated)
	}

	links, err := uc.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

// Update applies in to the link owned by callerID.
func (uc *LinkUseCase) Update(ctx context.Context, id int64, callerID string, in UpdateLinkInput) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.Update"

	link, err := uc.owned(ctx, id, callerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	prevAlias := link.Alias

	if in.Destination != nil {
		if err := validateDestination(*in.Destination); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		link.Destination = *in.Destination
	}

	if in.Alias != nil && *in.Alias != link.Alias {
		if *in.Alias != "" && !aliasPattern.MatchString(*in.Alias) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidAlias)
		}
		link.Alias = *in.Alias
	}

	if in.ClearExpiry {
		link.ExpiresAt = nil
	} else if in.ExpiresAt != nil {
		link.ExpiresAt = in.ExpiresAt
	}

	if err := uc.applyPassword(link, in.PasswordProtected, in.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if in.Active != nil {
		link.Active = *in.Active
	}

	updated, err := uc.repo.Update(ctx, link, prevAlias)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update link: %w", op, err)
	}

	return updated, nil
}

// Delete removes the link owned by callerID.
func (uc *LinkUseCase) Delete(ctx context.Context, id int64, callerID string) error {
	const op = "usecase.LinkUseCase.Delete"

	if _, err := uc.owned(ctx, id, callerID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	return nil
}

// IncrementCounters atomically adds a visit to the link counters and stamps the access time.
func (uc *LinkUseCase) IncrementCounters(ctx context.Context, id int64, delta entity.CounterDelta, at time.Time) error {
	const op = "usecase.LinkUseCase.IncrementCounters"

	if !delta.Click && !delta.UniqueVisitor {
		return nil
	}

	if err := uc.repo.IncrementCounters(ctx, id, delta, at); err != nil {
		return fmt.Errorf("%s: failed to increment counters: %w", op, err)
	}

	return nil
}

func (uc *LinkUseCase) owned(ctx context.Context, id int64, callerID string) (*entity.Link, error) {
	link, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	if !link.OwnedBy(callerID) {
		return nil, entity.ErrForbidden
	}

	return link, nil
}

// applyPassword keeps PasswordHash set if and only if PasswordProtected is true.
// Supplying a password without the flag turns protection on.
func (uc *LinkUseCase) applyPassword(link *entity.Link, protected *bool, password *string) error {
	protect := link.PasswordProtected
	if protected != nil {
		protect = *protected
	} else if password != nil {
		protect = true
	}

	if !protect {
		link.PasswordProtected = false
		link.PasswordHash = ""
		return nil
	}

	switch {
	case password != nil && *password != "":
		hash, err := hashPassword(*password, uc.passwordCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		link.PasswordHash = hash
	case password != nil, link.PasswordHash == "":
		return entity.ErrPasswordRequired
	}

	link.PasswordProtected = true

	return nil
}

func validateDestination(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return entity.ErrInvalidDestination
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return entity.ErrInvalidDestination
	}

	return nil
}
