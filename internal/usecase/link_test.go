package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"golang.org/x/crypto/bcrypt"
)

func ptr[T any](v T) *T {
	return &v
}

type LinkUseCaseTestSuite struct {
	suite.Suite
	repo *mockLinkRepository
	uc   *LinkUseCase
}

func (suite *LinkUseCaseTestSuite) SetupSubTest() {
	suite.repo = new(mockLinkRepository)
	suite.uc = NewLinkUseCase(suite.repo, 7)
	suite.uc.passwordCost = bcrypt.MinCost
}

func (suite *LinkUseCaseTestSuite) TearDownSubTest() {
	suite.repo.AssertExpectations(suite.T())
}

func TestLinkUseCaseTestSuite(t *testing.T) {
	suite.Run(t, new(LinkUseCaseTestSuite))
}

func (suite *LinkUseCaseTestSuite) TestCreate() {
	ctx := context.Background()

	suite.Run("invalid destination", func() {
		for _, dest := range []string{"", "example.com", "ftp://example.com/file", "https://"} {
			link, err := suite.uc.Create(ctx, CreateLinkInput{Destination: dest})

			suite.ErrorIs(err, entity.ErrInvalidDestination, dest)
			suite.ErrorIs(err, entity.ErrValidation)
			suite.Nil(link)
		}
	})

	suite.Run("invalid alias", func() {
		link, err := suite.uc.Create(ctx, CreateLinkInput{
			Destination: "https://example.com",
			Alias:       "my alias!",
		})

		suite.ErrorIs(err, entity.ErrInvalidAlias)
		suite.Nil(link)
	})

	suite.Run("password protection without password", func() {
		link, err := suite.uc.Create(ctx, CreateLinkInput{
			Destination:       "https://example.com",
			PasswordProtected: true,
		})

		suite.ErrorIs(err, entity.ErrPasswordRequired)
		suite.Nil(link)
	})

	suite.Run("alias taken", func() {
		suite.repo.
			On("Create", ctx, mock.AnythingOfType("*entity.Link")).
			Return(nil, entity.ErrAliasTaken).
			Once()

		link, err := suite.uc.Create(ctx, CreateLinkInput{
			Destination: "https://example.com",
			Alias:       "promo",
		})

		suite.ErrorIs(err, entity.ErrAliasTaken)
		suite.Nil(link)
	})

	suite.Run("storage error", func() {
		storageErr := errors.New("connection reset")

		suite.repo.
			On("Create", ctx, mock.AnythingOfType("*entity.Link")).
			Return(nil, storageErr).
			Once()

		link, err := suite.uc.Create(ctx, CreateLinkInput{Destination: "https://example.com"})

		suite.ErrorIs(err, storageErr)
		suite.Nil(link)
	})

	suite.Run("token collision retries with longer token", func() {
		created := &entity.Link{ID: 1, Token: "abcdefgh", Destination: "https://example.com", Active: true}

		suite.repo.
			On("Create", ctx, mock.MatchedBy(func(l *entity.Link) bool { return len(l.Token) == 7 })).
			Return(nil, entity.ErrTokenExists).
			Once()
		suite.repo.
			On("Create", ctx, mock.MatchedBy(func(l *entity.Link) bool { return len(l.Token) == 8 })).
			Return(created, nil).
			Once()

		link, err := suite.uc.Create(ctx, CreateLinkInput{Destination: "https://example.com"})

		suite.NoError(err)
		suite.Equal(created, link)
	})

	suite.Run("max retries exceeded", func() {
		suite.repo.
			On("Create", ctx, mock.AnythingOfType("*entity.Link")).
			Return(nil, entity.ErrTokenExists).
			Times(5)

		link, err := suite.uc.Create(ctx, CreateLinkInput{Destination: "https://example.com"})

		suite.ErrorIs(err, ErrMaxRetriesExceeded)
		suite.Nil(link)
	})

	suite.Run("success", func() {
		expiresAt := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		var stored *entity.Link

		suite.repo.
			On("Create", ctx, mock.MatchedBy(func(l *entity.Link) bool {
				return len(l.Token) == 7 &&
					l.Alias == "promo" &&
					l.OwnerID == "user-1" &&
					l.Active &&
					l.ExpiresAt.Equal(expiresAt) &&
					!l.PasswordProtected &&
					l.PasswordHash == ""
			})).
			Run(func(args mock.Arguments) {
				stored = args.Get(1).(*entity.Link)
			}).
			Return(&entity.Link{ID: 1, Token: "abcdefg", Alias: "promo"}, nil).
			Once()

		link, err := suite.uc.Create(ctx, CreateLinkInput{
			Destination: "https://example.com/page?q=1",
			Alias:       "promo",
			ExpiresAt:   &expiresAt,
			OwnerID:     "user-1",
		})

		suite.NoError(err)
		suite.Equal("promo", link.Handle())
		suite.Equal("https://example.com/page?q=1", stored.Destination)
	})

	suite.Run("password is stored hashed", func() {
		var stored *entity.Link

		suite.repo.
			On("Create", ctx, mock.AnythingOfType("*entity.Link")).
			Run(func(args mock.Arguments) {
				stored = args.Get(1).(*entity.Link)
			}).
			Return(&entity.Link{ID: 1}, nil).
			Once()

		_, err := suite.uc.Create(ctx, CreateLinkInput{
			Destination:       "https://example.com",
			PasswordProtected: true,
			Password:          "s3cret",
		})

		suite.NoError(err)
		suite.True(stored.PasswordProtected)
		suite.NotEqual("s3cret", stored.PasswordHash)
		suite.True(passwordMatches(stored.PasswordHash, "s3cret"))
	})
}

func (suite *LinkUseCaseTestSuite) TestGet() {
	ctx := context.Background()

	suite.Run("not found", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(nil, entity.ErrLinkNotFound).Once()

		link, err := suite.uc.Get(ctx, 1, "user-1")

		suite.ErrorIs(err, entity.ErrLinkNotFound)
		suite.Nil(link)
	})

	suite.Run("owned by someone else", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(&entity.Link{ID: 1, OwnerID: "user-2"}, nil).Once()

		link, err := suite.uc.Get(ctx, 1, "user-1")

		suite.ErrorIs(err, entity.ErrForbidden)
		suite.Nil(link)
	})

	suite.Run("anonymous link", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(&entity.Link{ID: 1}, nil).Once()

		link, err := suite.uc.Get(ctx, 1, "")

		suite.NoError(err)
		suite.Equal(int64(1), link.ID)
	})

	suite.Run("owner", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(&entity.Link{ID: 1, OwnerID: "user-1"}, nil).Once()

		link, err := suite.uc.Get(ctx, 1, "user-1")

		suite.NoError(err)
		suite.Equal("user-1", link.OwnerID)
	})
}

func (suite *LinkUseCaseTestSuite) TestList() {
	ctx := context.Background()

	suite.Run("unauthenticated", func() {
		links, err := suite.uc.List(ctx, "")

		suite.ErrorIs(err, entity.ErrUnauthenticated)
		suite.Nil(links)
	})

	suite.Run("success", func() {
		suite.repo.
			On("ListByOwner", ctx, "user-1").
			Return([]entity.Link{{ID: 2}, {ID: 1}}, nil).
			Once()

		links, err := suite.uc.List(ctx, "user-1")

		suite.NoError(err)
		suite.Len(links, 2)
	})
}

func (suite *LinkUseCaseTestSuite) TestUpdate() {
	ctx := context.Background()

	stored := func() *entity.Link {
		return &entity.Link{
			ID:          1,
			Token:       "abcdefg",
			Alias:       "old",
			Destination: "https://example.com",
			OwnerID:     "user-1",
			Active:      true,
		}
	}

	suite.Run("forbidden for other owner", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(stored(), nil).Once()

		link, err := suite.uc.Update(ctx, 1, "user-2", UpdateLinkInput{Active: ptr(false)})

		suite.ErrorIs(err, entity.ErrForbidden)
		suite.Nil(link)
	})

	suite.Run("anonymous link cannot be updated", func() {
		anon := stored()
		anon.OwnerID = ""
		suite.repo.On("GetByID", ctx, int64(1)).Return(anon, nil).Once()

		_, err := suite.uc.Update(ctx, 1, "", UpdateLinkInput{Active: ptr(false)})

		suite.ErrorIs(err, entity.ErrForbidden)
	})

	suite.Run("invalid destination", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(stored(), nil).Once()

		_, err := suite.uc.Update(ctx, 1, "user-1", UpdateLinkInput{Destination: ptr("not a url")})

		suite.ErrorIs(err, entity.ErrInvalidDestination)
	})

	suite.Run("alias change passes previous alias", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(stored(), nil).Once()
		suite.repo.
			On("Update", ctx, mock.MatchedBy(func(l *entity.Link) bool { return l.Alias == "new" }), "old").
			Return(&entity.Link{ID: 1, Alias: "new"}, nil).
			Once()

		link, err := suite.uc.Update(ctx, 1, "user-1", UpdateLinkInput{Alias: ptr("new")})

		suite.NoError(err)
		suite.Equal("new", link.Alias)
	})

	suite.Run("alias collision", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(stored(), nil).Once()
		suite.repo.
			On("Update", ctx, mock.AnythingOfType("*entity.Link"), "old").
			Return(nil, entity.ErrAliasTaken).
			Once()

		_, err := suite.uc.Update(ctx, 1, "user-1", UpdateLinkInput{Alias: ptr("taken")})

		suite.ErrorIs(err, entity.ErrAliasTaken)
	})

	suite.Run("clear expiry", func() {
		link := stored()
		link.ExpiresAt = ptr(time.Now().Add(time.Hour))
		suite.repo.On("GetByID", ctx, int64(1)).Return(link, nil).Once()
		suite.repo.
			On("Update", ctx, mock.MatchedBy(func(l *entity.Link) bool { return l.ExpiresAt == nil }), "old").
			Return(&entity.Link{ID: 1}, nil).
			Once()

		_, err := suite.uc.Update(ctx, 1, "user-1", UpdateLinkInput{ClearExpiry: true})

		suite.NoError(err)
	})

	suite.Run("enable protection without password", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(stored(), nil).Once()

		_, err := suite.uc.Update(ctx, 1, "user-1", UpdateLinkInput{PasswordProtected: ptr(true)})

		suite.ErrorIs(err, entity.ErrPasswordRequired)
	})

	suite.Run("password alone enables protection", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(stored(), nil).Once()
		suite.repo.
			On("Update", ctx, mock.MatchedBy(func(l *entity.Link) bool {
				return l.PasswordProtected && passwordMatches(l.PasswordHash, "pw")
			}), "old").
			Return(&entity.Link{ID: 1, PasswordProtected: true}, nil).
			Once()

		link, err := suite.uc.Update(ctx, 1, "user-1", UpdateLinkInput{Password: ptr("pw")})

		suite.NoError(err)
		suite.True(link.PasswordProtected)
	})

	suite.Run("disable protection clears hash", func() {
		link := stored()
		link.PasswordProtected = true
		link.PasswordHash = "$2a$04$hash"
		suite.repo.On("GetByID", ctx, int64(1)).Return(link, nil).Once()
		suite.repo.
			On("Update", ctx, mock.MatchedBy(func(l *entity.Link) bool {
				return !l.PasswordProtected && l.PasswordHash == ""
			}), "old").
			Return(&entity.Link{ID: 1}, nil).
			Once()

		_, err := suite.uc.Update(ctx, 1, "user-1", UpdateLinkInput{PasswordProtected: ptr(false)})

		suite.NoError(err)
	})

	suite.Run("keeps existing hash", func() {
		link := stored()
		link.PasswordProtected = true
		link.PasswordHash = "$2a$04$hash"
		suite.repo.On("GetByID", ctx, int64(1)).Return(link, nil).Once()
		suite.repo.
			On("Update", ctx, mock.MatchedBy(func(l *entity.Link) bool {
				return l.PasswordProtected && l.PasswordHash == "$2a$04$hash" && !l.Active
			}), "old").
			Return(&entity.Link{ID: 1}, nil).
			Once()

		_, err := suite.uc.Update(ctx, 1, "user-1", UpdateLinkInput{Active: ptr(false)})

		suite.NoError(err)
	})
}

func (suite *LinkUseCaseTestSuite) TestDelete() {
	ctx := context.Background()

	suite.Run("not found", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(nil, entity.ErrLinkNotFound).Once()

		err := suite.uc.Delete(ctx, 1, "user-1")

		suite.ErrorIs(err, entity.ErrLinkNotFound)
	})

	suite.Run("forbidden", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(&entity.Link{ID: 1, OwnerID: "user-2"}, nil).Once()

		err := suite.uc.Delete(ctx, 1, "user-1")

		suite.ErrorIs(err, entity.ErrForbidden)
	})

	suite.Run("success", func() {
		suite.repo.On("GetByID", ctx, int64(1)).Return(&entity.Link{ID: 1, OwnerID: "user-1"}, nil).Once()
		suite.repo.On("Delete", ctx, int64(1)).Return(nil).Once()

		err := suite.uc.Delete(ctx, 1, "user-1")

		suite.NoError(err)
	})
}

func (suite *LinkUseCaseTestSuite) TestIncrementCounters() {
	ctx := context.Background()
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	suite.Run("empty delta is a no-op", func() {
		err := suite.uc.IncrementCounters(ctx, 1, entity.CounterDelta{}, at)

		suite.NoError(err)
	})

	suite.Run("delegates to storage", func() {
		delta := entity.CounterDelta{Click: true, UniqueVisitor: true}
		suite.repo.On("IncrementCounters", ctx, int64(1), delta, at).Return(nil).Once()

		err := suite.uc.IncrementCounters(ctx, 1, delta, at)

		suite.NoError(err)
	})
}
