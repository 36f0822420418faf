package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

func createLink(t *testing.T, repo *LinkRepository, token, alias string) *entity.Link {
	t.Helper()

	link, err := repo.Create(context.Background(), &entity.Link{
		Token:       token,
		Alias:       alias,
		Destination: "https://example.com",
		OwnerID:     "owner",
		Active:      true,
	})
	require.NoError(t, err)

	return link
}

func TestLinkRepositoryHandles(t *testing.T) {
	ctx := context.Background()

	t.Run("token and alias share one namespace", func(t *testing.T) {
		repo := New().Links()
		createLink(t, repo, "abc1234", "promo")

		_, err := repo.Create(ctx, &entity.Link{Token: "promo", Destination: "https://example.com"})
		assert.ErrorIs(t, err, entity.ErrTokenExists)

		_, err = repo.Create(ctx, &entity.Link{Token: "xyz9876", Alias: "abc1234", Destination: "https://example.com"})
		assert.ErrorIs(t, err, entity.ErrAliasTaken)
	})

	t.Run("find by token or alias", func(t *testing.T) {
		repo := New().Links()
		created := createLink(t, repo, "abc1234", "promo")

		byToken, err := repo.FindByHandle(ctx, "abc1234")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byToken.ID)

		byAlias, err := repo.FindByHandle(ctx, "promo")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byAlias.ID)
	})

	t.Run("inactive links are still found", func(t *testing.T) {
		repo := New().Links()
		created := createLink(t, repo, "abc1234", "")
		created.Active = false

		_, err := repo.Update(ctx, created, "")
		require.NoError(t, err)

		found, err := repo.FindByHandle(ctx, "abc1234")
		require.NoError(t, err)
		assert.False(t, found.Active)
	})

	t.Run("alias change frees the previous alias", func(t *testing.T) {
		repo := New().Links()
		created := createLink(t, repo, "abc1234", "promo")
		created.Alias = "summer"

		_, err := repo.Update(ctx, created, "promo")
		require.NoError(t, err)

		_, err = repo.FindByHandle(ctx, "promo")
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)

		found, err := repo.FindByHandle(ctx, "summer")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("delete removes handles and visits", func(t *testing.T) {
		store := New()
		created := createLink(t, store.Links(), "abc1234", "promo")

		_, err := store.Visits().Append(ctx, &entity.VisitEvent{LinkID: created.ID, VisitorKey: "k", VisitedAt: time.Now()})
		require.NoError(t, err)

		require.NoError(t, store.Links().Delete(ctx, created.ID))

		_, err = store.Links().FindByHandle(ctx, "promo")
		assert.ErrorIs(t, err, entity.ErrLinkNotFound)
		assert.ErrorIs(t, store.Links().Delete(ctx, created.ID), entity.ErrLinkNotFound)
		assert.Empty(t, store.visits)
	})
}

func TestConcurrentVisits(t *testing.T) {
	const n = 50

	ctx := context.Background()
	store := New()
	link := createLink(t, store.Links(), "abc1234", "")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		uniques int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			visit, err := store.Visits().Append(ctx, &entity.VisitEvent{
				LinkID:     link.ID,
				VisitorKey: "same-visitor",
				VisitedAt:  time.Now(),
			})
			assert.NoError(t, err)

			err = store.Links().IncrementCounters(ctx, link.ID, entity.CounterDelta{
				Click:         true,
				UniqueVisitor: visit.IsUnique,
			}, visit.VisitedAt)
			assert.NoError(t, err)

			if visit.IsUnique {
				mu.Lock()
				uniques++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	got, err := store.Links().GetByID(ctx, link.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, uniques)
	assert.Equal(t, int64(n), got.ClickCount)
	assert.Equal(t, int64(1), got.UniqueVisitorCount)
	assert.NotNil(t, got.LastAccessedAt)
}

func TestVisitQueries(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	store := New()
	mine := createLink(t, store.Links(), "abc1234", "")
	theirs, err := store.Links().Create(ctx, &entity.Link{Token: "zzz0000", Destination: "https://example.org", OwnerID: "other", Active: true})
	require.NoError(t, err)

	for i, at := range []time.Time{base.Add(-48 * time.Hour), base.Add(-time.Hour), base} {
		_, err := store.Visits().Append(ctx, &entity.VisitEvent{LinkID: mine.ID, VisitorKey: string(rune('a' + i)), VisitedAt: at})
		require.NoError(t, err)
	}
	_, err = store.Visits().Append(ctx, &entity.VisitEvent{LinkID: theirs.ID, VisitorKey: "x", VisitedAt: base})
	require.NoError(t, err)

	byLink, err := store.Visits().ListByLink(ctx, mine.ID, base.Add(-24*time.Hour), base)
	require.NoError(t, err)
	assert.Len(t, byLink, 2)

	byOwner, err := store.Visits().ListByOwner(ctx, "owner", base.Add(-72*time.Hour), base)
	require.NoError(t, err)
	assert.Len(t, byOwner, 3)

	recent, err := store.Visits().ListRecentByOwner(ctx, "owner", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, base, recent[0].VisitedAt)
	assert.Equal(t, base.Add(-time.Hour), recent[1].VisitedAt)
}
