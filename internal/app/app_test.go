package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Env:             config.EnvDev,
		BaseURL:         "http://sho.rt",
		ShortCodeLength: 7,
		Storage:         config.Storage{Driver: config.StorageMemory},
		Auth:            config.Auth{JWTSecret: "secret"},
	}
}

func TestNew_MemoryStorage(t *testing.T) {
	cfg := memoryConfig()

	a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	link, err := a.Links.Create(context.Background(), usecase.CreateLinkInput{
		Destination: "https://example.com/page",
		Alias:       "promo",
	})
	require.NoError(t, err)

	res, err := a.Resolver.Resolve(context.Background(), "promo", nil, usecase.ResolveRequest{
		RemoteAddr: "203.0.113.7",
		UserAgent:  "curl/8.0",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", res.Destination)

	got, err := a.Links.Get(context.Background(), link.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ClickCount)
	assert.Equal(t, int64(1), got.UniqueVisitorCount)
}

func TestNew_UnreachablePostgres(t *testing.T) {
	cfg := memoryConfig()
	cfg.Storage.Driver = config.StoragePostgres
	cfg.Postgres = config.Postgres{Host: "127.0.0.1", Port: 1, User: "u", Password: "p", DB: "d", SSLMode: "disable"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := New(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
	assert.Nil(t, a)
}

func TestApp_Handler(t *testing.T) {
	cfg := memoryConfig()
	logger := NewLogger(cfg)

	a, err := New(context.Background(), cfg, logger.Logger)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	_, err = a.Links.Create(context.Background(), usecase.CreateLinkInput{
		Destination: "https://example.com/guide",
		Alias:       "guide",
	})
	require.NoError(t, err)

	server := httptest.NewServer(a.Handler(cfg, logger))
	t.Cleanup(server.Close)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(server.URL + "/guide")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/guide", resp.Header.Get("Location"))

	resp, err = client.Get(server.URL + "/api/v1/links")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
