// Package http provides the HTTP delivery layer of the link service: the management
// API under /api/v1 and the public redirect endpoint at /{handle}.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortlink/docs"
	"github.com/vadimbarashkov/shortlink/internal/adapter/clientinfo"
	"github.com/vadimbarashkov/shortlink/pkg/middleware/recoverer"

	httpSwagger "github.com/swaggo/http-swagger"
)

// PasswordHeader carries the password of a protected link on redirect requests.
const PasswordHeader = "X-Link-Password"

// Options configures NewRouter.
type Options struct {
	BaseURL        string             // BaseURL prefixes handles in short_url fields.
	RequestTimeout time.Duration      // RequestTimeout bounds every request when positive.
	Tokens         tokenValidator     // Tokens validates bearer tokens; nil rejects any Authorization header.
	Locator        clientinfo.Locator // Locator resolves visitor geography; nil disables it.
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes.
func NewRouter(
	logger *httplog.Logger,
	opts Options,
	links linkUseCase,
	resolver resolveUseCase,
	analytics analyticsUseCase,
) *chi.Mux {
	if opts.Locator == nil {
		opts.Locator = clientinfo.NopLocator{}
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization", PasswordHeader},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	validate := newValidator()
	lh := newLinkHandler(links, validate, opts.BaseURL)
	rh := newResolveHandler(resolver, validate, opts.Locator)
	ah := newAnalyticsHandler(analytics, opts.BaseURL)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", handleSwaggerDoc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Group(func(r chi.Router) {
			r.Use(authenticate(opts.Tokens))

			r.Route("/links", func(r chi.Router) {
				r.Post("/", lh.createLink)
				r.Get("/", lh.listLinks)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", lh.getLink)
					r.Patch("/", lh.updateLink)
					r.Delete("/", lh.deleteLink)
					r.Get("/analytics", ah.summarize)
				})
			})

			r.Get("/dashboard", ah.dashboard)
		})

		r.Post("/resolve/{handle}/verify", rh.verifyPassword)
	})

	r.Get("/{handle}", rh.redirect)

	return r
}

func handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func handleSwaggerDoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(docs.Swagger)
}
