package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortlink/pkg/middleware"
)

type tokenValidator interface {
	OwnerID(token string) (string, error)
}

type ownerKey struct{}

// authenticate puts the owner id of a valid bearer token into the request context.
// Requests without an Authorization header continue anonymously.
func authenticate(tokens tokenValidator) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokens == nil {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, invalidTokenResponse)
				return
			}

			ownerID, err := tokens.OwnerID(strings.TrimSpace(token))
			if err != nil {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, invalidTokenResponse)
				return
			}

			ctx := context.WithValue(r.Context(), ownerKey{}, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ownerID returns the authenticated owner, or "" for anonymous callers.
func ownerID(ctx context.Context) string {
	id, _ := ctx.Value(ownerKey{}).(string)
	return id
}
