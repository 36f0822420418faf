// Package middleware holds HTTP middleware shared by the service's routers.
package middleware

import "net/http"

// Middleware wraps a handler with extra behavior.
type Middleware func(http.Handler) http.Handler
