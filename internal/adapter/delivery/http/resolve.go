package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/adapter/clientinfo"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

type resolveUseCase interface {
	Resolve(ctx context.Context, handle string, password *string, req usecase.ResolveRequest) (*entity.Resolution, error)
	VerifyPassword(ctx context.Context, handle, password string, req usecase.ResolveRequest) (*entity.Resolution, error)
}

type resolveHandler struct {
	useCase  resolveUseCase
	validate *validator.Validate
	locator  clientinfo.Locator
}

func newResolveHandler(useCase resolveUseCase, validate *validator.Validate, locator clientinfo.Locator) *resolveHandler {
	return &resolveHandler{
		useCase:  useCase,
		validate: validate,
		locator:  locator,
	}
}

// redirect answers 302 Found with the destination of the handle.
func (h *resolveHandler) redirect(w http.ResponseWriter, r *http.Request) {
	var password *string
	if values, ok := r.Header[http.CanonicalHeaderKey(PasswordHeader)]; ok && len(values) > 0 {
		password = &values[0]
	}

	res, err := h.useCase.Resolve(r.Context(), chi.URLParam(r, "handle"), password, h.resolveRequest(r))
	if err != nil {
		renderError(w, r, err)
		return
	}

	http.Redirect(w, r, res.Destination, http.StatusFound)
}

func (h *resolveHandler) verifyPassword(w http.ResponseWriter, r *http.Request) {
	var req verifyPasswordRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	res, err := h.useCase.VerifyPassword(r.Context(), chi.URLParam(r, "handle"), req.Password, h.resolveRequest(r))
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, verifyPasswordResponse{Destination: res.Destination})
}

func (h *resolveHandler) resolveRequest(r *http.Request) usecase.ResolveRequest {
	ip := clientinfo.HostIP(r.RemoteAddr)
	userAgent := r.UserAgent()

	return usecase.ResolveRequest{
		RemoteAddr:     ip,
		UserAgent:      userAgent,
		AcceptLanguage: r.Header.Get("Accept-Language"),
		Referrer:       r.Referer(),
		Client:         clientinfo.ParseUserAgent(userAgent),
		Geo:            h.locator.Locate(ip),
	}
}
