package http

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

type linkUseCase interface {
	Create(ctx context.Context, in usecase.CreateLinkInput) (*entity.Link, error)
	Get(ctx context.Context, id int64, callerID string) (*entity.Link, error)
	List(ctx context.Context, ownerID string) ([]entity.Link, error)
	Update(ctx context.Context, id int64, callerID string, in usecase.UpdateLinkInput) (*entity.Link, error)
	Delete(ctx context.Context, id int64, callerID string) error
}

type linkHandler struct {
	useCase  linkUseCase
	validate *validator.Validate
	baseURL  string
}

func newLinkHandler(useCase linkUseCase, validate *validator.Validate, baseURL string) *linkHandler {
	return &linkHandler{
		useCase:  useCase,
		validate: validate,
		baseURL:  baseURL,
	}
}

func (h *linkHandler) createLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	link, err := h.useCase.Create(r.Context(), usecase.CreateLinkInput{
		Destination:       req.Destination,
		Alias:             req.Alias,
		ExpiresAt:         req.ExpiresAt,
		PasswordProtected: req.PasswordProtected,
		Password:          req.Password,
		OwnerID:           ownerID(r.Context()),
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toLinkResponse(link, h.baseURL))
}

func (h *linkHandler) listLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.useCase.List(r.Context(), ownerID(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponses(links, h.baseURL))
}

func (h *linkHandler) getLink(w http.ResponseWriter, r *http.Request) {
	id, ok := linkIDParam(w, r)
	if !ok {
		return
	}

	link, err := h.useCase.Get(r.Context(), id, ownerID(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponse(link, h.baseURL))
}

func (h *linkHandler) updateLink(w http.ResponseWriter, r *http.Request) {
	id, ok := linkIDParam(w, r)
	if !ok {
		return
	}

	var req updateLinkRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	link, err := h.useCase.Update(r.Context(), id, ownerID(r.Context()), usecase.UpdateLinkInput{
		Destination:       req.Destination,
		Alias:             req.Alias,
		ExpiresAt:         req.ExpiresAt,
		ClearExpiry:       req.ClearExpiry,
		PasswordProtected: req.PasswordProtected,
		Password:          req.Password,
		Active:            req.Active,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponse(link, h.baseURL))
}

func (h *linkHandler) deleteLink(w http.ResponseWriter, r *http.Request) {
	id, ok := linkIDParam(w, r)
	if !ok {
		return
	}

	if err := h.useCase.Delete(r.Context(), id, ownerID(r.Context())); err != nil {
		renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
