package http

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type analyticsUseCase interface {
	Summarize(ctx context.Context, linkID int64, callerID string, period entity.Period) (*entity.LinkAnalytics, error)
	Dashboard(ctx context.Context, ownerID string, period entity.Period) (*entity.Dashboard, error)
}

type analyticsHandler struct {
	useCase analyticsUseCase
	baseURL string
}

func newAnalyticsHandler(useCase analyticsUseCase, baseURL string) *analyticsHandler {
	return &analyticsHandler{
		useCase: useCase,
		baseURL: baseURL,
	}
}

func (h *analyticsHandler) summarize(w http.ResponseWriter, r *http.Request) {
	id, ok := linkIDParam(w, r)
	if !ok {
		return
	}

	period, err := entity.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	analytics, err := h.useCase.Summarize(r.Context(), id, ownerID(r.Context()), period)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkAnalyticsResponse(analytics, h.baseURL))
}

func (h *analyticsHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	period, err := entity.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		renderError(w, r, err)
		return
	}

	dashboard, err := h.useCase.Dashboard(r.Context(), ownerID(r.Context()), period)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toDashboardResponse(dashboard, h.baseURL))
}
