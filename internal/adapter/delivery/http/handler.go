package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// decodeAndValidate reads a JSON body into v and validates it, writing the error response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		render.Status(r, http.StatusBadRequest)
		if errors.Is(err, io.EOF) {
			render.JSON(w, r, emptyRequestBodyResponse)
		} else {
			render.JSON(w, r, invalidRequestBodyResponse)
		}
		return false
	}

	if err := validate.Struct(v); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return false
	}

	return true
}

func linkIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidIDResponse)
		return 0, false
	}
	return id, true
}

// renderError maps a use case error onto its status code and response body.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var gateErr *entity.GateError

	switch {
	case errors.As(err, &gateErr):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, errorResponse{
			Status:           statusError,
			Message:          gateErr.Err.Error(),
			Handle:           gateErr.Handle,
			PasswordRequired: errors.Is(gateErr.Err, entity.ErrPasswordRequired),
		})
	case errors.Is(err, entity.ErrValidation), errors.Is(err, entity.ErrPasswordRequired):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, newErrorResponse(validationMessage(err)))
	case errors.Is(err, entity.ErrAliasTaken):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, aliasTakenResponse)
	case errors.Is(err, entity.ErrLinkNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, linkNotFoundResponse)
	case errors.Is(err, entity.ErrLinkExpired):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, linkExpiredResponse)
	case errors.Is(err, entity.ErrUnauthenticated):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, unauthenticatedResponse)
	case errors.Is(err, entity.ErrForbidden):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, forbiddenResponse)
	case errors.Is(err, entity.ErrStorageUnavailable):
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		w.Header().Set("Retry-After", "1")
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, storageUnavailableResponse)
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
	}
}

// validationMessage returns the message of the sentinel error inside err.
func validationMessage(err error) string {
	for _, sentinel := range []error{
		entity.ErrInvalidDestination,
		entity.ErrInvalidAlias,
		entity.ErrInvalidPeriod,
		entity.ErrPasswordRequired,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return entity.ErrValidation.Error()
}
