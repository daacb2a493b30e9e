package bins

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warebin/warebin/internal/platform/httpx"
)

const defaultListLimit = 100

// Handler exposes the bin lookup API over HTTP. It holds a single store
// behind the service; the adapter is picked once at startup.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the bins HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches all bin routes under the caller's prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Route("/bins", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/count", h.Stats)
		r.Get("/barcode/{barcode}", h.GetByBarcode)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Root serves the liveness/info message.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	httpx.Message(w, http.StatusOK, "Warehouse Bin Lookup API")
}

// List serves GET /bins with pagination and optional filtering.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list bins", err)
		return
	}
	if result == nil {
		result = []Bin{}
	}
	httpx.JSON(w, http.StatusOK, result)
}

// Stats serves GET /bins/count.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.respondError(w, "bin stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

// Get serves GET /bins/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	bin, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get bin", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bin)
}

// GetByBarcode serves GET /bins/barcode/{barcode}.
func (h *Handler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	bin, err := h.service.GetByBarcode(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		h.respondError(w, "get bin by barcode", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bin)
}

// Create serves POST /bins. A body failing shape validation answers
// 422; the stock invariant and duplicate bin numbers answer 400.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
		return
	}

	bin, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, "create bin", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bin)
}

// Update serves PUT /bins/{id} as a partial update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	bin, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.respondError(w, "update bin", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bin)
}

// Delete serves DELETE /bins/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, "delete bin", err)
		return
	}
	httpx.Message(w, http.StatusOK, "Bin deleted successfully")
}

// respondError logs unexpected failures and maps everything through the
// shared taxonomy. Expected domain failures stay at debug noise level.
func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var upstream *httpx.UpstreamError
	switch {
	case errors.Is(err, httpx.ErrNotFound),
		errors.Is(err, httpx.ErrValidation),
		errors.Is(err, httpx.ErrDuplicate):
	case errors.As(err, &upstream),
		errors.Is(err, httpx.ErrTimeout),
		errors.Is(err, httpx.ErrUnavailable):
		h.logger.Warn(op+" failed upstream", slog.Any("error", err))
	default:
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	filter := ListFilter{Limit: defaultListLimit}

	if raw := r.URL.Query().Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return ListFilter{}, fmt.Errorf("skip must be a non-negative integer: %w", httpx.ErrValidation)
		}
		filter.Skip = skip
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return ListFilter{}, fmt.Errorf("limit must be an integer: %w", httpx.ErrValidation)
		}
		filter.Limit = limit
	}
	filter.Search = r.URL.Query().Get("search")
	filter.Status = Status(r.URL.Query().Get("status"))
	return filter, nil
}
