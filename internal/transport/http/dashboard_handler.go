package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"agronexus/internal/dataset"
	apierrors "agronexus/internal/errors"
	"agronexus/internal/middleware"
	"agronexus/internal/services"
)

// DashboardHandler handles dashboard HTTP requests with RFC 7807 compliance
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetDashboard)
	r.Get("/metrics", h.GetMetrics)
	r.Get("/merged", h.GetMerged)
	r.Get("/climate", h.GetClimate)
	r.Get("/season", h.GetSeason)
	r.Post("/refresh", h.Refresh)

	return r
}

// dashboardQuery carries the validated filter parameters of a request.
type dashboardQuery struct {
	Years []int  `json:"years" validate:"omitempty,dive,min=1900,max=2200"`
	From  string `json:"from" validate:"omitempty,isodate"`
	To    string `json:"to" validate:"omitempty,isodate"`
}

// parseQuery extracts and validates filter parameters from the URL query.
func (h *DashboardHandler) parseQuery(r *http.Request) (services.Query, *apierrors.APIError) {
	q := dashboardQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}

	if raw := r.URL.Query().Get("years"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			year, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return services.Query{}, apierrors.ErrValidation("years", "must be a comma-separated list of years")
			}
			q.Years = append(q.Years, year)
		}
	}

	if err := middleware.Validator.Struct(q); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			fe := errs[0]
			return services.Query{}, apierrors.ErrValidation(fe.Field(), middleware.ValidationErrorMessage(fe))
		}
		return services.Query{}, apierrors.InvalidRequestWithError(err)
	}

	out := services.Query{Years: q.Years}
	if q.From != "" {
		out.From, _ = time.Parse("2006-01-02", q.From)
	}
	if q.To != "" {
		out.To, _ = time.Parse("2006-01-02", q.To)
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.To.Before(out.From) {
		return services.Query{}, apierrors.ErrValidation("to", "must not be before from")
	}
	return out, nil
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	query, apiErr := h.parseQuery(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	snap, err := h.service.Dashboard(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"metrics":    snap.Metrics,
		"sources":    snap.Sources,
		"years":      snap.Years,
		"fetched_at": snap.FetchedAt,
		"table":      NewTablePayload(snap.Table),
	})
}

// GetMetrics handles GET /api/dashboard/metrics
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	query, apiErr := h.parseQuery(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	snap, err := h.service.Dashboard(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, snap.Metrics)
}

// GetMerged handles GET /api/dashboard/merged
func (h *DashboardHandler) GetMerged(w http.ResponseWriter, r *http.Request) {
	query, apiErr := h.parseQuery(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	snap, err := h.service.Dashboard(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, NewTablePayload(snap.Table))
}

// GetClimate handles GET /api/dashboard/climate. It serves the climate
// history columns only, so the history chart does not pull price data.
func (h *DashboardHandler) GetClimate(w http.ResponseWriter, r *http.Request) {
	query, apiErr := h.parseQuery(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	snap, err := h.service.Dashboard(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	payload := NewTablePayload(snap.Table)
	for name := range payload.Columns {
		if name != dataset.ColTempMax && name != dataset.ColRainfall {
			delete(payload.Columns, name)
		}
	}
	render.JSON(w, r, payload)
}

// GetSeason handles GET /api/dashboard/season
func (h *DashboardHandler) GetSeason(w http.ResponseWriter, r *http.Request) {
	season, err := h.service.Season(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, NewTablePayload(season))
}

// Refresh handles POST /api/dashboard/refresh. With ?strict=true a live
// source failure returns an error instead of degrading to fallback data.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	strict := r.URL.Query().Get("strict") == "true" || r.URL.Query().Get("strict") == "1"

	h.logger.InfoContext(r.Context(), "manual refresh requested",
		slog.String("remote_addr", r.RemoteAddr),
		slog.Bool("strict", strict))

	snap, err := h.service.Refresh(r.Context(), strict)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":     "refreshed",
		"metrics":    snap.Metrics,
		"sources":    snap.Sources,
		"fetched_at": snap.FetchedAt,
	})
}

func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "dashboard request failed",
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path))
	h.errorHandler.HandleError(w, r, err)
}
