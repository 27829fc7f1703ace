package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "agronexus/internal/errors"
	"agronexus/internal/exporter"
	"agronexus/internal/infrastructure"
)

// ExportHandler serves merged-dataset downloads in CSV or Excel form.
type ExportHandler struct {
	service      DashboardServiceInterface
	dashboard    *DashboardHandler
	excel        *exporter.ExcelExporter
	metrics      *infrastructure.BusinessMetrics
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler
func NewExportHandler(service DashboardServiceInterface, metrics *infrastructure.BusinessMetrics, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{
		service:      service,
		dashboard:    NewDashboardHandler(service, logger, errorHandler),
		excel:        exporter.NewExcelExporter(),
		metrics:      metrics,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{format}", h.Download)
	return r
}

// Download handles GET /api/export/{format}
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	if format != "csv" && format != "xlsx" {
		h.errorHandler.HandleError(w, r,
			apierrors.ErrValidation("format", "must be one of: csv, xlsx"))
		return
	}

	query, apiErr := h.dashboard.parseQuery(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	snap, err := h.service.Dashboard(r.Context(), query)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("agronexus_%s.%s", time.Now().Format("20060102"), format)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		err = exporter.StreamTable(w, snap.Table)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = h.excel.Write(w, snap.Table)
	}

	if err != nil {
		// headers are out, the best we can do is log the broken download
		h.logger.ErrorContext(r.Context(), "export stream failed",
			slog.String("format", format),
			slog.String("error", err.Error()))
		return
	}

	if h.metrics != nil {
		h.metrics.ExportsTotal.Add(r.Context(), 1)
	}
	h.logger.InfoContext(r.Context(), "dataset exported",
		slog.String("format", format),
		slog.Int("rows", snap.Table.NumRows()))
}
