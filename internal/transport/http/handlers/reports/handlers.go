package reportshandler

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/reports"
	"appraisal/internal/platform/jobs"
	"appraisal/internal/platform/metrics"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Service   *reports.Service
	Jobs      *jobs.Service
	Collector *metrics.Collector
}

func NewHandler(service *reports.Service, jobsService *jobs.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Jobs: jobsService, Collector: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/periods/{periodID}/summary", h.handlePeriodSummary)
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/periods/{periodID}/employees/{employeeID}/sheet.pdf", h.handleEvaluationSheet)
		r.With(middleware.RequirePermission(auth.PermAuditRead)).Get("/jobs", h.handleJobRuns)
		r.With(middleware.RequirePermission(auth.PermSystemAdmin)).Get("/metrics", h.handleMetrics)
	})
}

func (h *Handler) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.PeriodSummary(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleEvaluationSheet(w http.ResponseWriter, r *http.Request) {
	path, err := h.Service.GenerateEvaluationSheetPDF(r.Context(), chi.URLParam(r, "periodID"), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_read_failed", "failed to read generated report", requestctx.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	runs, err := h.Jobs.ListJobRuns(r.Context(), r.URL.Query().Get("jobType"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_list_failed", "failed to list job runs", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, runs, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Collector.Snapshot(), requestctx.GetRequestID(r.Context()))
}
