package projecthandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/project"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Service *project.Service
}

func NewHandler(service *project.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermProjectsRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermProjectsRead)).Get("/{projectID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermProjectsWrite)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermProjectsWrite)).Put("/{projectID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermProjectsWrite)).Delete("/{projectID}", h.handleDelete)

		r.With(middleware.RequirePermission(auth.PermProjectsRead)).Get("/{projectID}/deliverables", h.handleListDeliverables)
		r.With(middleware.RequirePermission(auth.PermProjectsWrite)).Post("/{projectID}/deliverables/bulk", h.handleBulkAddDeliverables)
		r.With(middleware.RequirePermission(auth.PermProjectsWrite)).Post("/{projectID}/deliverables/bulk-delete", h.handleBulkRemoveDeliverables)

		r.With(middleware.RequirePermission(auth.PermProjectsRead)).Get("/{projectID}/assignments", h.handleListAssignments)
		r.With(middleware.RequirePermission(auth.PermProjectsWrite)).Post("/{projectID}/assignments/bulk", h.handleBulkAssign)
		r.With(middleware.RequirePermission(auth.PermProjectsWrite)).Post("/{projectID}/assignments/bulk-delete", h.handleBulkUnassign)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("periodId")
	if periodID == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "periodId query parameter is required", requestctx.GetRequestID(r.Context()))
		return
	}
	projects, err := h.Service.List(r.Context(), periodID)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, projects, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, p, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in project.ProjectInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	p, err := h.Service.Create(r.Context(), in)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Created(w, p, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var in project.ProjectInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	p, err := h.Service.Update(r.Context(), chi.URLParam(r, "projectID"), in)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, p, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleListDeliverables(w http.ResponseWriter, r *http.Request) {
	deliverables, err := h.Service.ListDeliverables(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, deliverables, requestctx.GetRequestID(r.Context()))
}

type bulkDeliverablesRequest struct {
	Items []project.DeliverableInput `json:"items"`
}

func (h *Handler) handleBulkAddDeliverables(w http.ResponseWriter, r *http.Request) {
	var req bulkDeliverablesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	result := h.Service.BulkAddDeliverables(r.Context(), chi.URLParam(r, "projectID"), req.Items)
	api.Success(w, result, requestctx.GetRequestID(r.Context()))
}

type bulkIDsRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) handleBulkRemoveDeliverables(w http.ResponseWriter, r *http.Request) {
	var req bulkIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	result := h.Service.BulkRemoveDeliverables(r.Context(), chi.URLParam(r, "projectID"), req.IDs)
	api.Success(w, result, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Service.ListAssignments(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, assignments, requestctx.GetRequestID(r.Context()))
}

type bulkAssignRequest struct {
	Items []project.AssignmentInput `json:"items"`
}

func (h *Handler) handleBulkAssign(w http.ResponseWriter, r *http.Request) {
	var req bulkAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	result := h.Service.BulkAssign(r.Context(), chi.URLParam(r, "projectID"), req.Items)
	api.Success(w, result, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleBulkUnassign(w http.ResponseWriter, r *http.Request) {
	var req bulkIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	result := h.Service.BulkUnassign(r.Context(), chi.URLParam(r, "projectID"), req.IDs)
	api.Success(w, result, requestctx.GetRequestID(r.Context()))
}
