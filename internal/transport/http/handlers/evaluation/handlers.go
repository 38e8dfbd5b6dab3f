package evaluationhandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/evaluation"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Service *evaluation.Service
}

func NewHandler(service *evaluation.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluations", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead)).Get("/mappings", h.handleListMappings)
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead)).Get("/{kind}/{evaluationID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite)).Put("/{kind}", h.handleUpsert)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite)).Post("/{kind}/submit", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermEvaluationsWrite)).Post("/{kind}/bulk-submit", h.handleBulkSubmit)
		r.With(middleware.RequirePermission(auth.PermRevisionsRespond)).Post("/{kind}/{evaluationID}/submit-with-revision", h.handleSubmitWithRevision)
	})
}

type upsertRequest struct {
	PeriodID    string   `json:"periodId"`
	EmployeeID  string   `json:"employeeId"`
	ProjectID   string   `json:"projectId,omitempty"`
	EvaluatorID string   `json:"evaluatorId,omitempty"`
	Content     string   `json:"content"`
	Score       *float64 `json:"score,omitempty"`
}

func (req upsertRequest) key(kind evaluation.Kind) evaluation.ContentKey {
	return evaluation.ContentKey{
		PeriodID:    req.PeriodID,
		EmployeeID:  req.EmployeeID,
		Kind:        kind,
		ProjectID:   req.ProjectID,
		EvaluatorID: req.EvaluatorID,
	}
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	kind := evaluation.Kind(chi.URLParam(r, "kind"))

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	contentID, err := h.Service.Upsert(r.Context(), req.key(kind), req.Content, req.Score, user.UserID)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"id": contentID}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	kind := evaluation.Kind(chi.URLParam(r, "kind"))

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.Submit(r.Context(), req.key(kind), user.UserID); err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "submitted"}, requestctx.GetRequestID(r.Context()))
}

type bulkSubmitRequest struct {
	Items []upsertRequest `json:"items"`
}

func (h *Handler) handleBulkSubmit(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	kind := evaluation.Kind(chi.URLParam(r, "kind"))

	var req bulkSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	keys := make([]evaluation.ContentKey, 0, len(req.Items))
	for _, item := range req.Items {
		keys = append(keys, item.key(kind))
	}
	result := h.Service.BulkSubmit(r.Context(), keys, user.UserID)
	api.Success(w, result, requestctx.GetRequestID(r.Context()))
}

type submitWithRevisionRequest struct {
	ResponseComment string `json:"responseComment"`
}

// handleSubmitWithRevision resubmits the evaluation and closes the caller's
// open revision entry in one transaction.
func (h *Handler) handleSubmitWithRevision(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record linked to this account", requestctx.GetRequestID(r.Context()))
		return
	}
	kind := evaluation.Kind(chi.URLParam(r, "kind"))

	var req submitWithRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}

	err := h.Service.SubmitAndCompleteRevision(r.Context(), kind, chi.URLParam(r, "evaluationID"), user.EmployeeID, req.ResponseComment, user.UserID)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "submitted"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	kind := evaluation.Kind(chi.URLParam(r, "kind"))
	content, err := h.Service.GetContent(r.Context(), kind, chi.URLParam(r, "evaluationID"))
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, content, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleListMappings(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("periodId")
	employeeID := r.URL.Query().Get("employeeId")
	if periodID == "" || employeeID == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "periodId and employeeId query parameters are required", requestctx.GetRequestID(r.Context()))
		return
	}
	mappings, err := h.Service.ListMappingsForEmployee(r.Context(), periodID, employeeID)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, mappings, requestctx.GetRequestID(r.Context()))
}
