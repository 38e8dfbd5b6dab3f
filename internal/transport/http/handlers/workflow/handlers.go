package workflowhandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/evaluation"
	"appraisal/internal/domain/workflow"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Flow        *workflow.Service
	Evaluations *evaluation.Service
}

func NewHandler(flow *workflow.Service, evaluations *evaluation.Service) *Handler {
	return &Handler{Flow: flow, Evaluations: evaluations}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workflow", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEvaluationsRead)).Get("/steps", h.handleListSteps)
		r.With(middleware.RequirePermission(auth.PermEvaluationsApprove)).Post("/steps/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermEvaluationsApprove)).Post("/steps/request-revision", h.handleRequestRevision)
	})
	r.Route("/revisions", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEvaluationsApprove)).Get("/", h.handleListAll)
		r.With(middleware.RequirePermission(auth.PermRevisionsRespond)).Get("/inbox", h.handleInbox)
		r.With(middleware.RequirePermission(auth.PermRevisionsRespond)).Get("/unread-count", h.handleUnreadCount)
		r.With(middleware.RequirePermission(auth.PermRevisionsRespond)).Post("/{requestID}/read", h.handleMarkRead)
		r.With(middleware.RequirePermission(auth.PermRevisionsRespond)).Post("/{requestID}/complete", h.handleComplete)
		r.With(middleware.RequirePermission(auth.PermRevisionsRespond)).Post("/complete-by-key", h.handleCompleteByKey)
	})
}

type stepKeyPayload struct {
	PeriodID    string         `json:"periodId"`
	EmployeeID  string         `json:"employeeId"`
	Stage       workflow.Stage `json:"stage"`
	EvaluatorID string         `json:"evaluatorId,omitempty"`
}

func (p stepKeyPayload) key() workflow.StepKey {
	return workflow.StepKey{
		PeriodID:    p.PeriodID,
		EmployeeID:  p.EmployeeID,
		Stage:       p.Stage,
		EvaluatorID: p.EvaluatorID,
	}
}

func (h *Handler) handleListSteps(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("periodId")
	employeeID := r.URL.Query().Get("employeeId")
	if periodID == "" || employeeID == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "periodId and employeeId query parameters are required", requestctx.GetRequestID(r.Context()))
		return
	}
	steps, err := h.Flow.ListStepsForEmployee(r.Context(), periodID, employeeID)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, steps, requestctx.GetRequestID(r.Context()))
}

type approveRequest struct {
	stepKeyPayload
	Cascade         bool `json:"cascade"`
	ExpectedVersion int  `json:"expectedVersion"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	step, err := h.Evaluations.ApproveStage(r.Context(), req.key(), user.UserID, req.Cascade, req.ExpectedVersion)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, step, requestctx.GetRequestID(r.Context()))
}

type requestRevisionRequest struct {
	stepKeyPayload
	Comment         string `json:"comment"`
	ExpectedVersion int    `json:"expectedVersion"`
}

func (h *Handler) handleRequestRevision(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var req requestRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	step, err := h.Evaluations.RequestRevision(r.Context(), req.key(), req.Comment, user.UserID, req.ExpectedVersion)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, step, requestctx.GetRequestID(r.Context()))
}

func parseFilters(r *http.Request) workflow.RevisionFilters {
	return workflow.RevisionFilters{
		PeriodID:   r.URL.Query().Get("periodId"),
		EmployeeID: r.URL.Query().Get("employeeId"),
		Stage:      workflow.Stage(r.URL.Query().Get("stage")),
		OnlyOpen:   r.URL.Query().Get("onlyOpen") == "true",
	}
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Flow.ListAll(r.Context(), parseFilters(r))
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, requests, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleInbox(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record linked to this account", requestctx.GetRequestID(r.Context()))
		return
	}
	items, err := h.Flow.ListForRecipient(r.Context(), user.EmployeeID, parseFilters(r))
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, items, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record linked to this account", requestctx.GetRequestID(r.Context()))
		return
	}
	count, err := h.Flow.UnreadCount(r.Context(), user.EmployeeID)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]int{"unread": count}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record linked to this account", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Flow.MarkRead(r.Context(), chi.URLParam(r, "requestID"), user.EmployeeID); err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "read"}, requestctx.GetRequestID(r.Context()))
}

type completeRequest struct {
	ResponseComment string `json:"responseComment"`
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record linked to this account", requestctx.GetRequestID(r.Context()))
		return
	}
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Flow.Complete(r.Context(), chi.URLParam(r, "requestID"), user.EmployeeID, req.ResponseComment, user.UserID); err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "completed"}, requestctx.GetRequestID(r.Context()))
}

type completeByKeyRequest struct {
	PeriodID        string         `json:"periodId"`
	EmployeeID      string         `json:"employeeId"`
	Stage           workflow.Stage `json:"stage"`
	ResponseComment string         `json:"responseComment"`
}

// handleCompleteByKey completes the caller's open revision addressed by step
// key rather than request id, for clients that track gates, not requests.
func (h *Handler) handleCompleteByKey(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record linked to this account", requestctx.GetRequestID(r.Context()))
		return
	}
	var req completeByKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Flow.CompleteByEvaluatorKey(r.Context(), req.PeriodID, req.EmployeeID, user.EmployeeID, req.Stage, req.ResponseComment, user.UserID); err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "completed"}, requestctx.GetRequestID(r.Context()))
}
