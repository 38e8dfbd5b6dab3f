package periodhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/period"
	"appraisal/internal/platform/jobs"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Service *period.Service
	Jobs    *jobs.Service
}

func NewHandler(service *period.Service, jobsService *jobs.Service) *Handler {
	return &Handler{Service: service, Jobs: jobsService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/periods", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPeriodsRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermPeriodsRead)).Get("/{periodID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermPeriodsWrite)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermPeriodsWrite)).Put("/{periodID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermPeriodsAdvance)).Post("/{periodID}/advance", h.handleAdvance)
		r.With(middleware.RequirePermission(auth.PermPeriodsAdvance)).Post("/sweep", h.handleSweep)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Service.List(r.Context())
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, periods, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, p, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var in period.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	p, err := h.Service.Create(r.Context(), in, user.UserID)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Created(w, p, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var in period.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	p, err := h.Service.Update(r.Context(), chi.URLParam(r, "periodID"), in, user.UserID)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, p, requestctx.GetRequestID(r.Context()))
}

type advanceRequest struct {
	Target period.Phase `json:"target"`
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	p, err := h.Service.Advance(r.Context(), chi.URLParam(r, "periodID"), req.Target, user.UserID)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, p, requestctx.GetRequestID(r.Context()))
}

// handleSweep runs the deadline sweep on demand instead of waiting for the
// next scheduled tick.
func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	details, err := h.Jobs.RunNow(r.Context(), jobs.JobPhaseSweep, func(ctx context.Context) (any, error) {
		advanced, err := h.Service.AdvanceDuePhases(ctx, time.Now())
		return map[string]any{"advanced": advanced}, err
	})
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, details, requestctx.GetRequestID(r.Context()))
}
