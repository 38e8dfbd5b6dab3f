package orghandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/org"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Service *org.Service
}

func NewHandler(service *org.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Put("/{employeeID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Delete("/{employeeID}", h.handleDeactivate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 100, 500)
	filters := org.ListFilters{
		Department: r.URL.Query().Get("department"),
		Status:     r.URL.Query().Get("status"),
		ManagerID:  r.URL.Query().Get("managerId"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	employees, err := h.Service.List(r.Context(), filters)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employees, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Service.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employee, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in org.EmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	employee, err := h.Service.Create(r.Context(), in)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Created(w, employee, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var in org.EmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return
	}
	employee, err := h.Service.Update(r.Context(), chi.URLParam(r, "employeeID"), in)
	if err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employee, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Deactivate(r.Context(), chi.URLParam(r, "employeeID")); err != nil {
		shared.FailDomain(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "deactivated"}, requestctx.GetRequestID(r.Context()))
}
