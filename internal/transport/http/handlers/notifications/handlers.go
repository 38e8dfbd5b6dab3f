package notificationshandler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/domain/notifications"
	"appraisal/internal/requestctx"
	"appraisal/internal/transport/http/api"
	"appraisal/internal/transport/http/middleware"
	"appraisal/internal/transport/http/shared"
)

type Handler struct {
	Service *notifications.Service
}

func NewHandler(service *notifications.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermNotificationsRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermNotificationsRead)).Get("/unread-count", h.handleUnreadCount)
		r.With(middleware.RequirePermission(auth.PermNotificationsRead)).Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record linked to this account", requestctx.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	unread, err := h.Service.CountUnread(r.Context(), user.EmployeeID)
	if err != nil {
		slog.Warn("notification count failed", "err", err)
	}

	items, err := h.Service.List(r.Context(), user.EmployeeID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", requestctx.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("X-Unread-Count", strconv.Itoa(unread))
	api.Success(w, items, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record linked to this account", requestctx.GetRequestID(r.Context()))
		return
	}
	unread, err := h.Service.CountUnread(r.Context(), user.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_count_failed", "failed to count notifications", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]int{"unread": unread}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "no employee record linked to this account", requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.MarkRead(r.Context(), user.EmployeeID, chi.URLParam(r, "notificationID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_update_failed", "failed to update notification", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "read"}, requestctx.GetRequestID(r.Context()))
}
