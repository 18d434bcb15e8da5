package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/7rockstarmade/LogicModule/internal/app/service"
	"github.com/7rockstarmade/LogicModule/internal/common"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(ns *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listMine)
	r.Delete("/", h.clearMine)
}

func (h *NotificationHandler) listMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	notifications, err := h.notificationService.ListMine(r.Context(), user)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) clearMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	deleted, err := h.notificationService.ClearMine(r.Context(), user)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
