package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/7rockstarmade/LogicModule/internal/app/service"
	"github.com/7rockstarmade/LogicModule/internal/common"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(us *service.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listUsers)                          // GET /api/v1/users
	r.Get("/me", h.me)                               // GET /api/v1/users/me
	r.Post("/register", h.register)                  // POST /api/v1/users/register
	r.Get("/{userID}", h.getBasicInfo)               // GET /api/v1/users/{id}
	r.Get("/{userID}/data", h.getData)               // GET /api/v1/users/{id}/data
	r.Patch("/{userID}/full-name", h.updateFullName) // PATCH /api/v1/users/{id}/full-name
	r.Get("/{userID}/roles", h.getRoles)
	r.Put("/{userID}/roles", h.setRoles)
	r.Get("/{userID}/block", h.getBlocked)
	r.Post("/{userID}/block", h.setBlocked)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, h.userService.Me(user))
}

func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	created, err := h.userService.Register(r.Context(), user)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	users, err := h.userService.List(r.Context(), user)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) getBasicInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	info, err := h.userService.GetBasicInfo(r.Context(), user, chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, info)
}

func (h *UserHandler) getData(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	data, err := h.userService.GetData(r.Context(), user, chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, data)
}

func (h *UserHandler) updateFullName(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.UpdateFullNameRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	info, err := h.userService.UpdateFullName(r.Context(), user, chi.URLParam(r, "userID"), req.FullName)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, info)
}

func (h *UserHandler) getRoles(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	roles, err := h.userService.GetRoles(r.Context(), user, chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, roles)
}

func (h *UserHandler) setRoles(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.SetRolesRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	roles, err := h.userService.SetRoles(r.Context(), user, chi.URLParam(r, "userID"), req.Roles)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, roles)
}

func (h *UserHandler) getBlocked(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	blocked, err := h.userService.GetBlocked(r.Context(), user, chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, blocked)
}

func (h *UserHandler) setBlocked(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req service.SetBlockedRequest
	if err := common.DecodeAndValidate(r, &req); err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	blocked, err := h.userService.SetBlocked(r.Context(), user, chi.URLParam(r, "userID"), *req.Blocked)
	if err != nil {
		common.RespondWithAppError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, blocked)
}
