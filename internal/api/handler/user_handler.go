package handler

import (
	"log/slog"
	"net/http"

	"complaint_desk/internal/api/middleware"
	"complaint_desk/internal/app/service"
	"complaint_desk/internal/common"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
	auth        *middleware.Auth
	logger      *slog.Logger
}

func NewUserHandler(us *service.UserService, auth *middleware.Auth, logger *slog.Logger) *UserHandler {
	return &UserHandler{userService: us, auth: auth, logger: logger}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(h.auth.AdminOnly)
	r.Get("/", h.listUsers)
	r.Get("/{userID}", h.getUser)
	r.Put("/{userID}", h.updateUser)
	r.Delete("/{userID}", h.deleteUser)
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	resp, err := h.userService.List(r.Context(), identity, limit, offset)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	user, err := h.userService.Get(r.Context(), identity, chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	user, err := h.userService.Update(r.Context(), identity, chi.URLParam(r, "userID"), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	if err := h.userService.Delete(r.Context(), identity, chi.URLParam(r, "userID")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondNoContent(w)
}
