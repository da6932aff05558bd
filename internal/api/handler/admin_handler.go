package handler

import (
	"log/slog"
	"net/http"

	"complaint_desk/internal/api/middleware"
	"complaint_desk/internal/app/service"
	"complaint_desk/internal/common"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	adminService     *service.AdminService
	complaintService *service.ComplaintService
	auth             *middleware.Auth
	logger           *slog.Logger
}

func NewAdminHandler(as *service.AdminService, cs *service.ComplaintService, auth *middleware.Auth, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{adminService: as, complaintService: cs, auth: auth, logger: logger}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Use(h.auth.AdminOnly)
	r.Get("/stats", h.stats)
	r.Get("/complaints", h.listComplaints)
	r.Put("/complaints/{complaintID}/status", h.transition)
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	resp, err := h.adminService.Stats(r.Context(), identity)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) listComplaints(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	req, err := listRequestFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	resp, err := h.complaintService.ListAll(r.Context(), identity, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) transition(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	var req service.TransitionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	complaint, err := h.complaintService.Transition(r.Context(), identity, chi.URLParam(r, "complaintID"), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, complaint)
}
