package handler

import (
	"log/slog"
	"net/http"

	"complaint_desk/internal/api/middleware"
	"complaint_desk/internal/app/service"
	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ComplaintHandler struct {
	complaintService *service.ComplaintService
	auth             *middleware.Auth
	logger           *slog.Logger
}

func NewComplaintHandler(cs *service.ComplaintService, auth *middleware.Auth, logger *slog.Logger) *ComplaintHandler {
	return &ComplaintHandler{complaintService: cs, auth: auth, logger: logger}
}

// RegisterRoutes mounts /api/complaints. Ownership is enforced in the service.
func (h *ComplaintHandler) RegisterRoutes(r chi.Router) {
	r.Use(h.auth.Authenticator)
	r.Get("/", h.listComplaints)
	r.Post("/", h.createComplaint)
	r.Get("/{complaintID}", h.getComplaint)
	r.Put("/{complaintID}", h.updateComplaint)
	r.Delete("/{complaintID}", h.deleteComplaint)
}

func listRequestFrom(r *http.Request) (service.ListComplaintsRequest, error) {
	limit, offset, err := pagination(r)
	if err != nil {
		return service.ListComplaintsRequest{}, err
	}
	q := r.URL.Query()
	return service.ListComplaintsRequest{
		Status:   model.ComplaintStatus(q.Get("status")),
		Category: q.Get("category"),
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func (h *ComplaintHandler) listComplaints(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	req, err := listRequestFrom(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	resp, err := h.complaintService.List(r.Context(), identity, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *ComplaintHandler) createComplaint(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	var req service.CreateComplaintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	complaint, err := h.complaintService.Create(r.Context(), identity, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, complaint)
}

func (h *ComplaintHandler) getComplaint(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	complaint, err := h.complaintService.Get(r.Context(), identity, chi.URLParam(r, "complaintID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, complaint)
}

func (h *ComplaintHandler) updateComplaint(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	var req service.UpdateComplaintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	complaint, err := h.complaintService.Update(r.Context(), identity, chi.URLParam(r, "complaintID"), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, complaint)
}

func (h *ComplaintHandler) deleteComplaint(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	if err := h.complaintService.Delete(r.Context(), identity, chi.URLParam(r, "complaintID")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondNoContent(w)
}
