package handler

import (
	"log/slog"
	"net/http"

	"complaint_desk/internal/api/middleware"
	"complaint_desk/internal/app/service"
	"complaint_desk/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	auth        *middleware.Auth
	logger      *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, auth *middleware.Auth, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, auth: auth, logger: logger}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register) // POST /api/auth/register
	r.Post("/login", h.login)       // POST /api/auth/login
	r.With(h.auth.Authenticator).Get("/me", h.me)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	req.ClientIP = clientIP(r)
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(w, r)
	if !ok {
		return
	}
	user, err := h.authService.Me(r.Context(), identity)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
