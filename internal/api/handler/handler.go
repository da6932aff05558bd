package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"complaint_desk/internal/api/middleware"
	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request payload", common.ErrValidation)
	}
	return nil
}

// respondError logs server-side failures before writing the client-safe body.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if common.HTTPStatusFromError(err) >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	common.RespondWithDomainError(w, err)
}

func identityFrom(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithDomainError(w, common.ErrMissingToken)
	}
	return identity, ok
}

func pagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if limit, err = queryInt(q.Get("limit")); err != nil {
		return 0, 0, fmt.Errorf("%w: limit must be a non-negative integer", common.ErrValidation)
	}
	if offset, err = queryInt(q.Get("offset")); err != nil {
		return 0, 0, fmt.Errorf("%w: offset must be a non-negative integer", common.ErrValidation)
	}
	return limit, offset, nil
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid integer %q", raw)
	}
	return n, nil
}

// clientIP is the caller address after chi's RealIP has rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
