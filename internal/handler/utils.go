package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kyc-service/pkg/response"
	"kyc-service/pkg/xerrors"
)

// userIDHeader is set by the API gateway after authentication.
const userIDHeader = "X-User-ID"

func (h *KYCHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		h.logger.Warn("request without user identity", zap.String("path", r.URL.Path))
		response.Error(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

// RequestLogger tags every request with a correlation id and logs its
// completion. The id is echoed back so callers can quote it in support
// requests.
func (h *KYCHandler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", rid)

		next.ServeHTTP(w, r)

		h.logger.Debug("request handled",
			zap.String("request_id", rid),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
	})
}

// writeServiceError maps the workflow error taxonomy onto stable HTTP
// statuses. Vendor payloads are never relayed except the rejection reason.
func (h *KYCHandler) writeServiceError(w http.ResponseWriter, userID, op string, err error) {
	var rejected *xerrors.VendorRejectedError

	switch {
	case errors.Is(err, xerrors.ErrInvalidRequest):
		response.Error(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, xerrors.ErrTooSoon):
		response.Error(w, http.StatusTooManyRequests, err.Error())

	case errors.Is(err, xerrors.ErrSessionExpired):
		response.Error(w, http.StatusGone, xerrors.ErrSessionExpired.Error())

	case errors.Is(err, xerrors.ErrInvalidOTP):
		response.Error(w, http.StatusUnauthorized, xerrors.ErrInvalidOTP.Error())

	case errors.Is(err, xerrors.ErrNoActiveSession):
		response.Error(w, http.StatusNotFound, xerrors.ErrNoActiveSession.Error())

	case errors.Is(err, xerrors.ErrPANRequired):
		response.Error(w, http.StatusPreconditionFailed, xerrors.ErrPANRequired.Error())

	case errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, "no identity record found")

	case errors.As(err, &rejected):
		response.Error(w, http.StatusUnprocessableEntity, rejected.Error())

	case errors.Is(err, xerrors.ErrVendorUnavailable):
		h.logger.Error("verification provider unavailable",
			zap.String("user_id", userID), zap.String("op", op), zap.Error(err))
		response.Error(w, http.StatusBadGateway, xerrors.ErrVendorUnavailable.Error())

	default:
		h.logger.Error("kyc operation failed",
			zap.String("user_id", userID), zap.String("op", op), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
