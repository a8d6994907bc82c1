package xerrors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
)

// Verification workflow
var (
	ErrVendorUnavailable = errors.New("verification provider unavailable")
	ErrSessionExpired    = errors.New("verification session expired; request a new OTP")
	ErrInvalidOTP        = errors.New("invalid otp")
	ErrNoActiveSession   = errors.New("no active verification session")
	ErrTooSoon           = errors.New("please wait before requesting another OTP")
	ErrPANRequired       = errors.New("PAN must be verified before bank verification")
)

// VendorRejectedError is a vendor-internal business rejection. Reason is the
// only piece of the vendor payload that is relayed to callers verbatim.
type VendorRejectedError struct {
	Reason string
}

func (e *VendorRejectedError) Error() string {
	return fmt.Sprintf("verification provider rejected request: %s", e.Reason)
}

// RateLimitedError wraps ErrTooSoon with the remaining cooldown.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting another OTP", e.RetryAfterSeconds)
}

func (e *RateLimitedError) Unwrap() error { return ErrTooSoon }

func ParsePGErrorCode(err error) string {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}
