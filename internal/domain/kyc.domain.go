package domain

import "time"

// KYCStatus represents possible states of an identity record.
type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "pending"
	KYCStatusVerified KYCStatus = "verified"
	KYCStatusRejected KYCStatus = "rejected"
)

// IdentityRecord is the per-user verification aggregate. It is created
// lazily on the first successful Aadhaar verification and mutated in place
// afterwards; this service never deletes it.
type IdentityRecord struct {
	UserID            string    `json:"user_id"`
	AadhaarNumber     *string   `json:"aadhaar_number,omitempty"` // stored masked, last 4 digits only
	PANNumber         *string   `json:"pan_number,omitempty"`
	BankAccountNumber *string   `json:"bank_account_number,omitempty"`
	BankIFSC          *string   `json:"bank_ifsc,omitempty"`
	FullName          *string   `json:"full_name,omitempty"`
	DateOfBirth       *string   `json:"date_of_birth,omitempty"`
	Gender            *string   `json:"gender,omitempty"`
	Address           *string   `json:"address,omitempty"`
	Status            KYCStatus `json:"status"`
	LinkageConfirmed  bool      `json:"linkage_confirmed"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"-"`
}

// Verified reports whether the record satisfies the full verification
// invariant: PAN on file and vendor-confirmed bank linkage.
func (r *IdentityRecord) Verified() bool {
	return r.Status == KYCStatusVerified && r.PANNumber != nil && r.LinkageConfirmed
}

// AadhaarSession is the transient correlation state for an in-flight OTP
// challenge. It lives in the cache only, keyed by user ID, and carries the
// vendor identifiers needed to submit or resend the same transaction.
type AadhaarSession struct {
	TransactionID string    `json:"transaction_id"`
	Fwdp          string    `json:"fwdp"`
	CodeVerifier  string    `json:"code_verifier"`
	AadhaarNumber string    `json:"aadhaar_number"`
	IssuedAt      time.Time `json:"issued_at"`
}

// AadhaarAttributes are the normalized identity attributes the vendor
// returns on a successful OTP submission.
type AadhaarAttributes struct {
	FullName     string `json:"full_name"`
	DateOfBirth  string `json:"date_of_birth"`
	Gender       string `json:"gender"`
	Address      string `json:"address"`
	MaskedNumber string `json:"masked_number"`
}

// BankLinkageResult is the outcome of a bank-account-to-PAN linkage check.
type BankLinkageResult struct {
	Linked         bool    `json:"linked"`
	Confidence     float64 `json:"confidence"`
	RegisteredName string  `json:"registered_name,omitempty"`
}

// ChallengeRef is returned to callers after a challenge is issued or
// resent; the correlation ref identifies the vendor transaction.
type ChallengeRef struct {
	CorrelationRef string `json:"correlation_ref"`
	Message        string `json:"message,omitempty"`
}

// KYCAuditLog captures state-changing workflow actions.
type KYCAuditLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IdentityRecordResponse is the API shape for status reads (UpdatedAt and
// raw bank details excluded).
type IdentityRecordResponse struct {
	UserID           string    `json:"user_id"`
	AadhaarNumber    *string   `json:"aadhaar_number,omitempty"`
	PANNumber        *string   `json:"pan_number,omitempty"`
	FullName         *string   `json:"full_name,omitempty"`
	DateOfBirth      *string   `json:"date_of_birth,omitempty"`
	Address          *string   `json:"address,omitempty"`
	Status           KYCStatus `json:"status"`
	LinkageConfirmed bool      `json:"linkage_confirmed"`
}
