package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"kyc-service/internal/cache"
	"kyc-service/internal/domain"
	"kyc-service/internal/provider/aadhaarapi"
	"kyc-service/pkg/id"
	"kyc-service/pkg/xerrors"
)

const (
	sessionNamespace = "kyc_otp"
	rateOpAadhaarOTP = "aadhaar_otp"
)

// Verifier is the provider surface the workflow needs; satisfied by
// *aadhaarapi.Client.
type Verifier interface {
	GenerateAadhaarOTP(ctx context.Context, aadhaarNumber string) (*aadhaarapi.OTPChallenge, error)
	SubmitAadhaarOTP(ctx context.Context, ch *aadhaarapi.OTPChallenge, otp string) (*domain.AadhaarAttributes, error)
	VerifyBankAccount(ctx context.Context, accountNumber, ifsc, panNumber string) (*domain.BankLinkageResult, error)
	LookupPAN(ctx context.Context, panNumber string) (*aadhaarapi.PANRecord, error)
}

// SessionStore holds in-flight correlation state; satisfied by *cache.Cache.
type SessionStore interface {
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, namespace, key string) (string, error)
	Delete(ctx context.Context, namespace, key string) error
}

// IdentityStore is the persistent record surface; satisfied by
// *repository.IdentityRepo.
type IdentityStore interface {
	GetByUserID(ctx context.Context, userID string) (*domain.IdentityRecord, error)
	UpsertAadhaar(ctx context.Context, userID string, attrs *domain.AadhaarAttributes) error
	SetPAN(ctx context.Context, userID, panNumber string) error
	SetBankLinkage(ctx context.Context, userID, accountNumber, ifsc string, linked bool) error
	InsertAuditLog(ctx context.Context, log *domain.KYCAuditLog) error
	GetAuditLogs(ctx context.Context, userID string) ([]domain.KYCAuditLog, error)
}

// CooldownLimiter guards challenge issuance; satisfied by *rate.Limiter.
type CooldownLimiter interface {
	TryAcquire(ctx context.Context, operation, userID string) error
}

// KYCService orchestrates the verification workflow: Aadhaar OTP
// challenge/submit/resend, single-shot PAN lookup, and the bank linkage
// check that concludes the record. Cross-request state lives only in the
// session store and the identity store; the service itself is stateless.
type KYCService struct {
	repo       IdentityStore
	sessions   SessionStore
	limiter    CooldownLimiter
	verifier   Verifier
	sf         *id.Snowflake
	logger     *zap.Logger
	sessionTTL time.Duration
}

func NewKYCService(
	repo IdentityStore,
	sessions SessionStore,
	limiter CooldownLimiter,
	verifier Verifier,
	sf *id.Snowflake,
	logger *zap.Logger,
	sessionTTL time.Duration,
) *KYCService {
	return &KYCService{
		repo:       repo,
		sessions:   sessions,
		limiter:    limiter,
		verifier:   verifier,
		sf:         sf,
		logger:     logger,
		sessionTTL: sessionTTL,
	}
}

// InitiateAadhaarOTP asks the provider to dispatch an OTP and stores the
// correlation session. A fresh challenge overwrites any live one for the
// same user; issuance is denied while the cooldown marker is up.
func (s *KYCService) InitiateAadhaarOTP(ctx context.Context, userID, aadhaarNumber string) (*domain.ChallengeRef, error) {
	if err := validateAadhaarNumber(aadhaarNumber); err != nil {
		return nil, err
	}

	if err := s.limiter.TryAcquire(ctx, rateOpAadhaarOTP, userID); err != nil {
		return nil, err
	}

	ch, err := s.verifier.GenerateAadhaarOTP(ctx, aadhaarNumber)
	if err != nil {
		return nil, err
	}

	if err := s.storeSession(ctx, userID, ch, aadhaarNumber); err != nil {
		return nil, err
	}
	s.logger.Info("aadhaar otp issued",
		zap.String("user_id", userID),
		zap.String("transaction_id", ch.TransactionID),
		zap.Duration("session_ttl", s.sessionTTL))

	s.audit(ctx, userID, "aadhaar_otp_issued", "OTP dispatched to registered mobile")

	return &domain.ChallengeRef{
		CorrelationRef: ch.TransactionID,
		Message:        "OTP sent to the Aadhaar-registered mobile number",
	}, nil
}

// SubmitAadhaarOTP confirms the code against the live session. An
// incorrect code keeps the session so the caller may retry within the
// TTL; a vendor-expired transaction clears it.
func (s *KYCService) SubmitAadhaarOTP(ctx context.Context, userID, otp string) (*domain.AadhaarAttributes, error) {
	if otp == "" {
		return nil, xerrors.ErrInvalidRequest
	}

	sess, err := s.loadSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	ch := &aadhaarapi.OTPChallenge{
		TransactionID: sess.TransactionID,
		Fwdp:          sess.Fwdp,
		CodeVerifier:  sess.CodeVerifier,
	}

	attrs, err := s.verifier.SubmitAadhaarOTP(ctx, ch, otp)
	if err != nil {
		if errors.Is(err, xerrors.ErrSessionExpired) {
			// Vendor no longer recognizes the transaction; the cached
			// session is stale. Caller must re-issue.
			s.clearSession(ctx, userID)
		}
		return nil, err
	}

	// The record mutation is the source of truth; a failure here is a hard
	// error even though the vendor call succeeded.
	if err := s.repo.UpsertAadhaar(ctx, userID, attrs); err != nil {
		s.logger.Error("identity record upsert failed",
			zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.clearSession(ctx, userID)
	s.audit(ctx, userID, "aadhaar_verified", "Aadhaar OTP confirmed, attributes stored")

	s.logger.Info("aadhaar verified",
		zap.String("user_id", userID),
		zap.String("masked_number", attrs.MaskedNumber))

	return attrs, nil
}

// ResendAadhaarOTP re-dispatches the OTP for a live session, replacing the
// stored correlation identifiers with the fresh ones. Without a live
// session the caller must start over with InitiateAadhaarOTP.
func (s *KYCService) ResendAadhaarOTP(ctx context.Context, userID, aadhaarNumber string) (*domain.ChallengeRef, error) {
	sess, err := s.loadSession(ctx, userID)
	if err != nil {
		return nil, xerrors.ErrNoActiveSession
	}

	if aadhaarNumber == "" {
		aadhaarNumber = sess.AadhaarNumber
	}
	if err := validateAadhaarNumber(aadhaarNumber); err != nil {
		return nil, err
	}

	if err := s.limiter.TryAcquire(ctx, rateOpAadhaarOTP, userID); err != nil {
		return nil, err
	}

	ch, err := s.verifier.GenerateAadhaarOTP(ctx, aadhaarNumber)
	if err != nil {
		return nil, err
	}

	if err := s.storeSession(ctx, userID, ch, aadhaarNumber); err != nil {
		return nil, err
	}

	s.audit(ctx, userID, "aadhaar_otp_resent", "OTP re-dispatched")
	s.logger.Info("aadhaar otp resent",
		zap.String("user_id", userID),
		zap.String("transaction_id", ch.TransactionID))

	return &domain.ChallengeRef{CorrelationRef: ch.TransactionID}, nil
}

// VerifyPAN runs the single-shot PAN registry lookup and stores the number
// on the record. The record must already exist from the Aadhaar step.
func (s *KYCService) VerifyPAN(ctx context.Context, userID, panNumber string) (*aadhaarapi.PANRecord, error) {
	if err := validatePANNumber(panNumber); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUserID(ctx, userID); err != nil {
		return nil, err
	}

	rec, err := s.verifier.LookupPAN(ctx, panNumber)
	if err != nil {
		return nil, err
	}
	if !rec.Registered {
		return nil, &xerrors.VendorRejectedError{Reason: "PAN not found in registry"}
	}

	if err := s.repo.SetPAN(ctx, userID, panNumber); err != nil {
		return nil, err
	}

	s.audit(ctx, userID, "pan_verified", "PAN confirmed against registry")
	s.logger.Info("pan verified", zap.String("user_id", userID))

	return rec, nil
}

// CheckBankLinkage runs the account-to-PAN linkage check and concludes the
// record: verified when linked, rejected otherwise. Requires a verified
// PAN on file. Once a record is verified, repeat calls are no-ops.
func (s *KYCService) CheckBankLinkage(ctx context.Context, userID, accountNumber, ifsc string) (*domain.BankLinkageResult, error) {
	if accountNumber == "" || !validIFSC(ifsc) {
		return nil, xerrors.ErrInvalidRequest
	}

	record, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, xerrors.ErrPANRequired
		}
		return nil, err
	}
	if record.PANNumber == nil {
		return nil, xerrors.ErrPANRequired
	}

	if record.Verified() {
		// Status is monotonic; a concluded record is never re-opened.
		res := &domain.BankLinkageResult{Linked: true, Confidence: 1}
		if record.FullName != nil {
			res.RegisteredName = *record.FullName
		}
		return res, nil
	}

	res, err := s.verifier.VerifyBankAccount(ctx, accountNumber, ifsc, *record.PANNumber)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetBankLinkage(ctx, userID, accountNumber, ifsc, res.Linked); err != nil {
		return nil, err
	}

	if res.Linked {
		s.audit(ctx, userID, "bank_linkage_confirmed", "account linked, record verified")
	} else {
		s.audit(ctx, userID, "bank_linkage_rejected", "vendor reported no linkage")
	}
	s.logger.Info("bank linkage checked",
		zap.String("user_id", userID),
		zap.Bool("linked", res.Linked),
		zap.Float64("confidence", res.Confidence))

	return res, nil
}

// Status returns the current record snapshot for a user.
func (s *KYCService) Status(ctx context.Context, userID string) (*domain.IdentityRecordResponse, error) {
	record, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.IdentityRecordResponse{
		UserID:           record.UserID,
		AadhaarNumber:    record.AadhaarNumber,
		PANNumber:        record.PANNumber,
		FullName:         record.FullName,
		DateOfBirth:      record.DateOfBirth,
		Address:          record.Address,
		Status:           record.Status,
		LinkageConfirmed: record.LinkageConfirmed,
	}, nil
}

// AuditLogs retrieves the workflow audit trail for a user.
func (s *KYCService) AuditLogs(ctx context.Context, userID string) ([]domain.KYCAuditLog, error) {
	return s.repo.GetAuditLogs(ctx, userID)
}

func (s *KYCService) storeSession(ctx context.Context, userID string, ch *aadhaarapi.OTPChallenge, aadhaarNumber string) error {
	sess := domain.AadhaarSession{
		TransactionID: ch.TransactionID,
		Fwdp:          ch.Fwdp,
		CodeVerifier:  ch.CodeVerifier,
		AadhaarNumber: aadhaarNumber,
		IssuedAt:      time.Now(),
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.sessions.Set(ctx, sessionNamespace, userID, string(raw), s.sessionTTL)
}

// loadSession fails closed: an unreachable cache is indistinguishable from
// an expired session, so both surface as ErrSessionExpired.
func (s *KYCService) loadSession(ctx context.Context, userID string) (*domain.AadhaarSession, error) {
	raw, err := s.sessions.Get(ctx, sessionNamespace, userID)
	if err != nil {
		if !errors.Is(err, cache.Nil) {
			s.logger.Warn("session store unreachable, treating as expired",
				zap.String("user_id", userID), zap.Error(err))
		}
		return nil, xerrors.ErrSessionExpired
	}

	var sess domain.AadhaarSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.logger.Warn("corrupt session payload, treating as expired",
			zap.String("user_id", userID), zap.Error(err))
		return nil, xerrors.ErrSessionExpired
	}
	return &sess, nil
}

// clearSession is best-effort: the record is the source of truth and a
// leftover entry dies with its TTL anyway.
func (s *KYCService) clearSession(ctx context.Context, userID string) {
	if err := s.sessions.Delete(ctx, sessionNamespace, userID); err != nil {
		s.logger.Warn("failed to clear verification session",
			zap.String("user_id", userID), zap.Error(err))
	}
}

// audit is best-effort; a failed audit insert never fails the operation.
func (s *KYCService) audit(ctx context.Context, userID, action, notes string) {
	log := &domain.KYCAuditLog{
		ID:     s.sf.Generate(),
		UserID: userID,
		Action: action,
		Actor:  "system",
		Notes:  notes,
	}
	if err := s.repo.InsertAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to insert audit log",
			zap.String("user_id", userID),
			zap.String("action", action),
			zap.Error(err))
	}
}
