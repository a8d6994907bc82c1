package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"kyc-service/internal/domain"
	"kyc-service/internal/provider/aadhaarapi"
	"kyc-service/pkg/response"
	"kyc-service/pkg/xerrors"
)

// Workflow is the service surface the HTTP layer needs; satisfied by
// *service.KYCService.
type Workflow interface {
	InitiateAadhaarOTP(ctx context.Context, userID, aadhaarNumber string) (*domain.ChallengeRef, error)
	SubmitAadhaarOTP(ctx context.Context, userID, otp string) (*domain.AadhaarAttributes, error)
	ResendAadhaarOTP(ctx context.Context, userID, aadhaarNumber string) (*domain.ChallengeRef, error)
	VerifyPAN(ctx context.Context, userID, panNumber string) (*aadhaarapi.PANRecord, error)
	CheckBankLinkage(ctx context.Context, userID, accountNumber, ifsc string) (*domain.BankLinkageResult, error)
	Status(ctx context.Context, userID string) (*domain.IdentityRecordResponse, error)
	AuditLogs(ctx context.Context, userID string) ([]domain.KYCAuditLog, error)
}

type KYCHandler struct {
	service Workflow
	logger  *zap.Logger
}

func NewKYCHandler(s Workflow, logger *zap.Logger) *KYCHandler {
	return &KYCHandler{service: s, logger: logger}
}

type aadhaarOTPRequest struct {
	AadhaarNumber string `json:"aadhaar_number"`
}

type aadhaarVerifyRequest struct {
	OTP string `json:"otp"`
}

type panVerifyRequest struct {
	PANNumber string `json:"pan_number"`
}

type bankVerifyRequest struct {
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
}

// InitiateAadhaarOTP handles POST /api/v1/kyc/aadhaar/otp.
func (h *KYCHandler) InitiateAadhaarOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req aadhaarOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AadhaarNumber == "" {
		response.Error(w, http.StatusBadRequest, "aadhaar_number is required")
		return
	}

	ref, err := h.service.InitiateAadhaarOTP(r.Context(), userID, req.AadhaarNumber)
	if err != nil {
		h.writeServiceError(w, userID, "initiate aadhaar otp", err)
		return
	}

	response.JSON(w, http.StatusOK, ref)
}

// VerifyAadhaarOTP handles POST /api/v1/kyc/aadhaar/verify.
func (h *KYCHandler) VerifyAadhaarOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req aadhaarVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OTP == "" {
		response.Error(w, http.StatusBadRequest, "otp is required")
		return
	}

	attrs, err := h.service.SubmitAadhaarOTP(r.Context(), userID, req.OTP)
	if err != nil {
		h.writeServiceError(w, userID, "verify aadhaar otp", err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"attributes":     attrs,
		"record_updated": true,
	})
}

// ResendAadhaarOTP handles POST /api/v1/kyc/aadhaar/resend.
func (h *KYCHandler) ResendAadhaarOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	// aadhaar_number is optional; the live session already carries it.
	var req aadhaarOTPRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	ref, err := h.service.ResendAadhaarOTP(r.Context(), userID, req.AadhaarNumber)
	if err != nil {
		h.writeServiceError(w, userID, "resend aadhaar otp", err)
		return
	}

	response.JSON(w, http.StatusOK, ref)
}

// VerifyPAN handles POST /api/v1/kyc/pan/verify.
func (h *KYCHandler) VerifyPAN(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req panVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PANNumber == "" {
		response.Error(w, http.StatusBadRequest, "pan_number is required")
		return
	}

	rec, err := h.service.VerifyPAN(r.Context(), userID, req.PANNumber)
	if err != nil {
		h.writeServiceError(w, userID, "verify pan", err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"pan_verified":    true,
		"registered_name": rec.FullName,
	})
}

// VerifyBank handles POST /api/v1/kyc/bank/verify.
func (h *KYCHandler) VerifyBank(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req bankVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountNumber == "" || req.IFSC == "" {
		response.Error(w, http.StatusBadRequest, "account_number and ifsc are required")
		return
	}

	res, err := h.service.CheckBankLinkage(r.Context(), userID, req.AccountNumber, req.IFSC)
	if err != nil {
		h.writeServiceError(w, userID, "verify bank linkage", err)
		return
	}

	response.JSON(w, http.StatusOK, res)
}

// GetKYCStatus handles GET /api/v1/kyc/status.
func (h *KYCHandler) GetKYCStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	record, err := h.service.Status(r.Context(), userID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.JSON(w, http.StatusOK, map[string]interface{}{
				"submitted":  false,
				"kyc_status": "not_submitted",
				"message":    "User has not started identity verification yet",
			})
			return
		}
		h.writeServiceError(w, userID, "get kyc status", err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"submitted": true,
		"record":    record,
	})
}

// GetKYCAuditLogs handles GET /api/v1/kyc/audit.
func (h *KYCHandler) GetKYCAuditLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	logs, err := h.service.AuditLogs(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, userID, "get audit logs", err)
		return
	}

	response.JSON(w, http.StatusOK, logs)
}
