package aadhaarapi

import (
	"context"

	"kyc-service/internal/domain"
	"kyc-service/pkg/xerrors"
)

// OTPChallenge carries the correlation identifiers the provider issues
// when an Aadhaar OTP is dispatched. All three are needed to verify or
// resend the same transaction.
type OTPChallenge struct {
	TransactionID string
	Fwdp          string
	CodeVerifier  string
}

// Vendor error codes for the OTP verify endpoint.
const (
	codeInvalidOTP         = "INVALID_OTP"
	codeOTPExpired         = "OTP_EXPIRED"
	codeTransactionExpired = "TRANSACTION_EXPIRED"
)

// GenerateAadhaarOTP asks the provider to send an OTP to the Aadhaar
// holder's registered mobile number. The provider delivers the code; this
// service never sees it.
func (c *Client) GenerateAadhaarOTP(ctx context.Context, aadhaarNumber string) (*OTPChallenge, error) {
	payload := map[string]interface{}{
		"aadhaar_number": aadhaarNumber,
		"consent":        "Y",
		"reason":         "KYC verification",
	}

	var res struct {
		vendorEnvelope
		TransactionID string `json:"transaction_id"`
		Fwdp          string `json:"fwdp"`
		CodeVerifier  string `json:"code_verifier"`
	}
	if err := c.postJSON(ctx, "aadhaar_generate_otp", "/aadhaar/otp", payload, &res); err != nil {
		return nil, err
	}

	if !res.ok() {
		return nil, &xerrors.VendorRejectedError{Reason: res.Message}
	}

	return &OTPChallenge{
		TransactionID: res.TransactionID,
		Fwdp:          res.Fwdp,
		CodeVerifier:  res.CodeVerifier,
	}, nil
}

// SubmitAadhaarOTP confirms the OTP against an earlier challenge and
// returns the holder's normalized identity attributes.
func (c *Client) SubmitAadhaarOTP(ctx context.Context, ch *OTPChallenge, otp string) (*domain.AadhaarAttributes, error) {
	payload := map[string]interface{}{
		"transaction_id": ch.TransactionID,
		"fwdp":           ch.Fwdp,
		"code_verifier":  ch.CodeVerifier,
		"otp":            otp,
	}

	var res struct {
		vendorEnvelope
		Data struct {
			FullName      string `json:"full_name"`
			DateOfBirth   string `json:"dob"`
			Gender        string `json:"gender"`
			Address       string `json:"address"`
			MaskedAadhaar string `json:"masked_aadhaar"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, "aadhaar_submit_otp", "/aadhaar/otp/verify", payload, &res); err != nil {
		return nil, err
	}

	if !res.ok() {
		switch res.ErrorCode {
		case codeOTPExpired, codeTransactionExpired:
			return nil, xerrors.ErrSessionExpired
		case codeInvalidOTP:
			return nil, xerrors.ErrInvalidOTP
		default:
			return nil, &xerrors.VendorRejectedError{Reason: res.Message}
		}
	}

	return &domain.AadhaarAttributes{
		FullName:     res.Data.FullName,
		DateOfBirth:  res.Data.DateOfBirth,
		Gender:       res.Data.Gender,
		Address:      res.Data.Address,
		MaskedNumber: res.Data.MaskedAadhaar,
	}, nil
}
