package aadhaarapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kyc-service/pkg/xerrors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 5*time.Second)
}

func TestGenerateAadhaarOTP(t *testing.T) {
	var gotAuth, gotAuthType string
	var gotBody map[string]interface{}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/aadhaar/otp" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("X-API-Key")
		gotAuthType = r.Header.Get("X-Auth-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         "success",
			"transaction_id": "tx-1",
			"fwdp":           "fwdp-abc",
			"code_verifier":  "cv-xyz",
		})
	})

	ch, err := c.GenerateAadhaarOTP(context.Background(), "123456789012")
	if err != nil {
		t.Fatal(err)
	}
	if ch.TransactionID != "tx-1" || ch.Fwdp != "fwdp-abc" || ch.CodeVerifier != "cv-xyz" {
		t.Errorf("challenge not mapped: %+v", ch)
	}
	if gotAuth != "test-key" || gotAuthType != "API-Key" {
		t.Errorf("credential headers missing: %q %q", gotAuth, gotAuthType)
	}
	if gotBody["aadhaar_number"] != "123456789012" || gotBody["consent"] != "Y" {
		t.Errorf("unexpected request body: %v", gotBody)
	}
}

func TestGenerateAadhaarOTPVendorRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "failed",
			"error_code": "INVALID_AADHAAR",
			"message":    "aadhaar number does not exist",
		})
	})

	_, err := c.GenerateAadhaarOTP(context.Background(), "123456789012")
	var rejected *xerrors.VendorRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected VendorRejectedError, got %v", err)
	}
	if rejected.Reason != "aadhaar number does not exist" {
		t.Errorf("vendor reason must pass through, got %q", rejected.Reason)
	}
}

func TestGenerateAadhaarOTPTransportFault(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.GenerateAadhaarOTP(context.Background(), "123456789012")
	if !errors.Is(err, xerrors.ErrVendorUnavailable) {
		t.Fatalf("expected ErrVendorUnavailable on non-2xx, got %v", err)
	}
}

func TestSubmitAadhaarOTPErrorMapping(t *testing.T) {
	cases := []struct {
		name      string
		errorCode string
		want      error
	}{
		{"invalid otp", "INVALID_OTP", xerrors.ErrInvalidOTP},
		{"otp expired", "OTP_EXPIRED", xerrors.ErrSessionExpired},
		{"transaction expired", "TRANSACTION_EXPIRED", xerrors.ErrSessionExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"status":     "failed",
					"error_code": tc.errorCode,
					"message":    "verification failed",
				})
			})

			ch := &OTPChallenge{TransactionID: "tx-1", Fwdp: "f", CodeVerifier: "cv"}
			_, err := c.SubmitAadhaarOTP(context.Background(), ch, "000000")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSubmitAadhaarOTPSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["transaction_id"] != "tx-1" || body["fwdp"] != "f" || body["code_verifier"] != "cv" {
			t.Errorf("correlation identifiers missing from request: %v", body)
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"full_name":      "Asha Rao",
				"dob":            "1990-04-12",
				"gender":         "F",
				"address":        "12 MG Road, Bengaluru",
				"masked_aadhaar": "XXXX-XXXX-9012",
			},
		})
	})

	ch := &OTPChallenge{TransactionID: "tx-1", Fwdp: "f", CodeVerifier: "cv"}
	attrs, err := c.SubmitAadhaarOTP(context.Background(), ch, "111111")
	if err != nil {
		t.Fatal(err)
	}
	if attrs.FullName != "Asha Rao" || attrs.MaskedNumber != "XXXX-XXXX-9012" {
		t.Errorf("attributes not mapped: %+v", attrs)
	}
}

func TestVerifyBankAccountNoLinkageIsNotError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"account_exists":   false,
				"name_match_score": 0.12,
			},
		})
	})

	res, err := c.VerifyBankAccount(context.Background(), "ACC123", "HDFC0001234", "ABCDE1234F")
	if err != nil {
		t.Fatalf("negative linkage must not be an error: %v", err)
	}
	if res.Linked {
		t.Error("expected linked=false")
	}
	if res.Confidence != 0.12 {
		t.Errorf("expected confidence 0.12, got %v", res.Confidence)
	}
}

func TestLookupPAN(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"registered": true,
				"full_name":  "Asha Rao",
			},
		})
	})

	rec, err := c.LookupPAN(context.Background(), "ABCDE1234F")
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Registered || rec.FullName != "Asha Rao" {
		t.Errorf("pan record not mapped: %+v", rec)
	}
}
