package aadhaarapi

import (
	"context"

	"kyc-service/internal/domain"
	"kyc-service/pkg/xerrors"
)

// VerifyBankAccount checks whether the named bank account belongs to the
// holder of the given PAN. A negative linkage is a successful response,
// not an error; only vendor-internal failures reject.
func (c *Client) VerifyBankAccount(ctx context.Context, accountNumber, ifsc, panNumber string) (*domain.BankLinkageResult, error) {
	payload := map[string]interface{}{
		"account_number": accountNumber,
		"ifsc":           ifsc,
		"pan_number":     panNumber,
		"consent":        "Y",
	}

	var res struct {
		vendorEnvelope
		Data struct {
			AccountExists  bool    `json:"account_exists"`
			NameMatchScore float64 `json:"name_match_score"`
			RegisteredName string  `json:"registered_name"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, "bank_verify", "/bank/verify", payload, &res); err != nil {
		return nil, err
	}

	if !res.ok() {
		return nil, &xerrors.VendorRejectedError{Reason: res.Message}
	}

	return &domain.BankLinkageResult{
		Linked:         res.Data.AccountExists,
		Confidence:     res.Data.NameMatchScore,
		RegisteredName: res.Data.RegisteredName,
	}, nil
}
