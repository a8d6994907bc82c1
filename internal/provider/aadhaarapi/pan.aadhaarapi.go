package aadhaarapi

import (
	"context"

	"kyc-service/pkg/xerrors"
)

// PANRecord is the registry entry for a PAN number.
type PANRecord struct {
	Registered bool
	FullName   string
}

// LookupPAN confirms a PAN exists in the income-tax registry and returns
// the registered holder name. Single-shot, no OTP involved.
func (c *Client) LookupPAN(ctx context.Context, panNumber string) (*PANRecord, error) {
	payload := map[string]interface{}{
		"pan_number": panNumber,
		"consent":    "Y",
	}

	var res struct {
		vendorEnvelope
		Data struct {
			Registered bool   `json:"registered"`
			FullName   string `json:"full_name"`
		} `json:"data"`
	}
	if err := c.postJSON(ctx, "pan_lookup", "/pan/verify", payload, &res); err != nil {
		return nil, err
	}

	if !res.ok() {
		return nil, &xerrors.VendorRejectedError{Reason: res.Message}
	}

	return &PANRecord{
		Registered: res.Data.Registered,
		FullName:   res.Data.FullName,
	}, nil
}
