package service

import (
	"fmt"
	"regexp"

	"kyc-service/pkg/xerrors"
)

var (
	aadhaarPattern = regexp.MustCompile(`^[0-9]{12}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

func validateAadhaarNumber(n string) error {
	if !aadhaarPattern.MatchString(n) {
		return fmt.Errorf("%w: aadhaar number must be 12 digits", xerrors.ErrInvalidRequest)
	}
	return nil
}

func validatePANNumber(n string) error {
	if !panPattern.MatchString(n) {
		return fmt.Errorf("%w: malformed PAN number", xerrors.ErrInvalidRequest)
	}
	return nil
}

func validIFSC(code string) bool {
	return ifscPattern.MatchString(code)
}
