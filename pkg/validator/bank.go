package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyHolderName indicates the account holder name is missing
	ErrEmptyHolderName = errors.New("account holder name cannot be empty")

	// ErrInvalidAccountNumber indicates the account number is not 9-18 digits
	ErrInvalidAccountNumber = errors.New("account number must be 9 to 18 digits")

	// ErrInvalidIFSC indicates the IFSC code does not match the RBI format
	ErrInvalidIFSC = errors.New("IFSC code must be 4 letters, a zero, and 6 alphanumeric characters")
)

// ifscRegex matches the RBI IFSC format: 4-letter bank code, reserved 0,
// 6-character branch code
var ifscRegex = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

// accountRegex matches digits only
var accountRegex = regexp.MustCompile(`^\d+$`)

// BankValidator handles payout account validation
type BankValidator struct{}

// NewBankValidator creates a new bank validator instance
func NewBankValidator() *BankValidator {
	return &BankValidator{}
}

// ValidateHolderName checks the account holder name
func (v *BankValidator) ValidateHolderName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyHolderName
	}
	return nil
}

// ValidateAccountNumber validates an Indian bank account number.
// Accepts digits with optional spaces; returns the sanitized number.
func (v *BankValidator) ValidateAccountNumber(account string) (string, error) {
	sanitized := strings.ReplaceAll(strings.TrimSpace(account), " ", "")
	if !accountRegex.MatchString(sanitized) {
		return "", ErrInvalidAccountNumber
	}
	if len(sanitized) < 9 || len(sanitized) > 18 {
		return "", ErrInvalidAccountNumber
	}
	return sanitized, nil
}

// ValidateIFSC validates an IFSC code, accepting lowercase input.
// Returns the normalized (uppercase) code.
func (v *BankValidator) ValidateIFSC(ifsc string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ifsc))
	if !ifscRegex.MatchString(normalized) {
		return "", ErrInvalidIFSC
	}
	return normalized, nil
}
