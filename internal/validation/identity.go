// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
)

var (
	mobileRegex = regexp.MustCompile(`^[0-9]{10,12}$`)
	ntnRegex    = regexp.MustCompile(`^[0-9]{7}$`)
)

// Email checks RFC 5322 address format.
func Email(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// Mobile checks mobile number format: digits only, 10 to 12 characters.
func Mobile(mobile string) error {
	if !mobileRegex.MatchString(mobile) {
		return fmt.Errorf("mobile number must be 10-12 digits")
	}
	return nil
}

// NTN checks National Tax Number format: exactly 7 digits. Used during
// vendor registration.
func NTN(ntn string) error {
	if !ntnRegex.MatchString(ntn) {
		return fmt.Errorf("NTN must be exactly 7 digits")
	}
	return nil
}

// Password checks if a password meets length requirements. bcrypt truncates
// input at 72 bytes, so the ceiling also guards against silent truncation.
func Password(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 72 {
		return fmt.Errorf("password must not exceed 72 characters")
	}
	return nil
}
