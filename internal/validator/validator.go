package validator

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrInvalidAccountCode = errors.New("invalid account code")
)

var (
	emailRegex       = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex    = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	currencyRegex    = regexp.MustCompile(`^[A-Z]{3}$`)
	accountCodeRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-]{0,19}$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

// ValidateCurrency accepts upper-case ISO 4217 style codes.
func ValidateCurrency(code string) error {
	if !currencyRegex.MatchString(code) {
		return ErrInvalidCurrency
	}
	return nil
}

// ValidateAccountCode accepts chart-of-accounts codes such as 1000 or 4000.10.
func ValidateAccountCode(code string) error {
	if !accountCodeRegex.MatchString(code) {
		return ErrInvalidAccountCode
	}
	return nil
}
