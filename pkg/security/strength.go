package security

import "strings"

const minPasswordLength = 8

const specialCharset = "!@#$%^&*()-_=+[]{};:'\",.<>/?\\|`~"

// StrengthResult reports every violated rule so callers can surface all of
// them at once.
type StrengthResult struct {
	IsStrong bool     `json:"is_strong"`
	Errors   []string `json:"errors"`
}

// CheckPasswordStrength runs every rule, in a fixed order, without
// short-circuiting: length, uppercase, lowercase, digit, special character.
func CheckPasswordStrength(password string) StrengthResult {
	var errs []string

	if len(password) < minPasswordLength {
		errs = append(errs, "must be at least 8 characters long")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
		errs = append(errs, "must contain an uppercase letter")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= 'a' && r <= 'z' }) {
		errs = append(errs, "must contain a lowercase letter")
	}
	if !strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' }) {
		errs = append(errs, "must contain a digit")
	}
	if !strings.ContainsAny(password, specialCharset) {
		errs = append(errs, "must contain a special character")
	}

	return StrengthResult{
		IsStrong: len(errs) == 0,
		Errors:   errs,
	}
}
