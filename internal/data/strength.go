package data

import (
	"regexp"
	"unicode/utf8"

	"techform/internal/validator"
)

const StrongPasswordLength = 8

var strongPasswordRX = []*regexp.Regexp{
	regexp.MustCompile(`[a-z]`),
	regexp.MustCompile(`[A-Z]`),
	regexp.MustCompile(`[0-9]`),
	regexp.MustCompile(`[^A-Za-z0-9]`),
}

// IsStrongPassword reports whether password has a lowercase letter, an uppercase
// letter, a digit, a non-alphanumeric character and at least 8 characters.
// The result is advisory and independent of the schema's minimum length rule.
func IsStrongPassword(password string) bool {
	return utf8.RuneCountInString(password) >= StrongPasswordLength &&
		validator.MatchesAll(password, strongPasswordRX...)
}
