// Package validator provides field-path keyed error collection for form validation.
// Errors are accumulated per field so independent failures are all reported at once.
package validator

import (
	"regexp"
	"sort"
)

// Kind classifies a validation failure.
type Kind string

const (
	RequiredField    Kind = "required_field"
	InvalidFormat    Kind = "invalid_format"
	DomainNotAllowed Kind = "domain_not_allowed"
	TooShort         Kind = "too_short"
	OutOfRange       Kind = "out_of_range"
	TooFewEntries    Kind = "too_few_entries"
)

// FieldError is a single failure reported against a field path.
type FieldError struct {
	Path    Path   `json:"path"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Validator collects field errors for a single validation pass.
// It is not safe for concurrent use.
type Validator struct {
	// errors stores one error per rendered field path
	errors map[string]FieldError
}

// New creates and returns a new Validator instance with empty error state.
func New() *Validator {
	return &Validator{
		errors: make(map[string]FieldError),
	}
}

// Valid returns true if the validator contains no validation errors.
func (v *Validator) Valid() bool {
	return len(v.errors) == 0
}

// AddError records an error for path. A path keeps the first error reported for it,
// matching a field pipeline that stops at its first failing rule.
func (v *Validator) AddError(path Path, kind Kind, message string) {
	if v.errors == nil {
		v.errors = make(map[string]FieldError)
	}
	key := path.String()
	if _, exists := v.errors[key]; exists {
		return
	}
	v.errors[key] = FieldError{Path: path, Kind: kind, Message: message}
}

// Check adds an error when condition is false and reports whether it held.
func (v *Validator) Check(condition bool, path Path, kind Kind, message string) bool {
	if !condition {
		v.AddError(path, kind, message)
	}
	return condition
}

// Has reports whether an error is recorded at path.
func (v *Validator) Has(path Path) bool {
	_, exists := v.errors[path.String()]
	return exists
}

// ErrorMap returns a copy of the messages keyed by rendered path, or nil when valid.
func (v *Validator) ErrorMap() map[string]string {
	if len(v.errors) == 0 {
		return nil
	}

	errorsCopy := make(map[string]string, len(v.errors))
	for key, fe := range v.errors {
		errorsCopy[key] = fe.Message
	}
	return errorsCopy
}

// Errors returns the recorded errors ordered by rendered path.
func (v *Validator) Errors() []FieldError {
	if len(v.errors) == 0 {
		return nil
	}

	keys := make([]string, 0, len(v.errors))
	for key := range v.errors {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]FieldError, 0, len(keys))
	for _, key := range keys {
		out = append(out, v.errors[key])
	}
	return out
}

// Clear resets the validator to an empty error state for reuse.
func (v *Validator) Clear() {
	v.errors = make(map[string]FieldError)
}

// Matches returns true if the value matches the provided regular expression pattern.
// Returns false if the pattern is nil.
func Matches(value string, pattern *regexp.Regexp) bool {
	if pattern == nil {
		return false
	}
	return pattern.MatchString(value)
}

// MatchesAll returns true if value matches every pattern. Used where a single
// expression would need lookahead, which RE2 does not support.
func MatchesAll(value string, patterns ...*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if !Matches(value, pattern) {
			return false
		}
	}
	return true
}
