// Package data provides the sign-up form models, the validation schema and the
// form controller that owns in-progress form state.
package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FormInput holds raw, unvalidated form values as typed by the user.
type FormInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Techs    []TechInput `json:"techs"`
}

// TechInput is one row of the dynamic technology list.
type TechInput struct {
	// ID is a stable row identity, independent of position in the list
	ID string `json:"id,omitempty"`
	// Title is the technology name
	Title string `json:"title"`
	// Knowledge is the raw knowledge level text, coerced to a number on validation
	Knowledge RawNumber `json:"knowledge"`
}

// String omits the password.
func (f FormInput) String() string {
	return fmt.Sprintf("FormInput{name=%q, email=%q, techs=%d}", f.Name, f.Email, len(f.Techs))
}

// clone returns a copy that shares no mutable state with f.
func (f FormInput) clone() FormInput {
	out := f
	if f.Techs != nil {
		out.Techs = make([]TechInput, len(f.Techs))
		copy(out.Techs, f.Techs)
	}
	return out
}

// RawNumber is numeric input kept as text. It decodes from either a JSON
// number or a JSON string, mirroring a text input box.
type RawNumber string

// UnmarshalJSON accepts 42, "42" and null.
func (n *RawNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = RawNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("knowledge must be a number or a string: %w", err)
	}
	*n = RawNumber(num.String())
	return nil
}

// FormValues is the validated, transformed form payload.
type FormValues struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Techs    []TechEntry `json:"techs"`
}

// TechEntry is a validated technology with a knowledge level in [1, 100].
type TechEntry struct {
	Title     string  `json:"title"`
	Knowledge float64 `json:"knowledge"`
}

// Input projects validated values back to raw input, so they can be re-validated.
func (v FormValues) Input() FormInput {
	in := FormInput{
		Name:     v.Name,
		Email:    v.Email,
		Password: v.Password,
		Techs:    make([]TechInput, 0, len(v.Techs)),
	}
	for _, t := range v.Techs {
		in.Techs = append(in.Techs, TechInput{
			Title:     t.Title,
			Knowledge: RawNumber(strconv.FormatFloat(t.Knowledge, 'f', -1, 64)),
		})
	}
	return in
}

// HealthCheckResponse represents the health check response structure.
type HealthCheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"system_info"`
}

// SystemInfo contains basic application information for health checks.
type SystemInfo struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
	Locale      string `json:"locale"`
	Timestamp   string `json:"timestamp,omitempty"`
}
