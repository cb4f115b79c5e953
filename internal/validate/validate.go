// Package validate provides the field checks a claim must pass before it is written.
package validate

import (
	"errors"
	"strings"
	"time"

	"github.com/kylejryan/vehicle-claims-api/internal/models"
)

// DateLayout is the calendar-date form accepted for incidentDate besides RFC 3339.
const DateLayout = "2006-01-02"

var (
	errRequired      = errors.New("is required")
	errInvalidStatus = errors.New("must be one of " + joinStatuses())
	errInvalidDate   = errors.New("must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
)

// FieldError reports a single field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string { return e.Field + " " + e.Err.Error() }

func (e FieldError) Unwrap() error { return e.Err }

// Errors collects every field that failed validation, in check order.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "claim validation failed: " + strings.Join(msgs, ", ")
}

// Fields returns the names of the offending fields.
func (e Errors) Fields() []string {
	out := make([]string, len(e))
	for i, fe := range e {
		out[i] = fe.Field
	}
	return out
}

// Has reports whether field already failed.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Merge appends the entries of more whose field is not already reported.
func (e Errors) Merge(more Errors) Errors {
	for _, fe := range more {
		if !e.Has(fe.Field) {
			e = append(e, fe)
		}
	}
	return e
}

// Required checks that s is non-empty after trimming whitespace.
func Required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errRequired
	}
	return nil
}

// Status checks that s is one of the accepted claim statuses.
func Status(s models.ClaimStatus) error {
	if !s.Valid() {
		return errInvalidStatus
	}
	return nil
}

// ParseDate accepts a YYYY-MM-DD calendar date or an RFC 3339 timestamp and returns it in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errRequired
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errInvalidDate
}

// Claim runs every field check against c and returns Errors, or nil when c is valid.
func Claim(c models.Claim) error {
	checks := []struct {
		field string
		check func() error
	}{
		{"companyReference", func() error { return Required(c.CompanyReference) }},
		{"policyNumber", func() error { return Required(c.PolicyNumber) }},
		{"incidentDate", func() error {
			if c.IncidentDate.IsZero() {
				return errRequired
			}
			return nil
		}},
		{"damageToVehicle", func() error { return Required(c.DamageToVehicle) }},
		{"registrationNumber", func() error { return Required(c.RegistrationNumber) }},
		{"status", func() error { return Status(c.Status) }},
	}

	var errs Errors
	for _, ch := range checks {
		if err := ch.check(); err != nil {
			errs = append(errs, FieldError{Field: ch.field, Err: err})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func joinStatuses() string {
	names := make([]string, len(models.Statuses))
	for i, s := range models.Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
