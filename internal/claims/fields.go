package claims

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/kylejryan/vehicle-claims-api/internal/models"
	"github.com/kylejryan/vehicle-claims-api/internal/validate"
)

// Fields is the client-writable part of a claim. A nil pointer means the
// field was not supplied; on update it leaves the stored value untouched.
// A field sent as an explicit JSON null clears the value instead, so the
// merged claim fails validation when the field is required.
type Fields struct {
	CompanyReference   *string `json:"companyReference"`
	PolicyNumber       *string `json:"policyNumber"`
	IncidentDate       *string `json:"incidentDate"`
	DamageToVehicle    *string `json:"damageToVehicle"`
	RegistrationNumber *string `json:"registrationNumber"`
	Status             *string `json:"status"`

	nulls map[string]bool
}

var fieldNames = []string{
	"companyReference",
	"policyNumber",
	"incidentDate",
	"damageToVehicle",
	"registrationNumber",
	"status",
}

// UnmarshalJSON decodes the fields and records which of them were sent as null.
func (f *Fields) UnmarshalJSON(b []byte) error {
	type plain Fields
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*f = Fields(p)
	f.nulls = nil
	for key, v := range raw {
		if !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		// encoding/json matches keys case-insensitively; so do we.
		for _, name := range fieldNames {
			if strings.EqualFold(key, name) {
				f.setNull(name)
			}
		}
	}
	return nil
}

// SetNull marks field as explicitly cleared, as a JSON null would.
func (f *Fields) SetNull(field string) {
	for _, name := range fieldNames {
		if name == field {
			f.setNull(name)
		}
	}
}

func (f *Fields) setNull(name string) {
	if f.nulls == nil {
		f.nulls = make(map[string]bool)
	}
	f.nulls[name] = true
}

// Null reports whether field was sent as an explicit null.
func (f Fields) Null(field string) bool { return f.nulls[field] }

// Empty reports whether no field was supplied.
func (f Fields) Empty() bool {
	return f.CompanyReference == nil && f.PolicyNumber == nil && f.IncidentDate == nil &&
		f.DamageToVehicle == nil && f.RegistrationNumber == nil && f.Status == nil &&
		len(f.nulls) == 0
}

// applyTo copies the supplied fields onto c and zeroes the ones sent as null.
// Only incidentDate can fail to convert; the returned errors are merged with
// the full validation pass.
func (f Fields) applyTo(c *models.Claim) validate.Errors {
	var errs validate.Errors

	setString(&c.CompanyReference, f.CompanyReference, f.Null("companyReference"))
	setString(&c.PolicyNumber, f.PolicyNumber, f.Null("policyNumber"))

	switch {
	case f.IncidentDate != nil:
		t, err := validate.ParseDate(*f.IncidentDate)
		if err != nil {
			errs = append(errs, validate.FieldError{Field: "incidentDate", Err: err})
		} else {
			c.IncidentDate = t
		}
	case f.Null("incidentDate"):
		c.IncidentDate = time.Time{}
	}

	setString(&c.DamageToVehicle, f.DamageToVehicle, f.Null("damageToVehicle"))
	setString(&c.RegistrationNumber, f.RegistrationNumber, f.Null("registrationNumber"))

	switch {
	case f.Status != nil:
		c.Status = models.ClaimStatus(*f.Status)
	case f.Null("status"):
		c.Status = ""
	}
	return errs
}

func setString(dst *string, v *string, null bool) {
	switch {
	case v != nil:
		*dst = *v
	case null:
		*dst = ""
	}
}
