// Package validation checks caller-supplied record input. Validation errors
// are the caller's problem to fix and are surfaced synchronously, unlike
// store and remote errors which degrade silently.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/haloteknika/fiberdesk/internal/types"
)

// ErrValidationFailed wraps all field validation failures.
var ErrValidationFailed = errors.New("validation failed")

// FieldError identifies the first offending field and what was wrong.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: field %q %s", ErrValidationFailed, e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrValidationFailed
}

// maxFieldLength bounds descriptive fields; imports routinely carry pasted
// notes, but unbounded strings do not belong in a snapshot document.
const maxFieldLength = 500

// ValidateTicket checks a manually created ticket, failing on the first
// offending field.
func ValidateTicket(t types.Ticket) error {
	if strings.TrimSpace(t.Customer) == "" {
		return &FieldError{Field: "customer", Message: "must not be empty"}
	}
	if !types.ValidStatus(t.Status) {
		return &FieldError{Field: "status", Message: fmt.Sprintf("unknown status %q", t.Status)}
	}
	if t.CreatedAt.IsZero() {
		return &FieldError{Field: "created_at", Message: "must be set"}
	}

	for _, f := range []struct {
		name, value string
	}{
		{"customer", t.Customer},
		{"service_id", t.ServiceID},
		{"olt", t.OLT},
		{"fat_id", t.FATID},
		{"ont_serial", t.ONTSerial},
		{"problem", t.Problem},
	} {
		if err := validateText(f.name, f.value); err != nil {
			return err
		}
	}

	return nil
}

// validateText applies the shared string-field checks.
func validateText(field, value string) error {
	if !utf8.ValidString(value) {
		return &FieldError{Field: field, Message: "must be valid UTF-8"}
	}
	if strings.Contains(value, "\x00") {
		return &FieldError{Field: field, Message: "must not contain null bytes"}
	}
	if utf8.RuneCountInString(value) > maxFieldLength {
		return &FieldError{Field: field, Message: fmt.Sprintf("exceeds maximum length of %d characters", maxFieldLength)}
	}
	return nil
}
