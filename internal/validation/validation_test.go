package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/haloteknika/fiberdesk/internal/types"
)

func validTicket() types.Ticket {
	return types.Ticket{
		ID:        types.NewID(),
		Customer:  "Budi",
		ServiceID: "SVC-001",
		Status:    types.StatusOnProgress,
		CreatedAt: time.Now().UTC(),
	}
}

func TestValidateTicket_Valid(t *testing.T) {
	if err := ValidateTicket(validTicket()); err != nil {
		t.Errorf("valid ticket rejected: %v", err)
	}
}

func TestValidateTicket_FirstOffendingField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Ticket)
		field  string
	}{
		{
			name:   "empty customer",
			mutate: func(tk *types.Ticket) { tk.Customer = "  " },
			field:  "customer",
		},
		{
			name:   "unknown status",
			mutate: func(tk *types.Ticket) { tk.Status = "Escalated" },
			field:  "status",
		},
		{
			name:   "zero created_at",
			mutate: func(tk *types.Ticket) { tk.CreatedAt = time.Time{} },
			field:  "created_at",
		},
		{
			name:   "null byte in problem",
			mutate: func(tk *types.Ticket) { tk.Problem = "bad\x00value" },
			field:  "problem",
		},
		{
			name:   "oversized field",
			mutate: func(tk *types.Ticket) { tk.Problem = strings.Repeat("x", 501) },
			field:  "problem",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := validTicket()
			tt.mutate(&tk)

			err := ValidateTicket(tk)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrValidationFailed) {
				t.Errorf("error does not wrap ErrValidationFailed: %v", err)
			}
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("error is not a FieldError: %v", err)
			}
			if fieldErr.Field != tt.field {
				t.Errorf("field = %s, want %s", fieldErr.Field, tt.field)
			}
		})
	}
}
