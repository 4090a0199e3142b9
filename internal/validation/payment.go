package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/kariuki-dev/tenant-payment-agent/internal/api/request"
)

// ValidPaymentMethod contains the allowed payment method values.
var ValidPaymentMethod = map[string]bool{
	"cash": true, "mpesa": true,
}

// ValidateSubmitPayment validates a payment draft before any network call.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - method: Must be one of: cash, mpesa
//   - amount: Must be positive and not exceed the remaining rental balance
//   - phoneNumber: Required and non-empty only when method is mpesa
//   - month: Must be in YYYY-MM format if provided
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateSubmitPayment(req request.SubmitPaymentRequest, remainingBalance float64) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Method) == "" {
		errors["method"] = "method is required"
	} else if !ValidPaymentMethod[req.Method] {
		errors["method"] = fmt.Sprintf("invalid method: %s", req.Method)
	}

	if req.Amount <= 0.0 {
		errors["amount"] = "amount must be positive"
	} else if req.Amount > remainingBalance {
		errors["amount"] = fmt.Sprintf("amount exceeds remaining balance of %.2f", remainingBalance)
	}

	if req.Month != "" {
		if _, err := time.Parse("2006-01", req.Month); err != nil {
			errors["month"] = "month must be in YYYY-MM format"
		}
	}

	if req.Method == "mpesa" && strings.TrimSpace(req.PhoneNumber) == "" {
		errors["phoneNumber"] = "phone number is required for mpesa payments"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
