package backend

import "github.com/kariuki-dev/tenant-payment-agent/internal/model"

// SubmitPaymentRequest is the wire payload for POST /api/payment/add.
// TransactionID is set only for electronic methods and is generated
// client-side before submission.
type SubmitPaymentRequest struct {
	RentalID      string  `json:"rentalId"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	Month         string  `json:"month,omitempty"`
	PhoneNumber   string  `json:"phoneNumber,omitempty"`
	TransactionID string  `json:"transactionId,omitempty"`
}

// paymentEnvelope wraps a single payment record in backend responses.
type paymentEnvelope struct {
	Payment model.PaymentRecord `json:"payment"`
}

// paymentsEnvelope wraps the tenant's payment history, most recent first.
type paymentsEnvelope struct {
	Payments []model.PaymentRecord `json:"payments"`
}

// errorEnvelope carries the backend's rejection message. The backend is
// inconsistent about the field name, so both are tried.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorEnvelope) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}
