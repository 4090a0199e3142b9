package request

// SubmitPaymentRequest is the payment draft posted by the view layer.
// PhoneNumber is required only for mpesa payments.
type SubmitPaymentRequest struct {
	Method      string  `json:"method"`
	Amount      float64 `json:"amount"`
	Month       string  `json:"month,omitempty"`
	PhoneNumber string  `json:"phoneNumber,omitempty"`
}
