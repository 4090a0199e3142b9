package model

import "time"

// Receipt is the printable proof of a successful payment. It is derived
// on demand from the current payment record plus the session and rental
// snapshots; it is never persisted.
type Receipt struct {
	ReceiptNo     string    `json:"receiptNo"`
	TenantName    string    `json:"tenantName"`
	HouseNo       string    `json:"houseNo,omitempty"`
	Month         string    `json:"month,omitempty"`
	Method        string    `json:"method"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	Amount        float64   `json:"amount"`
	Balance       float64   `json:"balance"`
	Currency      string    `json:"currency"`
	PaymentDate   time.Time `json:"paymentDate"`
}
