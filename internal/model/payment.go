package model

import "time"

// PaymentMethod identifies how a tenant pays rent.
type PaymentMethod string

// Supported payment methods.
const (
	MethodCash  PaymentMethod = "cash"
	MethodMpesa PaymentMethod = "mpesa"
)

// Valid reports whether the method is one of the supported values.
func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodMpesa
}

// Electronic reports whether the method requires a client-generated
// transaction ID and a phone number.
func (m PaymentMethod) Electronic() bool {
	return m == MethodMpesa
}

// PaymentStatus is the lifecycle status of a payment record.
// Statuses are ordered: pending < successful. A record never moves
// backward once successful has been observed.
type PaymentStatus string

// Payment lifecycle statuses.
const (
	PaymentPending    PaymentStatus = "pending"
	PaymentSuccessful PaymentStatus = "successful"
)

var statusRank = map[PaymentStatus]int{
	PaymentPending:    0,
	PaymentSuccessful: 1,
}

// Valid reports whether the status is a known lifecycle status.
func (s PaymentStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether no further transitions are accepted for a
// record in this status.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccessful
}

// Before reports whether s is strictly lower than other in the status
// ordering. Unknown statuses rank lowest.
func (s PaymentStatus) Before(other PaymentStatus) bool {
	return statusRank[s] < statusRank[other]
}

// PaymentRecord represents one payment attempt against a rental.
// The ID is assigned by the backend on first successful submission.
// Balance is the remaining rental balance after this payment; it is
// nil when the producing channel did not report one.
type PaymentRecord struct {
	ID            string        `json:"id"`
	RentalID      string        `json:"rentalId"`
	TenantID      string        `json:"tenantId"`
	Amount        float64       `json:"amount"`
	Method        PaymentMethod `json:"method"`
	Month         string        `json:"month,omitempty"`
	PhoneNumber   string        `json:"phoneNumber,omitempty"`
	TransactionID string        `json:"transactionId,omitempty"`
	Status        PaymentStatus `json:"status"`
	Balance       *float64      `json:"balance,omitempty"`
	CreatedAt     time.Time     `json:"createdAt,omitempty"`
}

// ReconcileState is the snapshot of the reconciliation engine exposed
// to the view layer. Current is nil when no payment is in flight.
type ReconcileState struct {
	Current            *PaymentRecord `json:"current"`
	RemainingBalance   float64        `json:"remainingBalance"`
	StatusUnknown      bool           `json:"statusUnknown"`
	SubmissionInFlight bool           `json:"submissionInFlight"`
}
