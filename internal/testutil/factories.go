package testutil

import (
	"time"

	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
)

// PaymentRecordBuilder builds payment records for tests with sensible
// defaults. Zero configuration yields a pending cash payment.
//
// Example usage:
//
//	rec := testutil.NewPaymentRecord().
//	    WithStatus(model.PaymentSuccessful).
//	    WithBalance(7000).
//	    Build()
type PaymentRecordBuilder struct {
	record model.PaymentRecord
}

// NewPaymentRecord creates a builder with default values.
func NewPaymentRecord() *PaymentRecordBuilder {
	return &PaymentRecordBuilder{
		record: model.PaymentRecord{
			ID:        MakeID(),
			RentalID:  MakeID(),
			TenantID:  MakeID(),
			Amount:    5000,
			Method:    model.MethodCash,
			Month:     "2026-09",
			Status:    model.PaymentPending,
			CreatedAt: time.Now().UTC(),
		},
	}
}

// WithID sets the payment ID.
func (b *PaymentRecordBuilder) WithID(id string) *PaymentRecordBuilder {
	b.record.ID = id
	return b
}

// WithTenant sets the tenant ID.
func (b *PaymentRecordBuilder) WithTenant(tenantID string) *PaymentRecordBuilder {
	b.record.TenantID = tenantID
	return b
}

// WithRental sets the rental ID.
func (b *PaymentRecordBuilder) WithRental(rentalID string) *PaymentRecordBuilder {
	b.record.RentalID = rentalID
	return b
}

// WithAmount sets the payment amount.
func (b *PaymentRecordBuilder) WithAmount(amount float64) *PaymentRecordBuilder {
	b.record.Amount = amount
	return b
}

// WithMethod sets the payment method. Electronic methods get a phone
// number and transaction ID.
func (b *PaymentRecordBuilder) WithMethod(method model.PaymentMethod) *PaymentRecordBuilder {
	b.record.Method = method
	if method.Electronic() {
		b.record.PhoneNumber = "0712345678"
		b.record.TransactionID = MakeID()
	}
	return b
}

// WithStatus sets the payment status.
func (b *PaymentRecordBuilder) WithStatus(status model.PaymentStatus) *PaymentRecordBuilder {
	b.record.Status = status
	return b
}

// WithBalance sets the reported remaining balance.
func (b *PaymentRecordBuilder) WithBalance(balance float64) *PaymentRecordBuilder {
	b.record.Balance = &balance
	return b
}

// Build returns the configured payment record.
func (b *PaymentRecordBuilder) Build() model.PaymentRecord {
	return b.record
}

// RentalBuilder builds rental agreement snapshots for tests.
//
// Example usage:
//
//	rental := testutil.NewRental().WithMonthlyAmount(12000).Build()
type RentalBuilder struct {
	rental model.RentalAgreement
}

// NewRental creates a builder for an active rental with rent pending and
// due in a week.
func NewRental() *RentalBuilder {
	now := time.Now().UTC()
	return &RentalBuilder{
		rental: model.RentalAgreement{
			ID:              MakeID(),
			TenantID:        MakeID(),
			HouseNo:         "A-12",
			MonthlyAmount:   12000,
			StartDate:       now.AddDate(0, -6, 0),
			DueDate:         now.AddDate(0, 0, 7),
			NextPaymentDate: now.AddDate(0, 1, 0),
			PaymentStatus:   model.RentalPending,
			RentalStatus:    model.RentalActive,
		},
	}
}

// WithTenant sets the tenant ID.
func (b *RentalBuilder) WithTenant(tenantID string) *RentalBuilder {
	b.rental.TenantID = tenantID
	return b
}

// WithMonthlyAmount sets the monthly rent.
func (b *RentalBuilder) WithMonthlyAmount(amount float64) *RentalBuilder {
	b.rental.MonthlyAmount = amount
	return b
}

// WithPaymentStatus sets the backend-reported payment standing.
func (b *RentalBuilder) WithPaymentStatus(status model.RentalPaymentStatus) *RentalBuilder {
	b.rental.PaymentStatus = status
	return b
}

// WithDueDate sets the due date.
func (b *RentalBuilder) WithDueDate(due time.Time) *RentalBuilder {
	b.rental.DueDate = due
	return b
}

// Build returns the configured rental agreement.
func (b *RentalBuilder) Build() model.RentalAgreement {
	return b.rental
}
