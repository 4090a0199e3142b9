package service

import (
	"strings"

	"github.com/kariuki-dev/tenant-payment-agent/internal/apperrors"
	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
)

const receiptCurrency = "Ksh"

// Receipt builds the printable receipt for the current payment. Only a
// record in a terminal status earns one; anything earlier returns
// ErrReceiptNotReady so the view keeps showing the pending state.
func (e *ReconcileService) Receipt() (model.Receipt, error) {
	sess, err := e.sessions.Get()
	if err != nil {
		return model.Receipt{}, err
	}

	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return model.Receipt{}, apperrors.ErrNoCurrentPayment
	}
	record := *e.current
	balance := e.remainingBalance
	e.mu.Unlock()

	if !record.Status.Terminal() {
		return model.Receipt{}, apperrors.ErrReceiptNotReady
	}

	receipt := model.Receipt{
		ReceiptNo:   receiptNo(record.ID),
		TenantName:  sess.Name,
		Month:       record.Month,
		Method:      string(record.Method),
		Amount:      record.Amount,
		Balance:     balance,
		Currency:    receiptCurrency,
		PaymentDate: record.CreatedAt,
	}
	if record.Balance != nil {
		receipt.Balance = *record.Balance
	}
	if record.Method.Electronic() {
		receipt.PhoneNumber = record.PhoneNumber
		receipt.TransactionID = record.TransactionID
	}
	if rental := e.rentals.Current(); rental != nil {
		receipt.HouseNo = rental.HouseNo
	}

	return receipt, nil
}

// receiptNo derives a short human-readable receipt number from the
// backend-assigned payment ID.
func receiptNo(paymentID string) string {
	id := paymentID
	if len(id) > 8 {
		id = id[:8]
	}
	return "RCT-" + strings.ToUpper(id)
}
