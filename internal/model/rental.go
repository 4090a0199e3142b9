package model

import (
	"fmt"
	"time"
)

// RentalPaymentStatus is the backend-reported payment standing of a rental.
type RentalPaymentStatus string

// Rental payment standings.
const (
	RentalPaid    RentalPaymentStatus = "paid"
	RentalPending RentalPaymentStatus = "pending"
	RentalLate    RentalPaymentStatus = "late"
)

// RentalStatus is the lifecycle status of a rental agreement.
type RentalStatus string

// Rental lifecycle statuses.
const (
	RentalActive   RentalStatus = "active"
	RentalInactive RentalStatus = "inactive"
)

// RentalAgreement is a read-only snapshot of a tenant's lease, owned by
// the backend and refreshed only by the rental loader.
type RentalAgreement struct {
	ID              string              `json:"id"`
	TenantID        string              `json:"tenantId"`
	HouseNo         string              `json:"houseNo,omitempty"`
	MonthlyAmount   float64             `json:"amount"`
	StartDate       time.Time           `json:"startDate,omitempty"`
	DueDate         time.Time           `json:"dueDate"`
	NextPaymentDate time.Time           `json:"nextPaymentDate"`
	PaymentStatus   RentalPaymentStatus `json:"paymentStatus"`
	RentalStatus    RentalStatus        `json:"rentalStatus"`
}

// NextPaymentInfo describes where a rental stands in its payment cycle,
// for display on the tenant dashboard.
type NextPaymentInfo struct {
	Label    string `json:"label"`
	Severity string `json:"severity"` // ok, warning, overdue, none
	Detail   string `json:"detail,omitempty"`
}

// RentalSummary aggregates dashboard figures for a tenant.
type RentalSummary struct {
	ActiveRentals    int             `json:"activeRentals"`
	TotalMonthlyRent float64         `json:"totalMonthlyRent"`
	NextPayment      NextPaymentInfo `json:"nextPayment"`
}

// NextPayment derives the payment-cycle standing of the rental relative
// to now. Day counts are computed on whole days, rounding up.
func (r RentalAgreement) NextPayment(now time.Time) NextPaymentInfo {
	daysLeft := daysBetween(now, r.DueDate)

	switch r.PaymentStatus {
	case RentalPaid:
		return NextPaymentInfo{
			Label:    fmt.Sprintf("Paid. Next rent due on %s", r.NextPaymentDate.Format("2006-01-02")),
			Severity: "ok",
			Detail:   "All payments are up to date",
		}
	case RentalPending:
		if daysLeft > 0 {
			return NextPaymentInfo{
				Label:    fmt.Sprintf("Due in %d %s (%s)", daysLeft, dayWord(daysLeft), r.DueDate.Format("2006-01-02")),
				Severity: "warning",
				Detail:   "Please make payment soon.",
			}
		}
		if daysLeft == 0 {
			return NextPaymentInfo{
				Label:    fmt.Sprintf("Due today (%s)", r.DueDate.Format("2006-01-02")),
				Severity: "warning",
				Detail:   "Please pay before the end of the day to avoid penalty.",
			}
		}
		fallthrough
	case RentalLate:
		overdue := daysBetween(r.DueDate, now)
		return NextPaymentInfo{
			Label:    fmt.Sprintf("Overdue by %d %s (was due %s)", overdue, dayWord(overdue), r.DueDate.Format("2006-01-02")),
			Severity: "overdue",
			Detail:   "Your rent payment is late. Please pay immediately.",
		}
	}

	return NextPaymentInfo{Label: "No payment info", Severity: "none"}
}

func daysBetween(from, to time.Time) int {
	diff := to.Sub(from)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}

func dayWord(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
