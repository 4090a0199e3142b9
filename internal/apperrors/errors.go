package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrRentalNotFound indicates that the tenant has no active rental on the backend.
	ErrRentalNotFound = errors.New("rental not found")

	// ErrPaymentNotFound indicates that a payment with the given ID does not exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrNoSession indicates that no tenant session has been installed.
	ErrNoSession = errors.New("no active session")

	// ErrNoCurrentPayment indicates that the engine holds no payment record.
	ErrNoCurrentPayment = errors.New("no current payment")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrNoRental indicates that an operation requires a loaded rental snapshot.
	ErrNoRental = errors.New("no rental loaded")

	// ErrSubmissionInFlight indicates that a payment submission is already
	// outstanding; resubmission and reset are refused until it settles.
	ErrSubmissionInFlight = errors.New("payment submission in flight")

	// ErrReceiptNotReady indicates that a receipt was requested for a
	// payment that has not reached a terminal status.
	ErrReceiptNotReady = errors.New("payment not successful yet, receipt not available")

	// ErrEngineStopped indicates that the reconciliation engine has been
	// torn down and accepts no further operations.
	ErrEngineStopped = errors.New("reconciliation engine stopped")
)

// Reconciliation rejections are internal acceptance-rule outcomes.
// They are logged, never surfaced to the view.
var (
	// ErrStaleUpdate indicates a candidate update whose status is lower
	// than the currently held status for the same payment.
	ErrStaleUpdate = errors.New("stale payment update")

	// ErrUnknownPayment indicates a push or poll update for a payment ID
	// that does not belong to this session's in-flight payment.
	ErrUnknownPayment = errors.New("update for unknown payment")
)

// Operation failure errors represent system-level failures when retrieving or
// processing data. They indicate that an operation failed, but not due to
// missing entities or validation issues.
var (
	ErrFailedToLoadRental    = errors.New("failed to load rental")
	ErrFailedToSubmitPayment = errors.New("failed to submit payment")
	ErrFailedToLoadState     = errors.New("failed to load payment state")
	ErrFailedToSaveSession   = errors.New("failed to save session")
	ErrFailedToClearSession  = errors.New("failed to clear session")
)
