package handlers

import (
	"errors"
	"net/http"

	"github.com/kariuki-dev/tenant-payment-agent/internal/api/request"
	"github.com/kariuki-dev/tenant-payment-agent/internal/api/response"
	"github.com/kariuki-dev/tenant-payment-agent/internal/apperrors"
	"github.com/kariuki-dev/tenant-payment-agent/internal/backend"
	"github.com/kariuki-dev/tenant-payment-agent/internal/service"
	"github.com/kariuki-dev/tenant-payment-agent/internal/validation"
)

// PaymentHandler handles HTTP requests for payment submission and the
// reconciled payment state.
type PaymentHandler struct {
	reconcileService *service.ReconcileService
}

// NewPaymentHandler creates a new PaymentHandler with the provided service dependency.
func NewPaymentHandler(reconcileService *service.ReconcileService) *PaymentHandler {
	return &PaymentHandler{
		reconcileService: reconcileService,
	}
}

// Submit handles POST requests to submit a new payment intent.
// Validation failures are reported field by field before anything leaves
// the process; a backend rejection carries the backend's message verbatim.
//
// Endpoint: POST /api/payment
// Request Body: SubmitPaymentRequest (method, amount, and optionally month, phoneNumber)
// Response: 201 Created with PaymentRecord
// Error: 400 Bad Request if the body is invalid or validation fails
// Error: 401 Unauthorized if no session is installed
// Error: 409 Conflict if a submission is already in flight or no rental is loaded
// Error: 422 Unprocessable Entity if the backend rejects the submission
// Error: 500 Internal Server Error on transport failure
func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.SubmitPaymentRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	record, err := h.reconcileService.Submit(r.Context(), req)
	if err != nil {
		var validationErr *validation.Error
		var rejection *backend.RejectionError
		switch {
		case errors.As(err, &validationErr):
			response.RespondError(w, http.StatusBadRequest, "validation failed", validationErr.Fields)
		case errors.As(err, &rejection):
			response.RespondError(w, http.StatusUnprocessableEntity, rejection.Message, "")
		case errors.Is(err, apperrors.ErrNoSession):
			response.RespondError(w, http.StatusUnauthorized, apperrors.ErrNoSession.Error(), "")
		case errors.Is(err, apperrors.ErrNoRental):
			response.RespondError(w, http.StatusConflict, apperrors.ErrNoRental.Error(), "")
		case errors.Is(err, apperrors.ErrSubmissionInFlight):
			response.RespondError(w, http.StatusConflict, apperrors.ErrSubmissionInFlight.Error(), "")
		default:
			response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToSubmitPayment.Error(), err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusCreated, record)
}

// State handles GET requests for the reconciled payment state.
//
// Endpoint: GET /api/payment/state
// Response: 200 OK with ReconcileState
func (h *PaymentHandler) State(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.reconcileService.Snapshot())
}

// Reset handles POST requests to discard the current payment record and
// restore the full balance, enabling a fresh submission cycle.
//
// Endpoint: POST /api/payment/reset
// Response: 204 No Content
// Error: 401 Unauthorized if no session is installed
// Error: 409 Conflict if a submission is in flight
// Error: 500 Internal Server Error if clearing the slot fails
func (h *PaymentHandler) Reset(w http.ResponseWriter, _ *http.Request) {
	if err := h.reconcileService.Reset(); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNoSession):
			response.RespondError(w, http.StatusUnauthorized, apperrors.ErrNoSession.Error(), "")
		case errors.Is(err, apperrors.ErrSubmissionInFlight):
			response.RespondError(w, http.StatusConflict, apperrors.ErrSubmissionInFlight.Error(), "")
		default:
			response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToLoadState.Error(), err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// Receipt handles GET requests for the printable receipt of the current
// payment. Only a successful payment earns one.
//
// Endpoint: GET /api/payment/receipt
// Response: 200 OK with Receipt
// Error: 401 Unauthorized if no session is installed
// Error: 404 Not Found if no payment record is held
// Error: 409 Conflict if the payment is not successful yet
func (h *PaymentHandler) Receipt(w http.ResponseWriter, _ *http.Request) {
	receipt, err := h.reconcileService.Receipt()
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNoSession):
			response.RespondError(w, http.StatusUnauthorized, apperrors.ErrNoSession.Error(), "")
		case errors.Is(err, apperrors.ErrNoCurrentPayment):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrNoCurrentPayment.Error(), "")
		case errors.Is(err, apperrors.ErrReceiptNotReady):
			response.RespondError(w, http.StatusConflict, apperrors.ErrReceiptNotReady.Error(), "")
		default:
			response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToLoadState.Error(), err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, receipt)
}
