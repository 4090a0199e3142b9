package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/kariuki-dev/tenant-payment-agent/internal/api/response"
	"github.com/kariuki-dev/tenant-payment-agent/internal/apperrors"
	"github.com/kariuki-dev/tenant-payment-agent/internal/service"
)

// RentalHandler handles HTTP requests for the tenant's rental snapshot.
// It serves as the HTTP layer adapter, delegating to the rentalService.
type RentalHandler struct {
	rentalService *service.RentalService
}

// NewRentalHandler creates a new RentalHandler with the provided service dependency.
func NewRentalHandler(rentalService *service.RentalService) *RentalHandler {
	return &RentalHandler{
		rentalService: rentalService,
	}
}

// Rental handles GET requests to refresh and return the tenant's active rental.
// On transport failure the last known snapshot is served when one exists.
//
// Endpoint: GET /api/rental
// Response: 200 OK with RentalAgreement
// Error: 401 Unauthorized if no session is installed
// Error: 404 Not Found if the tenant has no active rental
// Error: 500 Internal Server Error if loading fails with no prior snapshot
func (h *RentalHandler) Rental(w http.ResponseWriter, r *http.Request) {
	rental, err := h.rentalService.Load(r.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrRentalNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrRentalNotFound.Error(), "")
			return
		}
		// stale-but-present beats an error page
		if rental != nil {
			response.RespondJSON(w, http.StatusOK, rental)
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToLoadRental.Error(), err.Error())
		return
	}
	if rental == nil {
		response.RespondError(w, http.StatusUnauthorized, apperrors.ErrNoSession.Error(), "")
		return
	}

	response.RespondJSON(w, http.StatusOK, rental)
}

// Summary handles GET requests for the dashboard summary derived from
// the cached rental snapshot.
//
// Endpoint: GET /api/rental/summary
// Response: 200 OK with RentalSummary
// Error: 404 Not Found if no rental has been loaded
func (h *RentalHandler) Summary(w http.ResponseWriter, _ *http.Request) {
	summary, err := h.rentalService.Summary(time.Now())
	if err != nil {
		response.RespondError(w, http.StatusNotFound, apperrors.ErrNoRental.Error(), "")
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}
