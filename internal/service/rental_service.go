package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kariuki-dev/tenant-payment-agent/internal/apperrors"
	"github.com/kariuki-dev/tenant-payment-agent/internal/backend"
	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
	"github.com/kariuki-dev/tenant-payment-agent/internal/session"
)

// RentalService loads and caches the tenant's active rental snapshot.
// The snapshot establishes the balance baseline for the reconciliation
// engine and feeds the dashboard summary. On transport failure the
// prior snapshot is kept; a failed refresh never nulls it out.
type RentalService struct {
	backend  *backend.Client
	sessions session.Store

	mu      sync.RWMutex
	current *model.RentalAgreement
}

// NewRentalService creates a new RentalService with the provided dependencies.
func NewRentalService(backendClient *backend.Client, sessions session.Store) *RentalService {
	return &RentalService{
		backend:  backendClient,
		sessions: sessions,
	}
}

// Load fetches the tenant's active rental from the backend.
//
// Without an installed session this is a no-op returning (nil, nil).
// On backend "not found" it returns apperrors.ErrRentalNotFound.
// On transport failure it returns the prior snapshot together with a
// wrapped recoverable error; callers decide whether to surface it.
func (s *RentalService) Load(ctx context.Context) (*model.RentalAgreement, error) {
	sess, err := s.sessions.Get()
	if err != nil {
		if errors.Is(err, apperrors.ErrNoSession) {
			return nil, nil
		}
		return s.Current(), fmt.Errorf("%w: %w", apperrors.ErrFailedToLoadRental, err)
	}

	rental, err := s.backend.TenantRental(ctx, sess.Token, sess.TenantID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, apperrors.ErrRentalNotFound
		}
		return s.Current(), fmt.Errorf("%w: %w", apperrors.ErrFailedToLoadRental, err)
	}

	s.mu.Lock()
	s.current = &rental
	s.mu.Unlock()

	snapshot := rental
	return &snapshot, nil
}

// Evict drops the cached snapshot. Used on a tenant-identity change so
// the next Load starts clean instead of serving the previous tenant's
// rental.
func (s *RentalService) Evict() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Current returns a copy of the cached rental snapshot, or nil when no
// rental has been loaded yet.
func (s *RentalService) Current() *model.RentalAgreement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	snapshot := *s.current
	return &snapshot
}

// Summary derives the dashboard figures from the cached snapshot.
// Returns apperrors.ErrNoRental when no rental has been loaded.
func (s *RentalService) Summary(now time.Time) (model.RentalSummary, error) {
	rental := s.Current()
	if rental == nil {
		return model.RentalSummary{}, apperrors.ErrNoRental
	}

	summary := model.RentalSummary{
		TotalMonthlyRent: rental.MonthlyAmount,
		NextPayment:      rental.NextPayment(now),
	}
	if rental.RentalStatus == model.RentalActive {
		summary.ActiveRentals = 1
	}

	return summary, nil
}
