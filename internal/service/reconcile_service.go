package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/kariuki-dev/tenant-payment-agent/internal/api/request"
	"github.com/kariuki-dev/tenant-payment-agent/internal/apperrors"
	"github.com/kariuki-dev/tenant-payment-agent/internal/backend"
	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
	"github.com/kariuki-dev/tenant-payment-agent/internal/repository"
	"github.com/kariuki-dev/tenant-payment-agent/internal/session"
	"github.com/kariuki-dev/tenant-payment-agent/internal/validation"
)

// updateSource identifies which producer delivered a candidate record.
// Rule 2 of the acceptance rules treats submission and cache hydration
// differently from push and poll: only the former may introduce a new
// payment ID.
type updateSource int

const (
	sourceHydrate updateSource = iota
	sourceSubmit
	sourcePush
	sourcePoll
)

func (s updateSource) String() string {
	switch s {
	case sourceHydrate:
		return "hydrate"
	case sourceSubmit:
		return "submit"
	case sourcePush:
		return "push"
	case sourcePoll:
		return "poll"
	}
	return "unknown"
}

// candidate is one incoming payment record awaiting acceptance.
type candidate struct {
	source updateSource
	record model.PaymentRecord
}

// unknownAfterFailures is the number of consecutive poll failures, with
// the push channel also down, after which the snapshot reports the
// payment status as unknown.
const unknownAfterFailures = 5

// ReconcileService merges payment updates from cache hydration,
// submission responses, the push channel, and the poll fallback into one
// authoritative state. All mutation goes through apply, whose acceptance
// rules make the unordered producers safe without a global sequence
// number:
//
//  1. With no current record, any candidate seeds state.
//  2. A candidate with a different ID is accepted only from submission
//     or hydration; push/poll updates for unknown IDs are discarded.
//  3. A candidate for the current ID is accepted only if its status is
//     not lower in the ordering pending < successful.
//  4. Accepted candidates replace the record wholesale and are mirrored
//     to the persisted slot.
//  5. The remaining balance becomes the candidate's own balance when it
//     carries one, otherwise it is left unchanged.
type ReconcileService struct {
	backend  *backend.Client
	slot     *repository.PaymentSlotRepository
	rentals  *RentalService
	sessions session.Store

	pollInterval time.Duration
	cron         *cron.Cron
	pollEntry    cron.EntryID
	polling      bool

	mu               sync.Mutex
	tenantID         string
	current          *model.PaymentRecord
	remainingBalance float64
	inFlight         bool
	pushConnected    bool
	pollFailures     int
	stopped          bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewReconcileService creates a new ReconcileService with the provided dependencies.
func NewReconcileService(
	backendClient *backend.Client,
	slot *repository.PaymentSlotRepository,
	rentals *RentalService,
	sessions session.Store,
	pollInterval time.Duration,
) *ReconcileService {
	return &ReconcileService{
		backend:      backendClient,
		slot:         slot,
		rentals:      rentals,
		sessions:     sessions,
		pollInterval: pollInterval,
		cron:         cron.New(),
	}
}

// Start seeds the balance baseline, hydrates the current record, and
// starts the poll scheduler.
func (e *ReconcileService) Start(ctx context.Context) {
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.reseed()
	e.cron.Start()
}

// reseed captures the installed tenant identity, restores the balance
// baseline, and hydrates the current record for that tenant. Hydration
// prefers the persisted slot; when the slot is empty the backend's
// payment history is consulted, most recent first. Hydration transport
// failures are silent: the push and poll channels will converge on the
// truth. The captured tenant ID keys every slot read and write until
// the next session change.
func (e *ReconcileService) reseed() {
	var tenantID, token string
	if sess, err := e.sessions.Get(); err == nil {
		tenantID = sess.TenantID
		token = sess.Token
	}

	e.mu.Lock()
	e.tenantID = tenantID
	if rental := e.rentals.Current(); rental != nil {
		e.remainingBalance = rental.MonthlyAmount
	} else {
		e.remainingBalance = 0
	}
	e.mu.Unlock()

	if tenantID == "" {
		return
	}

	if rec, err := e.slot.Get(tenantID); err == nil && rec != nil {
		e.apply(candidate{source: sourceHydrate, record: *rec})
	} else {
		if err != nil {
			log.Printf("reconcile: slot read failed, falling back to history: %v", err)
		}
		if payments, err := e.backend.MyPayments(e.ctx, token); err == nil && len(payments) > 0 {
			e.apply(candidate{source: sourceHydrate, record: payments[0]})
		}
	}
}

// HandleSessionChange tears down all state scoped to the previous
// tenant identity and reseeds for the newly installed session, in one
// step: the poll entry is cancelled, the failure streak forgotten, and
// the held record dropped before any state for the new tenant is
// loaded. Called whenever the session is installed or cleared. A
// stopped engine ignores the change.
func (e *ReconcileService) HandleSessionChange() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopPollLocked()
	e.current = nil
	e.pollFailures = 0
	e.tenantID = ""
	e.mu.Unlock()

	e.reseed()
}

// Close tears the engine down: the poll scheduler is stopped and any
// update arriving afterwards is dropped. Safe to call once.
func (e *ReconcileService) Close() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}

	// cron.Stop returns a context that is done once running jobs finish
	<-e.cron.Stop().Done()
}

// Snapshot returns the current reconciliation state for the view layer.
func (e *ReconcileService) Snapshot() model.ReconcileState {
	e.mu.Lock()
	defer e.mu.Unlock()

	state := model.ReconcileState{
		RemainingBalance:   e.remainingBalance,
		SubmissionInFlight: e.inFlight,
		StatusUnknown:      e.pollFailures >= unknownAfterFailures && !e.pushConnected,
	}
	if e.current != nil {
		rec := *e.current
		state.Current = &rec
	}

	return state
}

// Submit validates and submits a new payment intent.
//
// Validation is local and fails fast with field-scoped errors before any
// network call. Submission is the one channel permitted to set the
// initial record for a new payment ID. On backend rejection the server
// message is returned verbatim and no state is mutated. Resubmission is
// refused while a request is outstanding; the backend remains the sole
// arbiter of duplicate prevention.
func (e *ReconcileService) Submit(ctx context.Context, draft request.SubmitPaymentRequest) (model.PaymentRecord, error) {
	sess, err := e.sessions.Get()
	if err != nil {
		return model.PaymentRecord{}, err
	}

	rental := e.rentals.Current()
	if rental == nil {
		return model.PaymentRecord{}, apperrors.ErrNoRental
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return model.PaymentRecord{}, apperrors.ErrEngineStopped
	}
	if e.inFlight {
		e.mu.Unlock()
		return model.PaymentRecord{}, apperrors.ErrSubmissionInFlight
	}
	if err := validation.ValidateSubmitPayment(draft, e.remainingBalance); err != nil {
		e.mu.Unlock()
		return model.PaymentRecord{}, err
	}
	e.inFlight = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inFlight = false
		e.mu.Unlock()
	}()

	submission := backend.SubmitPaymentRequest{
		RentalID: rental.ID,
		Amount:   draft.Amount,
		Method:   draft.Method,
		Month:    draft.Month,
	}
	if model.PaymentMethod(draft.Method).Electronic() {
		submission.PhoneNumber = draft.PhoneNumber
		submission.TransactionID = uuid.New().String()
	}

	record, err := e.backend.SubmitPayment(ctx, sess.Token, submission)
	if err != nil {
		var rejection *backend.RejectionError
		if errors.As(err, &rejection) {
			return model.PaymentRecord{}, rejection
		}
		return model.PaymentRecord{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToSubmitPayment, err)
	}

	e.apply(candidate{source: sourceSubmit, record: record})

	return record, nil
}

// Reset discards the current record, clears the persisted slot, and
// restores the remaining balance to the rental's full monthly amount,
// enabling a fresh submission cycle. Refused while a submission is in
// flight.
func (e *ReconcileService) Reset() error {
	if _, err := e.sessions.Get(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return apperrors.ErrEngineStopped
	}
	if e.inFlight {
		return apperrors.ErrSubmissionInFlight
	}

	if err := e.slot.Clear(e.tenantID); err != nil {
		return err
	}

	e.current = nil
	e.pollFailures = 0
	if rental := e.rentals.Current(); rental != nil {
		e.remainingBalance = rental.MonthlyAmount
	}
	e.stopPollLocked()

	return nil
}

// HandlePushRecord feeds a payment-approved record from the push channel
// into the acceptance rules.
func (e *ReconcileService) HandlePushRecord(record model.PaymentRecord) {
	e.apply(candidate{source: sourcePush, record: record})
}

// SetPushConnected records push channel availability; it only affects
// the status-unknown affordance, never correctness.
func (e *ReconcileService) SetPushConnected(connected bool) {
	e.mu.Lock()
	e.pushConnected = connected
	e.mu.Unlock()
}

// apply runs the acceptance rules against one candidate and reports
// whether it was accepted. It is the single mutation point: every
// producer funnels through here, and the lock serializes them.
func (e *ReconcileService) apply(c candidate) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return false
	}

	rec := c.record

	// without an installed session there is no tenant to reconcile
	// for, and a candidate scoped to another tenant is a leftover from
	// a previous identity; neither may cross over
	if e.tenantID == "" {
		log.Printf("reconcile: dropping %s update, no session installed", c.source)
		return false
	}
	if rec.TenantID != "" && rec.TenantID != e.tenantID {
		log.Printf("reconcile: dropping %s update for tenant %s, session tenant is %s",
			c.source, rec.TenantID, e.tenantID)
		return false
	}

	switch {
	case e.current == nil:
		// rule 1: seed unconditionally
	case rec.ID != e.current.ID:
		// rule 2: a new ID may only come from submission or hydration
		if c.source != sourceSubmit && c.source != sourceHydrate {
			log.Printf("reconcile: %v: %s update for payment %s (current %s)",
				apperrors.ErrUnknownPayment, c.source, rec.ID, e.current.ID)
			return false
		}
	default:
		// rule 3: status is monotonic non-decreasing
		if rec.Status.Before(e.current.Status) {
			log.Printf("reconcile: %v: %s reported %s for payment %s already %s",
				apperrors.ErrStaleUpdate, c.source, rec.Status, rec.ID, e.current.Status)
			return false
		}
	}

	// rule 4: wholesale replace, mirror to the persisted slot. The
	// mirror is keyed by the session tenant, not the record's own
	// field: frames omitting tenantId must still land in the slot
	// hydration and reset operate on.
	accepted := rec
	e.current = &accepted
	if err := e.slot.Put(e.tenantID, rec); err != nil {
		log.Printf("reconcile: failed to mirror accepted update to slot: %v", err)
	}

	// rule 5: balance follows the accepted candidate when it carries one
	if rec.Balance != nil {
		e.remainingBalance = *rec.Balance
	}

	e.syncPollLocked()

	return true
}

// syncPollLocked starts the poll fallback while the current record is
// non-terminal and stops it permanently once it is successful. A new
// submission starts a fresh cycle. Caller must hold e.mu.
func (e *ReconcileService) syncPollLocked() {
	nonTerminal := e.current != nil && !e.current.Status.Terminal()

	if nonTerminal && !e.polling {
		entry, err := e.cron.AddFunc(fmt.Sprintf("@every %s", e.pollInterval), e.pollTick)
		if err != nil {
			log.Printf("reconcile: failed to schedule poll: %v", err)
			return
		}
		e.pollEntry = entry
		e.polling = true
	}

	if !nonTerminal && e.polling {
		e.stopPollLocked()
	}
}

// stopPollLocked removes the poll entry. Caller must hold e.mu.
func (e *ReconcileService) stopPollLocked() {
	if e.polling {
		e.cron.Remove(e.pollEntry)
		e.polling = false
	}
}

// pollTick fetches the backend's view of the current payment. Failures
// are silent and retried on the next tick; a run of consecutive
// failures with the push channel down flips the status-unknown
// affordance. Candidates that fail the acceptance rules are dropped
// without being counted as errors.
func (e *ReconcileService) pollTick() {
	e.mu.Lock()
	if e.stopped || e.current == nil || e.current.Status.Terminal() {
		e.mu.Unlock()
		return
	}
	paymentID := e.current.ID
	e.mu.Unlock()

	sess, err := e.sessions.Get()
	if err != nil {
		e.notePollResult(err)
		return
	}

	ctx, cancel := context.WithTimeout(e.ctx, 10*time.Second)
	defer cancel()

	record, err := e.backend.Payment(ctx, sess.Token, paymentID)
	e.notePollResult(err)
	if err != nil {
		return
	}

	e.apply(candidate{source: sourcePoll, record: record})
}

func (e *ReconcileService) notePollResult(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		e.pollFailures++
		return
	}
	e.pollFailures = 0
}
