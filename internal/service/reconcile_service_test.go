package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/kariuki-dev/tenant-payment-agent/internal/api/request"
	"github.com/kariuki-dev/tenant-payment-agent/internal/apperrors"
	"github.com/kariuki-dev/tenant-payment-agent/internal/backend"
	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
	"github.com/kariuki-dev/tenant-payment-agent/internal/repository"
	"github.com/kariuki-dev/tenant-payment-agent/internal/service"
	"github.com/kariuki-dev/tenant-payment-agent/internal/session"
	"github.com/kariuki-dev/tenant-payment-agent/internal/testutil"
	"github.com/kariuki-dev/tenant-payment-agent/internal/validation"
)

// engineFixture wires a reconciliation engine against a fake backend
// with an installed session and a loaded 12000/month rental.
type engineFixture struct {
	db       *sql.DB
	fake     *testutil.FakeBackend
	sessions session.Store
	sess     model.Session
	rental   model.RentalAgreement
	rentals  *service.RentalService
	slot     *repository.PaymentSlotRepository
	engine   *service.ReconcileService
}

func setupEngine(t *testing.T) *engineFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	fake := testutil.NewFakeBackend(t)
	sessions := testutil.NewTestSessionStore(t, db)
	sess := testutil.InstallTestSession(t, sessions)

	rental := testutil.NewRental().
		WithTenant(sess.TenantID).
		WithMonthlyAmount(12000).
		Build()
	fake.WithRental(rental)

	client := backend.NewClient(fake.URL())
	rentals := service.NewRentalService(client, sessions)
	if _, err := rentals.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load rental: %v", err)
	}

	slot := repository.NewPaymentSlotRepository(db)
	engine := service.NewReconcileService(client, slot, rentals, sessions, time.Minute)
	engine.Start(context.Background())
	t.Cleanup(engine.Close)

	return &engineFixture{
		db:       db,
		fake:     fake,
		sessions: sessions,
		sess:     sess,
		rental:   rental,
		rentals:  rentals,
		slot:     slot,
		engine:   engine,
	}
}

// switchTenant installs a different tenant session with its own rental
// and runs the same teardown-and-reseed chain the session handler
// drives in production.
func (f *engineFixture) switchTenant(t *testing.T, monthlyAmount float64) model.Session {
	t.Helper()

	next := model.Session{
		TenantID: testutil.MakeID(),
		Name:     "Next Tenant",
		Token:    "token-" + testutil.MakeID(),
	}
	if err := f.sessions.Set(next); err != nil {
		t.Fatalf("Failed to install next session: %v", err)
	}
	f.fake.WithRental(testutil.NewRental().
		WithTenant(next.TenantID).
		WithMonthlyAmount(monthlyAmount).
		Build())

	f.rentals.Evict()
	if _, err := f.rentals.Load(context.Background()); err != nil {
		t.Fatalf("Failed to reload rental: %v", err)
	}
	f.engine.HandleSessionChange()

	return next
}

// submitPending runs a cash submission that the fake backend answers
// with a pending record carrying the given balance.
func (f *engineFixture) submitPending(t *testing.T, amount, balance float64) model.PaymentRecord {
	t.Helper()

	pending := testutil.NewPaymentRecord().
		WithTenant(f.sess.TenantID).
		WithRental(f.rental.ID).
		WithAmount(amount).
		WithStatus(model.PaymentPending).
		WithBalance(balance).
		Build()
	f.fake.OnSubmit(pending)

	record, err := f.engine.Submit(context.Background(), request.SubmitPaymentRequest{
		Method: "cash",
		Amount: amount,
		Month:  "2026-09",
	})
	if err != nil {
		t.Fatalf("Submit() returned unexpected error: %v", err)
	}

	return record
}

// TestReconcileService_Submit tests the submission channel end to end.
//
// WHY: Submission is the only channel allowed to introduce a new payment
// ID, and its failure modes (validation, rejection) must leave the
// engine untouched.
func TestReconcileService_Submit(t *testing.T) {
	t.Run("accepted submission seeds state and mirrors the slot", func(t *testing.T) {
		f := setupEngine(t)

		record := f.submitPending(t, 5000, 7000)

		state := f.engine.Snapshot()
		if state.Current == nil || state.Current.ID != record.ID {
			t.Fatalf("Expected current record %s, got %+v", record.ID, state.Current)
		}
		if state.Current.Status != model.PaymentPending {
			t.Errorf("Expected pending status, got %s", state.Current.Status)
		}
		if state.RemainingBalance != 7000 {
			t.Errorf("Expected remaining balance 7000, got %.2f", state.RemainingBalance)
		}

		testutil.AssertRowCount(t, f.db, "payment_slot", 1)

		stored, err := f.slot.Get(f.sess.TenantID)
		if err != nil {
			t.Fatalf("Slot read failed: %v", err)
		}
		if stored == nil || stored.ID != record.ID {
			t.Errorf("Slot not mirrored: got %+v", stored)
		}
	})

	t.Run("validation failure performs no network call", func(t *testing.T) {
		f := setupEngine(t)

		_, err := f.engine.Submit(context.Background(), request.SubmitPaymentRequest{
			Method: "cash",
			Amount: 20000, // exceeds the 12000 balance
		})

		var validationErr *validation.Error
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected validation error, got %v", err)
		}
		if validationErr.Fields["amount"] == "" {
			t.Errorf("Expected amount field error, got %v", validationErr.Fields)
		}
		if calls := f.fake.Calls("submit"); calls != 0 {
			t.Errorf("Expected no submission request, backend saw %d", calls)
		}
	})

	t.Run("mpesa submission requires a phone number", func(t *testing.T) {
		f := setupEngine(t)

		_, err := f.engine.Submit(context.Background(), request.SubmitPaymentRequest{
			Method: "mpesa",
			Amount: 5000,
		})

		var validationErr *validation.Error
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected validation error, got %v", err)
		}
		if validationErr.Fields["phoneNumber"] == "" {
			t.Errorf("Expected phoneNumber field error, got %v", validationErr.Fields)
		}
	})

	t.Run("backend rejection surfaces the message verbatim and mutates nothing", func(t *testing.T) {
		f := setupEngine(t)
		f.fake.RejectSubmissions(400, "insufficient rental")

		_, err := f.engine.Submit(context.Background(), request.SubmitPaymentRequest{
			Method: "cash",
			Amount: 5000,
		})

		var rejection *backend.RejectionError
		if !errors.As(err, &rejection) {
			t.Fatalf("Expected rejection error, got %v", err)
		}
		if rejection.Message != "insufficient rental" {
			t.Errorf("Expected backend message verbatim, got %q", rejection.Message)
		}

		state := f.engine.Snapshot()
		if state.Current != nil {
			t.Errorf("Expected no current record after rejection, got %+v", state.Current)
		}
		if state.RemainingBalance != 12000 {
			t.Errorf("Expected balance untouched at 12000, got %.2f", state.RemainingBalance)
		}
		testutil.AssertRowCount(t, f.db, "payment_slot", 0)
	})
}

// TestReconcileService_AcceptanceRules tests the merge of push and poll
// updates against the held record.
//
// WHY: The producers are unordered; the acceptance rules are the only
// thing keeping a late pending frame from downgrading a successful
// payment or an unrelated tenant's payment from hijacking state.
func TestReconcileService_AcceptanceRules(t *testing.T) {
	t.Run("push seeds state when no record is held", func(t *testing.T) {
		f := setupEngine(t)

		pushed := testutil.NewPaymentRecord().
			WithTenant(f.sess.TenantID).
			WithStatus(model.PaymentSuccessful).
			WithBalance(7000).
			Build()
		f.engine.HandlePushRecord(pushed)

		state := f.engine.Snapshot()
		if state.Current == nil || state.Current.ID != pushed.ID {
			t.Fatalf("Expected pushed record to seed state, got %+v", state.Current)
		}
		if state.RemainingBalance != 7000 {
			t.Errorf("Expected balance 7000, got %.2f", state.RemainingBalance)
		}
	})

	t.Run("push approval advances a pending submission", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)

		approved := record
		approved.Status = model.PaymentSuccessful
		f.engine.HandlePushRecord(approved)

		state := f.engine.Snapshot()
		if state.Current.Status != model.PaymentSuccessful {
			t.Errorf("Expected successful status, got %s", state.Current.Status)
		}
	})

	t.Run("stale pending update never downgrades a successful payment", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)

		approved := record
		approved.Status = model.PaymentSuccessful
		f.engine.HandlePushRecord(approved)

		// late frame from before the approval
		stale := record
		stale.Status = model.PaymentPending
		f.engine.HandlePushRecord(stale)

		state := f.engine.Snapshot()
		if state.Current.Status != model.PaymentSuccessful {
			t.Errorf("Stale update downgraded status to %s", state.Current.Status)
		}

		stored, err := f.slot.Get(f.sess.TenantID)
		if err != nil {
			t.Fatalf("Slot read failed: %v", err)
		}
		if stored.Status != model.PaymentSuccessful {
			t.Errorf("Slot diverged from engine: %s", stored.Status)
		}
	})

	t.Run("push update for an unknown payment ID is discarded", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)

		stray := testutil.NewPaymentRecord().
			WithTenant(f.sess.TenantID).
			WithStatus(model.PaymentSuccessful).
			WithBalance(0).
			Build()
		f.engine.HandlePushRecord(stray)

		state := f.engine.Snapshot()
		if state.Current.ID != record.ID {
			t.Errorf("Unknown payment replaced the current record: %s", state.Current.ID)
		}
		if state.RemainingBalance != 7000 {
			t.Errorf("Unknown payment moved the balance: %.2f", state.RemainingBalance)
		}
	})

	t.Run("re-delivery of the same terminal update is harmless", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)

		approved := record
		approved.Status = model.PaymentSuccessful
		f.engine.HandlePushRecord(approved)
		f.engine.HandlePushRecord(approved)

		state := f.engine.Snapshot()
		if state.Current.Status != model.PaymentSuccessful {
			t.Errorf("Expected successful status, got %s", state.Current.Status)
		}
		testutil.AssertRowCount(t, f.db, "payment_slot", 1)
	})

	t.Run("frame without a tenant ID still mirrors to the session slot", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)

		// gateways omit tenantId on some frames; the mirror must land
		// under the installed session regardless
		approved := record
		approved.Status = model.PaymentSuccessful
		approved.TenantID = ""
		f.engine.HandlePushRecord(approved)

		stored, err := f.slot.Get(f.sess.TenantID)
		if err != nil {
			t.Fatalf("Slot read failed: %v", err)
		}
		if stored == nil || stored.Status != model.PaymentSuccessful {
			t.Errorf("Slot diverged from engine: %+v", stored)
		}
		testutil.AssertRowCount(t, f.db, "payment_slot", 1)
	})

	t.Run("frame for another tenant is discarded", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)

		foreign := record
		foreign.Status = model.PaymentSuccessful
		foreign.TenantID = testutil.MakeID()
		f.engine.HandlePushRecord(foreign)

		state := f.engine.Snapshot()
		if state.Current.Status != model.PaymentPending {
			t.Errorf("Foreign tenant's frame was accepted: %s", state.Current.Status)
		}
	})

	t.Run("update without a balance leaves the balance unchanged", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)

		approved := record
		approved.Status = model.PaymentSuccessful
		approved.Balance = nil
		f.engine.HandlePushRecord(approved)

		state := f.engine.Snapshot()
		if state.RemainingBalance != 7000 {
			t.Errorf("Expected balance preserved at 7000, got %.2f", state.RemainingBalance)
		}
	})
}

// TestReconcileService_Poll tests the poll fallback.
//
// WHY: When the push channel is down the poll is the only path to a
// terminal status; its failures must stay silent but eventually flip the
// status-unknown affordance.
func TestReconcileService_Poll(t *testing.T) {
	t.Run("poll advances the record to terminal", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)

		approved := record
		approved.Status = model.PaymentSuccessful
		f.fake.WithPayment(approved)

		f.engine.PollTick()

		state := f.engine.Snapshot()
		if state.Current.Status != model.PaymentSuccessful {
			t.Errorf("Expected successful after poll, got %s", state.Current.Status)
		}
	})

	t.Run("poll is a no-op once the record is terminal", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)

		approved := record
		approved.Status = model.PaymentSuccessful
		f.engine.HandlePushRecord(approved)

		before := f.fake.Calls("payment")
		f.engine.PollTick()
		if f.fake.Calls("payment") != before {
			t.Error("Poll hit the backend for a terminal record")
		}
	})

	t.Run("consecutive poll failures with push down report status unknown", func(t *testing.T) {
		f := setupEngine(t)
		f.submitPending(t, 5000, 7000)
		f.fake.FailPolls(true)
		f.engine.SetPushConnected(false)

		for i := 0; i < 5; i++ {
			f.engine.PollTick()
		}

		if !f.engine.Snapshot().StatusUnknown {
			t.Error("Expected status unknown after 5 failed polls with push down")
		}

		// a live push channel suppresses the affordance
		f.engine.SetPushConnected(true)
		if f.engine.Snapshot().StatusUnknown {
			t.Error("Status unknown should clear while push is connected")
		}

		// one good poll resets the failure count
		f.engine.SetPushConnected(false)
		f.fake.FailPolls(false)
		f.engine.PollTick()
		if f.engine.Snapshot().StatusUnknown {
			t.Error("Status unknown should clear after a successful poll")
		}
	})
}

// TestReconcileService_Hydration tests state recovery at startup.
func TestReconcileService_Hydration(t *testing.T) {
	t.Run("hydrates from the persisted slot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		fake := testutil.NewFakeBackend(t)
		sessions := testutil.NewTestSessionStore(t, db)
		sess := testutil.InstallTestSession(t, sessions)

		slot := repository.NewPaymentSlotRepository(db)
		persisted := testutil.NewPaymentRecord().
			WithTenant(sess.TenantID).
			WithStatus(model.PaymentPending).
			WithBalance(7000).
			Build()
		if err := slot.Put(sess.TenantID, persisted); err != nil {
			t.Fatalf("Slot write failed: %v", err)
		}

		client := backend.NewClient(fake.URL())
		rentals := service.NewRentalService(client, sessions)
		engine := service.NewReconcileService(client, slot, rentals, sessions, time.Minute)
		engine.Start(context.Background())
		t.Cleanup(engine.Close)

		state := engine.Snapshot()
		if state.Current == nil || state.Current.ID != persisted.ID {
			t.Fatalf("Expected hydration from slot, got %+v", state.Current)
		}
		if state.RemainingBalance != 7000 {
			t.Errorf("Expected balance 7000 from slot record, got %.2f", state.RemainingBalance)
		}
		if fake.Calls("history") != 0 {
			t.Error("Slot hydration should not consult the backend history")
		}
	})

	t.Run("falls back to backend history when the slot is empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		fake := testutil.NewFakeBackend(t)
		sessions := testutil.NewTestSessionStore(t, db)
		sess := testutil.InstallTestSession(t, sessions)

		latest := testutil.NewPaymentRecord().
			WithTenant(sess.TenantID).
			WithStatus(model.PaymentSuccessful).
			WithBalance(0).
			Build()
		fake.WithHistory(latest)

		client := backend.NewClient(fake.URL())
		rentals := service.NewRentalService(client, sessions)
		slot := repository.NewPaymentSlotRepository(db)
		engine := service.NewReconcileService(client, slot, rentals, sessions, time.Minute)
		engine.Start(context.Background())
		t.Cleanup(engine.Close)

		state := engine.Snapshot()
		if state.Current == nil || state.Current.ID != latest.ID {
			t.Fatalf("Expected hydration from history, got %+v", state.Current)
		}
	})
}

// TestReconcileService_Reset tests the fresh-cycle reset.
func TestReconcileService_Reset(t *testing.T) {
	t.Run("reset clears the record and restores the full balance", func(t *testing.T) {
		f := setupEngine(t)
		f.submitPending(t, 5000, 7000)

		if err := f.engine.Reset(); err != nil {
			t.Fatalf("Reset() returned unexpected error: %v", err)
		}

		state := f.engine.Snapshot()
		if state.Current != nil {
			t.Errorf("Expected no current record after reset, got %+v", state.Current)
		}
		if state.RemainingBalance != 12000 {
			t.Errorf("Expected full balance 12000, got %.2f", state.RemainingBalance)
		}
		testutil.AssertRowCount(t, f.db, "payment_slot", 0)
	})

	t.Run("reset forgets the poll failure streak", func(t *testing.T) {
		f := setupEngine(t)
		f.submitPending(t, 5000, 7000)
		f.fake.FailPolls(true)
		f.engine.SetPushConnected(false)

		for i := 0; i < 5; i++ {
			f.engine.PollTick()
		}
		if !f.engine.Snapshot().StatusUnknown {
			t.Fatal("Expected status unknown before reset")
		}

		if err := f.engine.Reset(); err != nil {
			t.Fatalf("Reset() returned unexpected error: %v", err)
		}

		if f.engine.Snapshot().StatusUnknown {
			t.Error("Status unknown survived a reset with no payment in flight")
		}
	})

	t.Run("reset allows a fresh submission", func(t *testing.T) {
		f := setupEngine(t)
		first := f.submitPending(t, 5000, 7000)

		if err := f.engine.Reset(); err != nil {
			t.Fatalf("Reset() returned unexpected error: %v", err)
		}

		second := f.submitPending(t, 12000, 0)
		if second.ID == first.ID {
			t.Error("Expected a new payment ID after reset")
		}

		state := f.engine.Snapshot()
		if state.Current.ID != second.ID {
			t.Errorf("Expected new record current, got %s", state.Current.ID)
		}
	})
}

// TestReconcileService_Teardown tests that a closed engine mutates
// nothing.
//
// WHY: Updates racing teardown must not leak into the persisted slot or
// half-update in-memory state.
func TestReconcileService_Teardown(t *testing.T) {
	t.Run("updates after close are dropped completely", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)

		f.engine.Close()

		approved := record
		approved.Status = model.PaymentSuccessful
		approved.Balance = new(float64)
		f.engine.HandlePushRecord(approved)

		state := f.engine.Snapshot()
		if state.Current.Status != model.PaymentPending {
			t.Errorf("Closed engine accepted an update: %s", state.Current.Status)
		}
		if state.RemainingBalance != 7000 {
			t.Errorf("Closed engine moved the balance: %.2f", state.RemainingBalance)
		}

		stored, err := f.slot.Get(f.sess.TenantID)
		if err != nil {
			t.Fatalf("Slot read failed: %v", err)
		}
		if stored.Status != model.PaymentPending {
			t.Errorf("Closed engine wrote to the slot: %s", stored.Status)
		}
	})

	t.Run("submit after close is refused", func(t *testing.T) {
		f := setupEngine(t)
		f.engine.Close()

		_, err := f.engine.Submit(context.Background(), request.SubmitPaymentRequest{
			Method: "cash",
			Amount: 5000,
		})
		if !errors.Is(err, apperrors.ErrEngineStopped) {
			t.Errorf("Expected ErrEngineStopped, got %v", err)
		}
	})
}

// TestReconcileService_SessionChange tests the tenant-identity change
// teardown.
//
// WHY: Installing a different tenant's session must behave like a
// scoped shutdown for the previous tenant: its record, poll entry, and
// failure streak all go, and nothing scoped to it may leak into the new
// tenant's state afterwards.
func TestReconcileService_SessionChange(t *testing.T) {
	t.Run("new tenant starts with no record and their own balance", func(t *testing.T) {
		f := setupEngine(t)
		f.submitPending(t, 5000, 7000)

		f.switchTenant(t, 9000)

		state := f.engine.Snapshot()
		if state.Current != nil {
			t.Errorf("Previous tenant's record leaked: %+v", state.Current)
		}
		if state.RemainingBalance != 9000 {
			t.Errorf("Expected new tenant's balance 9000, got %.2f", state.RemainingBalance)
		}
	})

	t.Run("poll stops fetching the previous tenant's payment", func(t *testing.T) {
		f := setupEngine(t)
		f.submitPending(t, 5000, 7000)

		f.switchTenant(t, 9000)

		before := f.fake.Calls("payment")
		f.engine.PollTick()
		if f.fake.Calls("payment") != before {
			t.Error("Poll still fetched the previous tenant's payment")
		}
	})

	t.Run("late frame for the previous tenant is discarded", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)
		next := f.switchTenant(t, 9000)

		stale := record
		stale.Status = model.PaymentSuccessful
		f.engine.HandlePushRecord(stale)

		state := f.engine.Snapshot()
		if state.Current != nil {
			t.Errorf("Previous tenant's frame seeded state: %+v", state.Current)
		}
		stored, err := f.slot.Get(next.TenantID)
		if err != nil {
			t.Fatalf("Slot read failed: %v", err)
		}
		if stored != nil {
			t.Errorf("Previous tenant's frame reached the new tenant's slot: %+v", stored)
		}
	})

	t.Run("push seeds the new tenant's payment after the change", func(t *testing.T) {
		f := setupEngine(t)
		f.submitPending(t, 5000, 7000)
		next := f.switchTenant(t, 9000)

		pushed := testutil.NewPaymentRecord().
			WithTenant(next.TenantID).
			WithStatus(model.PaymentPending).
			WithBalance(4000).
			Build()
		f.engine.HandlePushRecord(pushed)

		state := f.engine.Snapshot()
		if state.Current == nil || state.Current.ID != pushed.ID {
			t.Fatalf("New tenant's payment was not accepted: %+v", state.Current)
		}
		stored, err := f.slot.Get(next.TenantID)
		if err != nil {
			t.Fatalf("Slot read failed: %v", err)
		}
		if stored == nil || stored.ID != pushed.ID {
			t.Errorf("New tenant's slot not mirrored: %+v", stored)
		}
	})

	t.Run("hydrates the new tenant's persisted record", func(t *testing.T) {
		f := setupEngine(t)
		f.submitPending(t, 5000, 7000)

		next := model.Session{
			TenantID: testutil.MakeID(),
			Name:     "Next Tenant",
			Token:    "token-" + testutil.MakeID(),
		}
		persisted := testutil.NewPaymentRecord().
			WithTenant(next.TenantID).
			WithStatus(model.PaymentPending).
			WithBalance(3000).
			Build()
		if err := f.slot.Put(next.TenantID, persisted); err != nil {
			t.Fatalf("Slot write failed: %v", err)
		}
		if err := f.sessions.Set(next); err != nil {
			t.Fatalf("Failed to install next session: %v", err)
		}
		f.rentals.Evict()
		f.engine.HandleSessionChange()

		state := f.engine.Snapshot()
		if state.Current == nil || state.Current.ID != persisted.ID {
			t.Fatalf("Expected hydration from the new tenant's slot, got %+v", state.Current)
		}
		if state.RemainingBalance != 3000 {
			t.Errorf("Expected balance 3000 from the persisted record, got %.2f", state.RemainingBalance)
		}
	})

	t.Run("clearing the session drops all tenant state", func(t *testing.T) {
		f := setupEngine(t)
		record := f.submitPending(t, 5000, 7000)

		if err := f.sessions.Clear(); err != nil {
			t.Fatalf("Failed to clear session: %v", err)
		}
		f.rentals.Evict()
		f.engine.HandleSessionChange()

		state := f.engine.Snapshot()
		if state.Current != nil {
			t.Errorf("Record survived the session clear: %+v", state.Current)
		}

		// with no tenant installed nothing may be accepted
		stale := record
		stale.Status = model.PaymentSuccessful
		f.engine.HandlePushRecord(stale)
		if f.engine.Snapshot().Current != nil {
			t.Error("Frame accepted with no session installed")
		}
	})

	t.Run("failure streak does not follow the new tenant", func(t *testing.T) {
		f := setupEngine(t)
		f.submitPending(t, 5000, 7000)
		f.fake.FailPolls(true)
		f.engine.SetPushConnected(false)
		for i := 0; i < 5; i++ {
			f.engine.PollTick()
		}
		if !f.engine.Snapshot().StatusUnknown {
			t.Fatal("Expected status unknown before the change")
		}

		f.fake.FailPolls(false)
		f.switchTenant(t, 9000)

		if f.engine.Snapshot().StatusUnknown {
			t.Error("Previous tenant's failure streak leaked across the change")
		}
	})
}

// TestReconcileService_Scenario walks the full happy path: load, submit,
// poll to terminal.
func TestReconcileService_Scenario(t *testing.T) {
	f := setupEngine(t)

	// 12000 rental, 5000 cash submission leaves 7000 pending
	record := f.submitPending(t, 5000, 7000)

	state := f.engine.Snapshot()
	if state.Current.Status != model.PaymentPending || state.RemainingBalance != 7000 {
		t.Fatalf("Unexpected state after submit: %+v", state)
	}

	// backend approves; poll picks it up
	approved := record
	approved.Status = model.PaymentSuccessful
	f.fake.WithPayment(approved)
	f.engine.PollTick()

	state = f.engine.Snapshot()
	if state.Current.Status != model.PaymentSuccessful {
		t.Fatalf("Expected successful after poll, got %s", state.Current.Status)
	}
	if state.RemainingBalance != 7000 {
		t.Errorf("Expected balance 7000, got %.2f", state.RemainingBalance)
	}

	// terminal record: polling stops hitting the backend
	before := f.fake.Calls("payment")
	f.engine.PollTick()
	if f.fake.Calls("payment") != before {
		t.Error("Poll continued after terminal status")
	}
}
