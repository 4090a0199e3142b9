package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
)

// FakeBackend is an httptest server standing in for the rental
// management backend. It serves the rental, submission, history, and
// payment-by-ID endpoints and counts requests per endpoint so tests can
// assert that validation failures never reach the network.
type FakeBackend struct {
	Server *httptest.Server

	mu             sync.Mutex
	rental         *model.RentalAgreement
	rentalAsList   bool
	payments       map[string]model.PaymentRecord
	history        []model.PaymentRecord
	submitResponse *model.PaymentRecord
	rejectStatus   int
	rejectMessage  string
	failPolls      bool
	counts         map[string]int
}

// NewFakeBackend starts a fake backend; it is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	f := &FakeBackend{
		payments: make(map[string]model.PaymentRecord),
		counts:   make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)

	return f
}

// URL returns the base URL tests pass to backend.NewClient.
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// WithRental configures the rental returned for the tenant, served as a
// single object.
func (f *FakeBackend) WithRental(rental model.RentalAgreement) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rental = &rental
	f.rentalAsList = false
	return f
}

// WithRentalList serves the rental wrapped in a one-element list, the
// backend's other response shape.
func (f *FakeBackend) WithRentalList(rental model.RentalAgreement) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rental = &rental
	f.rentalAsList = true
	return f
}

// WithPayment makes the record available to the payment-by-ID endpoint.
func (f *FakeBackend) WithPayment(record model.PaymentRecord) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[record.ID] = record
	return f
}

// WithHistory configures the payment history, most recent first.
func (f *FakeBackend) WithHistory(records ...model.PaymentRecord) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = records
	return f
}

// OnSubmit configures the record returned for payment submissions.
func (f *FakeBackend) OnSubmit(record model.PaymentRecord) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitResponse = &record
	f.rejectStatus = 0
	return f
}

// RejectSubmissions makes submissions fail with the given status and
// message.
func (f *FakeBackend) RejectSubmissions(status int, message string) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectStatus = status
	f.rejectMessage = message
	return f
}

// FailPolls makes the payment-by-ID endpoint return 500.
func (f *FakeBackend) FailPolls(fail bool) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPolls = fail
	return f
}

// Calls returns how many requests hit the named endpoint: one of
// "rental", "submit", "history", "payment".
func (f *FakeBackend) Calls(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[endpoint]
}

func (f *FakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/rental/tenant/"):
		f.counts["rental"]++
		if f.rental == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if f.rentalAsList {
			writeJSON(w, http.StatusOK, []model.RentalAgreement{*f.rental})
			return
		}
		writeJSON(w, http.StatusOK, f.rental)

	case path == "/api/payment/add" && r.Method == http.MethodPost:
		f.counts["submit"]++
		if f.rejectStatus != 0 {
			writeJSON(w, f.rejectStatus, map[string]string{"error": f.rejectMessage})
			return
		}
		record := model.PaymentRecord{}
		if f.submitResponse != nil {
			record = *f.submitResponse
		}
		writeJSON(w, http.StatusCreated, map[string]model.PaymentRecord{"payment": record})

	case path == "/api/payment/my":
		f.counts["history"]++
		writeJSON(w, http.StatusOK, map[string][]model.PaymentRecord{"payments": f.history})

	case strings.HasPrefix(path, "/api/payment/"):
		f.counts["payment"]++
		if f.failPolls {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		id := strings.TrimPrefix(path, "/api/payment/")
		record, ok := f.payments[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]model.PaymentRecord{"payment": record})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
