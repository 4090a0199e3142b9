// Package backend is the HTTP client for the rental management backend.
// The backend is the sole authority on rentals and payment approval;
// this client only reads snapshots and submits payment intents.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
)

// ErrNotFound indicates that the requested resource does not exist on the backend.
var ErrNotFound = errors.New("backend resource not found")

// RejectionError is a backend-reported refusal of a payment submission.
// The message is surfaced to the view verbatim.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	return e.Message
}

// Client provides methods for calling the rental management backend.
// It wraps an HTTP client and attaches the tenant's bearer credential
// to every request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// TenantRental fetches the tenant's active rental.
// The backend returns either a single rental object or a list; when a
// list arrives the first element is taken. Returns ErrNotFound when the
// tenant has no rental.
func (c *Client) TenantRental(ctx context.Context, token, tenantID string) (model.RentalAgreement, error) {
	data, err := c.get(ctx, token, fmt.Sprintf("/api/rental/tenant/%s", tenantID))
	if err != nil {
		return model.RentalAgreement{}, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rentals []model.RentalAgreement
		if err := json.Unmarshal(trimmed, &rentals); err != nil {
			return model.RentalAgreement{}, fmt.Errorf("failed to decode rental list: %w", err)
		}
		if len(rentals) == 0 {
			return model.RentalAgreement{}, ErrNotFound
		}
		return rentals[0], nil
	}

	var rental model.RentalAgreement
	if err := json.Unmarshal(trimmed, &rental); err != nil {
		return model.RentalAgreement{}, fmt.Errorf("failed to decode rental: %w", err)
	}
	if rental.ID == "" {
		return model.RentalAgreement{}, ErrNotFound
	}

	return rental, nil
}

// SubmitPayment posts a new payment intent.
// A 4xx response is returned as a *RejectionError carrying the backend's
// message verbatim; transport and 5xx failures are wrapped errors.
func (c *Client) SubmitPayment(ctx context.Context, token string, payment SubmitPaymentRequest) (model.PaymentRecord, error) {
	body, err := json.Marshal(payment)
	if err != nil {
		return model.PaymentRecord{}, fmt.Errorf("failed to encode payment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/payment/add", bytes.NewReader(body))
	if err != nil {
		return model.PaymentRecord{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.PaymentRecord{}, fmt.Errorf("payment submission failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.PaymentRecord{}, fmt.Errorf("failed to read payment response: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var rejection errorEnvelope
		message := string(bytes.TrimSpace(data))
		if err := json.Unmarshal(data, &rejection); err == nil && rejection.text() != "" {
			message = rejection.text()
		}
		return model.PaymentRecord{}, &RejectionError{StatusCode: resp.StatusCode, Message: message}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.PaymentRecord{}, fmt.Errorf("payment submission returned status %d", resp.StatusCode)
	}

	var envelope paymentEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return model.PaymentRecord{}, fmt.Errorf("failed to decode payment response: %w", err)
	}

	return envelope.Payment, nil
}

// Payment fetches the current state of one payment by ID. Used by the
// poll fallback while a payment is non-terminal.
func (c *Client) Payment(ctx context.Context, token, paymentID string) (model.PaymentRecord, error) {
	data, err := c.get(ctx, token, fmt.Sprintf("/api/payment/%s", paymentID))
	if err != nil {
		return model.PaymentRecord{}, err
	}

	var envelope paymentEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return model.PaymentRecord{}, fmt.Errorf("failed to decode payment: %w", err)
	}

	return envelope.Payment, nil
}

// MyPayments fetches the tenant's payment history, most recent first.
// Used for cache hydration when no local slot exists.
func (c *Client) MyPayments(ctx context.Context, token string) ([]model.PaymentRecord, error) {
	data, err := c.get(ctx, token, "/api/payment/my")
	if err != nil {
		return nil, err
	}

	var envelope paymentsEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}

	return envelope.Payments, nil
}

// get is an internal helper that executes authenticated GET requests
// against the backend and returns the raw response body.
func (c *Client) get(ctx context.Context, token, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend returned status %d for %s", resp.StatusCode, path)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}

	return data, nil
}
