package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
)

// PaymentSlotRepository provides data access methods for the single-slot
// payment cache. The slot holds the JSON-serialized last known payment
// record for a tenant; the reconciliation engine is its only writer.
type PaymentSlotRepository struct {
	db *sql.DB
}

// NewPaymentSlotRepository creates a new PaymentSlotRepository with the provided database connection.
func NewPaymentSlotRepository(db *sql.DB) *PaymentSlotRepository {
	return &PaymentSlotRepository{db: db}
}

// Get retrieves the cached payment record for the tenant.
// Returns (nil, nil) when the slot is empty.
func (r *PaymentSlotRepository) Get(tenantID string) (*model.PaymentRecord, error) {
	var raw string

	err := r.db.QueryRow(
		`SELECT record FROM payment_slot WHERE tenant_id = ?`, tenantID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment slot: %w", err)
	}

	var record model.PaymentRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to decode cached payment record: %w", err)
	}

	return &record, nil
}

// Put overwrites the slot with the given record.
func (r *PaymentSlotRepository) Put(tenantID string, record model.PaymentRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode payment record: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO payment_slot (tenant_id, record, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(tenant_id) DO UPDATE SET
			record = excluded.record,
			updated_at = excluded.updated_at`,
		tenantID, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to write payment slot: %w", err)
	}

	return nil
}

// Clear empties the slot for the tenant.
func (r *PaymentSlotRepository) Clear(tenantID string) error {
	if _, err := r.db.Exec(`DELETE FROM payment_slot WHERE tenant_id = ?`, tenantID); err != nil {
		return fmt.Errorf("failed to clear payment slot: %w", err)
	}
	return nil
}
