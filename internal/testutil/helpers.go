package testutil

import (
	"database/sql"
	"testing"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"

	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
	"github.com/kariuki-dev/tenant-payment-agent/internal/session"
)

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeFernetKey generates an encoded fernet key for session store tests.
func MakeFernetKey(t *testing.T) string {
	t.Helper()

	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("Failed to generate fernet key: %v", err)
	}
	return key.Encode()
}

// NewTestSessionStore creates an encrypting session store over the given
// test database.
func NewTestSessionStore(t *testing.T, db *sql.DB) *session.SQLStore {
	t.Helper()

	store, err := session.NewSQLStore(db, MakeFernetKey(t))
	if err != nil {
		t.Fatalf("Failed to create session store: %v", err)
	}
	return store
}

// InstallTestSession installs a session with generated identifiers and
// returns it.
func InstallTestSession(t *testing.T, store session.Store) model.Session {
	t.Helper()

	sess := model.Session{
		TenantID: MakeID(),
		Name:     "Test Tenant",
		Token:    "token-" + MakeID(),
	}
	if err := store.Set(sess); err != nil {
		t.Fatalf("Failed to install test session: %v", err)
	}
	return sess
}
