// Package session holds the tenant identity and bearer credential the
// agent operates with. The store is an explicit injected abstraction:
// components read the session through it rather than reaching into
// ambient global state.
package session

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/kariuki-dev/tenant-payment-agent/internal/apperrors"
	"github.com/kariuki-dev/tenant-payment-agent/internal/model"
)

// Store is the session abstraction injected into services.
type Store interface {
	Get() (model.Session, error)
	Set(sess model.Session) error
	Clear() error
}

// SQLStore persists the session in the durable sqlite store. The bearer
// token is fernet-encrypted at rest when a key is configured.
type SQLStore struct {
	db   *sql.DB
	keys []*fernet.Key
}

// NewSQLStore creates a session store over the given database.
// fernetKey is a base64-encoded fernet key; pass "" to store the token
// in the clear (development only).
func NewSQLStore(db *sql.DB, fernetKey string) (*SQLStore, error) {
	s := &SQLStore{db: db}

	if fernetKey != "" {
		keys, err := fernet.DecodeKeys(fernetKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decode fernet key: %w", err)
		}
		s.keys = keys
	}

	return s, nil
}

// Get returns the installed session, decrypting the bearer token.
// Returns apperrors.ErrNoSession when no session has been installed.
func (s *SQLStore) Get() (model.Session, error) {
	var sess model.Session
	var token string

	err := s.db.QueryRow(
		`SELECT tenant_id, COALESCE(name, ''), token FROM session WHERE id = 1`,
	).Scan(&sess.TenantID, &sess.Name, &token)
	if err == sql.ErrNoRows {
		return model.Session{}, apperrors.ErrNoSession
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to query session: %w", err)
	}

	if len(s.keys) > 0 {
		plain := fernet.VerifyAndDecrypt([]byte(token), 0, s.keys)
		if plain == nil {
			return model.Session{}, fmt.Errorf("failed to decrypt session token")
		}
		token = string(plain)
	}
	sess.Token = token

	return sess, nil
}

// Set installs or replaces the session.
func (s *SQLStore) Set(sess model.Session) error {
	token := sess.Token

	if len(s.keys) > 0 {
		enc, err := fernet.EncryptAndSign([]byte(token), s.keys[0])
		if err != nil {
			return fmt.Errorf("failed to encrypt session token: %w", err)
		}
		token = string(enc)
	}

	_, err := s.db.Exec(`
		INSERT INTO session (id, tenant_id, name, token, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			name = excluded.name,
			token = excluded.token,
			updated_at = excluded.updated_at`,
		sess.TenantID, sess.Name, token, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Clear removes the session.
func (s *SQLStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
