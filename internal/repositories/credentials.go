package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// CredentialRepository persists the session bearer token.
//
// Storage is a single row; Save replaces whatever token was there before.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a CredentialRepository with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Save stores the token, replacing any previous one.
func (r *CredentialRepository) Save(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("refusing to persist an empty token")
	}

	var expiresAt any
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry.UTC()
	}

	query := `
		INSERT INTO credentials (id, access_token, expires_at, saved_at) VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET access_token = excluded.access_token,
			expires_at = excluded.expires_at, saved_at = excluded.saved_at
	`

	if _, err := r.db.Exec(query, token.AccessToken, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}

// Load returns the stored token, or (nil, nil) when none is stored.
func (r *CredentialRepository) Load() (*oauth2.Token, error) {
	var (
		accessToken string
		expiresAt   sql.NullTime
	)

	err := r.db.QueryRow("SELECT access_token, expires_at FROM credentials WHERE id = 1").Scan(&accessToken, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	token := &oauth2.Token{AccessToken: accessToken}
	if expiresAt.Valid {
		token.Expiry = expiresAt.Time
	}

	return token, nil
}

// Clear removes the stored token. Clearing an empty store is not an error.
func (r *CredentialRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM credentials WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
