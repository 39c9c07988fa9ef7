// package session owns the client's view of the authenticated user.
//
// The Store moves through Restoring → Unauthenticated | Unverified | Verified,
// and back to Unauthenticated on logout or token rejection. A live session
// always has its bearer token persisted in the credential store; restore
// failures silently resolve to logged-out rather than surfacing errors.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"vidx/internal/api"
	"vidx/internal/models"
	"vidx/internal/shared"
)

// State is the session lifecycle state.
type State int

const (
	// StateRestoring: a stored token may exist but identity is unconfirmed.
	StateRestoring State = iota
	StateUnauthenticated
	// StateUnverified: logged in, email not yet confirmed.
	StateUnverified
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateUnverified:
		return "authenticated (unverified)"
	case StateVerified:
		return "authenticated"
	default:
		return "unknown"
	}
}

// CredentialStore persists the bearer token across runs.
type CredentialStore interface {
	Save(*oauth2.Token) error
	Load() (*oauth2.Token, error)
	Clear() error
}

// NoCredentials is a CredentialStore that persists nothing. It stands in
// when durable storage is unavailable; sessions last for the process only.
type NoCredentials struct{}

func (NoCredentials) Save(*oauth2.Token) error     { return nil }
func (NoCredentials) Load() (*oauth2.Token, error) { return nil, nil }
func (NoCredentials) Clear() error                 { return nil }

// Store holds the current session and performs all auth operations.
type Store struct {
	api    *api.Client
	creds  CredentialStore
	logger *log.Logger

	mu    sync.RWMutex
	state State
	user  *models.User
	token *oauth2.Token
}

// NewStore creates a Store in the Restoring state. Call Restore once at
// startup to resolve it.
func NewStore(client *api.Client, creds CredentialStore, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{api: client, creds: creds, logger: logger, state: StateRestoring}
}

// Token implements [api.TokenProvider].
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil || s.token.AccessToken == "" {
		return "", false
	}
	return s.token.AccessToken, true
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the current user, or nil when logged out.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether a session is live (verified or not).
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateUnverified || s.state == StateVerified
}

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Name     string `validate:"required,max=100"`
}

type resetInput struct {
	Token       string `validate:"required"`
	NewPassword string `validate:"required,min=8"`
}

// Restore resolves the startup session from the stored token.
//
// It never returns an error: any failure discards the token and leaves the
// session logged out. Tokens whose expiry is already past are discarded
// without a network call.
func (s *Store) Restore(ctx context.Context) {
	tok, err := s.creds.Load()
	if err != nil {
		s.logger.Debug("credential load failed", "error", err)
		s.discard()
		return
	}
	if tok == nil || tok.AccessToken == "" {
		s.clearSession()
		return
	}
	if tokenExpired(tok, time.Now()) {
		s.logger.Debug("stored token expired, discarding")
		s.discard()
		return
	}

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	user, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Debug("session restore failed", "error", err)
		s.discard()
		return
	}

	s.setSession(user, tok)
}

// Login exchanges credentials for a session. On failure the session is
// unchanged and the backend's message carries through on the error.
func (s *Store) Login(ctx context.Context, email, password string) (*models.User, error) {
	if err := shared.Validate(loginInput{Email: email, Password: password}); err != nil {
		return nil, err
	}

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	tok := newToken(resp.Token)
	if err := s.creds.Save(tok); err != nil {
		return nil, fmt.Errorf("failed to persist session token: %w", err)
	}

	s.setSession(&resp.User, tok)
	return s.User(), nil
}

// Register creates an account and opens a session. The new session starts
// unverified until the email is confirmed.
func (s *Store) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if err := shared.Validate(registerInput{Email: email, Password: password, Name: name}); err != nil {
		return nil, err
	}

	resp, err := s.api.Register(ctx, email, password, name)
	if err != nil {
		return nil, err
	}

	tok := newToken(resp.Token)
	if err := s.creds.Save(tok); err != nil {
		return nil, fmt.Errorf("failed to persist session token: %w", err)
	}

	s.setSession(&resp.User, tok)
	return s.User(), nil
}

// Logout ends the session. The backend call is best-effort: local state is
// cleared no matter how it goes, so an unreachable backend can never wedge
// the client in a logged-in state. The network error, if any, is returned
// for the caller to surface.
func (s *Store) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	s.discard()
	if err != nil {
		s.logger.Warn("backend logout failed, local session cleared anyway", "error", err)
	}
	return err
}

// VerifyEmail redeems a one-time verification token. Invalid or expired
// tokens come back as [shared.ErrInvalidToken] so the UI can offer a resend.
func (s *Store) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: verification token", shared.ErrMissingArgument)
	}

	user, err := s.api.VerifyEmail(ctx, token)
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
			return nil, fmt.Errorf("%w: %s", shared.ErrInvalidToken, se.Message)
		}
		return nil, err
	}

	// Only a live session gets the updated identity; verification from a
	// logged-out state (e.g. a link opened elsewhere) does not mint one.
	s.mu.Lock()
	if s.user != nil {
		s.user = user
		s.state = stateFor(user)
	}
	s.mu.Unlock()

	return user, nil
}

// ResendVerification asks the backend to re-send the verification email.
// Rate-limit errors pass through verbatim so the UI can render the cooldown.
func (s *Store) ResendVerification(ctx context.Context) error {
	if !s.Authenticated() {
		return shared.ErrNotAuthenticated
	}
	return s.api.ResendVerification(ctx)
}

// RequestPasswordReset is stateless; no session mutation.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) error {
	if err := shared.Validate(loginInput{Email: email, Password: "-"}); err != nil {
		return fmt.Errorf("%w: email", shared.ErrValidation)
	}
	return s.api.RequestPasswordReset(ctx, email)
}

// ResetPassword is stateless; no session mutation.
func (s *Store) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := shared.Validate(resetInput{Token: token, NewPassword: newPassword}); err != nil {
		return err
	}
	return s.api.ResetPassword(ctx, token, newPassword)
}

// UpdatePreferences replaces the preferences sub-object only; the rest of
// the user is untouched.
func (s *Store) UpdatePreferences(ctx context.Context, prefs models.Preferences) error {
	if !s.Authenticated() {
		return shared.ErrNotAuthenticated
	}

	stored, err := s.api.UpdatePreferences(ctx, prefs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.user != nil {
		s.user.Preferences = *stored
	}
	s.mu.Unlock()

	return nil
}

// Expire drops the local session after the backend rejected the token.
// No network call is made; the token is removed from durable storage.
func (s *Store) Expire() {
	s.discard()
}

// setSession installs a live session.
func (s *Store) setSession(user *models.User, tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.token = tok
	s.state = stateFor(user)
}

// clearSession resets in-memory state to logged out.
func (s *Store) clearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = nil
	s.state = StateUnauthenticated
}

// discard clears both durable and in-memory session state.
func (s *Store) discard() {
	if err := s.creds.Clear(); err != nil {
		s.logger.Warn("failed to clear stored credentials", "error", err)
	}
	s.clearSession()
}

func stateFor(user *models.User) State {
	if user.EmailVerified {
		return StateVerified
	}
	return StateUnverified
}

// newToken wraps the backend's bearer token, pulling an expiry out of the
// JWT claims when the token happens to be one.
func newToken(raw string) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: raw}
	if exp := jwtExpiry(raw); exp != nil {
		tok.Expiry = *exp
	}
	return tok
}

// jwtExpiry returns the exp claim of a JWT-shaped token, or nil for opaque
// tokens. The signature is NOT verified; the client only uses the claim to
// skip a doomed whoami call, the backend remains the authority.
func jwtExpiry(raw string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	return &exp.Time
}

func tokenExpired(tok *oauth2.Token, now time.Time) bool {
	if !tok.Expiry.IsZero() && tok.Expiry.Before(now) {
		return true
	}
	if exp := jwtExpiry(tok.AccessToken); exp != nil && exp.Before(now) {
		return true
	}
	return false
}
