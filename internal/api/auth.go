// Auth endpoints. Paths match the backend's /api/auth surface exactly.
package api

import (
	"context"
	"net/http"

	"vidx/internal/models"
)

// AuthResponse is the payload of successful login and register calls.
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for a token and user profile.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates the server-side session. Local state is the session
// store's concern; this is a best-effort call.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Register creates a new account. The returned user starts unverified.
func (c *Client) Register(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password, "name": name}

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestPasswordReset asks the backend to mail a reset token. Stateless.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/request-password-reset", map[string]string{"email": email}, nil)
}

// ResetPassword redeems a reset token for a new password. Stateless.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", body, nil)
}

// VerifyEmail redeems a one-time verification token and returns the updated user.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify-email", map[string]string{"token": token}, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ResendVerification asks the backend to re-send the verification email.
// Requires a bearer token; 429 responses carry a cooldown hint.
func (c *Client) ResendVerification(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/resend-verification", nil, nil)
}

// UpdatePreferences replaces the user's preferences sub-object and returns
// the stored value.
func (c *Client) UpdatePreferences(ctx context.Context, prefs models.Preferences) (*models.Preferences, error) {
	var stored models.Preferences
	if err := c.do(ctx, http.MethodPut, "/api/auth/preferences", prefs, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Me fetches the profile for the current bearer token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
