package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"vidx/internal/api"
	"vidx/internal/shared"
)

// readPassword prompts for a password without echoing when stdin is a
// terminal, and falls back to a plain line read otherwise (tests, pipes).
func (r *Runner) readPassword(prompt string) (string, error) {
	r.writePlain("%s", prompt)

	if f, ok := r.input.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		r.writePlain("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// password resolves the password flag, prompting when it is absent.
func (r *Runner) password(cmd *cli.Command, prompt string) (string, error) {
	if p := cmd.String("password"); p != "" {
		return p, nil
	}
	return r.readPassword(prompt)
}

// AuthLogin signs in and persists the session token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password, err := r.password(cmd, "Password: ")
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", email)

	user, err := r.session.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, shared.ErrAuthRejected) {
			return fmt.Errorf("sign in rejected: %w", err)
		}
		return err
	}

	r.writePlain("✓ Signed in as %s\n", user.Email)
	if !user.EmailVerified {
		r.writePlain("Email not verified. Run 'vidx auth resend' if the email never arrived.\n")
	}
	return nil
}

// AuthRegister creates an account and opens a session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	name := cmd.String("name")
	password, err := r.password(cmd, "Password: ")
	if err != nil {
		return err
	}

	r.logger.Info("registering account", "email", email)

	user, err := r.session.Register(ctx, email, password, name)
	if err != nil {
		return err
	}

	r.writePlain("✓ Account created for %s\n", user.Email)
	r.writePlain("Check your inbox for a verification email, then run 'vidx auth verify <token>'.\n")
	return nil
}

// AuthLogout ends the session. Local state clears even when the backend
// call fails.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(ctx); err != nil {
		r.logger.Warn("backend logout failed", "error", err)
		return r.writePlain("✓ Signed out locally (backend unreachable)\n")
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus restores and prints the current session.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.session.Restore(ctx)

	user := r.session.User()
	if user == nil {
		return r.writePlain("✗ Not signed in\n")
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("✓ Signed in as %s (%s)\n", user.Name, user.Email)
	if user.EmailVerified {
		r.writePlain("Email: ✓ verified\n")
	} else {
		r.writePlain("Email: ✗ not verified\n")
	}
	r.writePlain("Default style: %s\n", user.Preferences.DefaultStyle)
	return nil
}

// AuthVerify redeems an email verification token.
func (r *Runner) AuthVerify(ctx context.Context, cmd *cli.Command) error {
	token := cmd.StringArg("token")

	user, err := r.session.VerifyEmail(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidToken) {
			return fmt.Errorf("%w (request a new one with 'vidx auth resend')", err)
		}
		return err
	}

	return r.writePlain("✓ Email verified for %s\n", user.Email)
}

// AuthResend asks the backend to re-send the verification email.
func (r *Runner) AuthResend(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.ResendVerification(ctx); err != nil {
		var se *api.StatusError
		if errors.As(err, &se) && errors.Is(err, shared.ErrRateLimited) && se.RetryAfter > 0 {
			return fmt.Errorf("%w: try again in %s", shared.ErrRateLimited, se.RetryAfter)
		}
		return err
	}
	return r.writePlain("✓ Verification email sent\n")
}

// AuthResetRequest requests a password reset email.
func (r *Runner) AuthResetRequest(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	if err := r.session.RequestPasswordReset(ctx, email); err != nil {
		return err
	}
	return r.writePlain("✓ Reset email sent to %s if the account exists\n", email)
}

// AuthReset sets a new password using a reset token.
func (r *Runner) AuthReset(ctx context.Context, cmd *cli.Command) error {
	token := cmd.StringArg("token")
	password, err := r.password(cmd, "New password: ")
	if err != nil {
		return err
	}

	if err := r.session.ResetPassword(ctx, token, password); err != nil {
		return err
	}
	return r.writePlain("✓ Password updated, sign in with 'vidx auth login'\n")
}

// AuthPrefs updates processing preferences. Unset flags keep the current
// value; the sub-object is replaced wholesale on the backend.
func (r *Runner) AuthPrefs(ctx context.Context, cmd *cli.Command) error {
	r.session.Restore(ctx)

	user := r.session.User()
	if user == nil {
		return shared.ErrNotAuthenticated
	}

	prefs := user.Preferences
	if cmd.IsSet("theme") {
		prefs.Theme = cmd.String("theme")
	}
	if cmd.IsSet("style") {
		prefs.DefaultStyle = cmd.String("style")
	}
	if cmd.IsSet("strength") {
		prefs.DefaultStrength = cmd.Float("strength")
	}
	if cmd.IsSet("motion") {
		prefs.EnableMotionAnalysis = cmd.Bool("motion")
	}
	if cmd.IsSet("continuity") {
		prefs.EnableContinuityAnalysis = cmd.Bool("continuity")
	}

	if err := r.session.UpdatePreferences(ctx, prefs); err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	r.logger.Info("preferences updated")
	return r.writePlain("✓ Preferences saved\n")
}
