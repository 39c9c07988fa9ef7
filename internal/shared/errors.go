package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Client-side validation errors; these never reach the network
	ErrValidation = fmt.Errorf("validation failed")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAuthRejected     = fmt.Errorf("authentication rejected")
	ErrInvalidToken     = fmt.Errorf("invalid or expired token")

	// API and transport errors
	ErrAPIRequest  = fmt.Errorf("API request failed")
	ErrNetwork     = fmt.Errorf("network failure")
	ErrServer      = fmt.Errorf("server error")
	ErrNotFound    = fmt.Errorf("not found")
	ErrRateLimited = fmt.Errorf("rate limited")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
