// package api implements the HTTP client for the video processing backend.
//
// Client wraps every REST endpoint the terminal client consumes. Responses
// decode into internal/models types; non-2xx responses surface as
// [StatusError] values that unwrap to the sentinel errors in internal/shared,
// so callers branch with errors.Is rather than status codes.
package api
