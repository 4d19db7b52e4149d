package npmsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ============================================================================
// Session State Errors
// ============================================================================

var (
	// ErrAlreadyConnected is returned by Connect when the client already holds a session.
	ErrAlreadyConnected = errors.New("npmsdk: client is already connected")

	// ErrNotConnected is returned by any authenticated operation before Connect
	// succeeded, or after Disconnect.
	ErrNotConnected = errors.New("npmsdk: client is not connected")

	// ErrAdminRequired is returned client-side for admin-only operations when
	// the logged in user lacks the admin role and CheckRoles is enabled.
	ErrAdminRequired = errors.New("npmsdk: operation requires the admin role")
)

// ============================================================================
// Argument Errors
// ============================================================================

// MissingArgumentError reports a required argument that is absent or has an
// invalid shape (too short, out of range). It is always returned before any
// remote call is made.
type MissingArgumentError struct {
	// Field is the argument name, e.g. "domain", "port", "password"
	Field string

	// Reason is a human-readable explanation
	Reason string
}

// Error implements the error interface.
func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("npmsdk: missing argument %s: %s", e.Field, e.Reason)
}

// InvalidTypeError reports a value outside of a fixed enumerated set.
type InvalidTypeError struct {
	Field string
	Value string
	Valid []string
}

// Error implements the error interface.
func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf(
		"npmsdk: %q is not a valid %s type (valid types: %s)",
		e.Value, e.Field, strings.Join(e.Valid, ", "),
	)
}

// NotFoundError is returned when a lookup by domain or user identifier matched nothing.
type NotFoundError struct {
	// Kind is "proxy host" or "user"
	Kind string
	Key  string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("npmsdk: no %s found for %q", e.Kind, e.Key)
}

// ============================================================================
// Remote Errors
// ============================================================================

// AuthError is returned when the token request is rejected or the server
// could not be reached. No token is stored when it is returned.
type AuthError struct {
	// StatusCode is zero when the request never got a response
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("npmsdk: authentication failed: %s", e.Message)
	}
	return fmt.Sprintf("npmsdk: authentication failed (HTTP %d): %s", e.StatusCode, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// DomainInUseError is returned when a proxy host could not be created because
// another host already claims one of its domains.
type DomainInUseError struct {
	// Domain is the offending domain as reported by the server
	Domain  string
	Message string
}

// Error implements the error interface.
func (e *DomainInUseError) Error() string {
	return fmt.Sprintf("npmsdk: domain %s is already proxied", e.Domain)
}

// upstreamExplanation is attached to every UpstreamError.
const upstreamExplanation = "the proxy manager reported an internal error while provisioning the host; " +
	"this usually means the domain's DNS does not point at the proxy or certificate issuance is rate limited, " +
	"and the host may have been created without SSL"

// UpstreamError is returned when the server failed while provisioning a
// resource. The client does not roll back whatever the server did create.
type UpstreamError struct {
	StatusCode int

	// Message is the raw message from the server
	Message string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return "npmsdk: " + upstreamExplanation
}

// APIError is any other non-2xx response from the proxy manager.
type APIError struct {
	StatusCode int

	// Code is the error.code field of the envelope, when present
	Code int

	// Message is the normalized human-readable message
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("npmsdk: HTTP %d: %s", e.StatusCode, e.Message)
}

// ============================================================================
// Error Envelope Parsing
// ============================================================================

// parseErrorResponse turns a non-2xx response body into an *APIError.
//
// Server versions disagree on the envelope, so the message is probed in a
// fixed order: {"error":{"message":...}}, then {"message":...}, then
// {"error":"..."}, then the raw body, then the status text.
func parseErrorResponse(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil {
		var structured struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if len(envelope.Error) > 0 && json.Unmarshal(envelope.Error, &structured) == nil && structured.Message != "" {
			apiErr.Code = structured.Code
			apiErr.Message = structured.Message
			return apiErr
		}

		if envelope.Message != "" {
			apiErr.Message = envelope.Message
			return apiErr
		}

		var raw string
		if len(envelope.Error) > 0 && json.Unmarshal(envelope.Error, &raw) == nil && raw != "" {
			apiErr.Message = raw
			return apiErr
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Message = text
		return apiErr
	}

	apiErr.Message = http.StatusText(resp.StatusCode)
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return apiErr
}

// classifyCreateHostError maps the proxy-host creation failures the server is
// known to produce onto their dedicated error types.
func classifyCreateHostError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case strings.Contains(apiErr.Message, "is already in use"):
		domain := ""
		if fields := strings.Fields(apiErr.Message); len(fields) > 0 {
			domain = fields[0]
		}
		return &DomainInUseError{Domain: domain, Message: apiErr.Message}
	case apiErr.Message == "Internal Error":
		return &UpstreamError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	default:
		return err
	}
}
