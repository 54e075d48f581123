package shared

import "errors"

// Error kinds. Handlers map them to HTTP status codes.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a uniqueness check failed.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates an authenticated but disallowed caller.
	ErrForbidden = errors.New("forbidden")
)

// ClientError is an error whose message is safe to show to API clients.
type ClientError struct {
	Kind    error
	Message string
}

// NewClientError builds a ClientError of the given kind.
func NewClientError(kind error, message string) *ClientError {
	return &ClientError{Kind: kind, Message: message}
}

func (e *ClientError) Error() string {
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Kind
}
