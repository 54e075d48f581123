package auth

import "github.com/odyssey-erp/odyssey-auth/internal/shared"

var (
	ErrRegisterFieldsRequired = shared.NewClientError(shared.ErrValidation, "name, phone and password are required")
	ErrLoginFieldsRequired    = shared.NewClientError(shared.ErrValidation, "identifier and password are required")
	ErrInvalidPhone           = shared.NewClientError(shared.ErrValidation, "invalid phone number")
	ErrPasswordTooLong        = shared.NewClientError(shared.ErrValidation, "password too long")
	ErrInvalidBody            = shared.NewClientError(shared.ErrValidation, "invalid request body")
	ErrEmailTaken             = shared.NewClientError(shared.ErrDuplicate, "email already used")
	ErrPhoneTaken             = shared.NewClientError(shared.ErrDuplicate, "phone already used")
	ErrAccountNotFound        = shared.NewClientError(shared.ErrUnauthorized, "account not found")
	ErrInvalidCredentials     = shared.NewClientError(shared.ErrUnauthorized, "invalid credentials")
	ErrSessionInvalid         = shared.NewClientError(shared.ErrUnauthorized, "invalid session")
	ErrAccountSuspended       = shared.NewClientError(shared.ErrForbidden, "account suspended")
)
