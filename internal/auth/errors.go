package auth

import "errors"

// Sentinel failures the handlers translate to HTTP statuses.
var (
	ErrUserNotFound          = errors.New("User not found")
	ErrInvalidPassword       = errors.New("Invalid password")
	ErrInvalidOrExpiredToken = errors.New("Invalid or expired reset token")
)

// ValidationError marks missing or malformed input; handlers map it
// to 400 with the message as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(msg string) error { return &ValidationError{Message: msg} }
