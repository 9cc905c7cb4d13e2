package service

import (
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrPlaceOrder is the only failure a customer sees when checkout breaks
	// after validation passed.
	ErrPlaceOrder        = errors.New("failed to place order, please try again")
	ErrForbidden         = errors.New("admin session required")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPointsAward       = errors.New("status updated but awarding points failed")
	ErrInvalidLogin      = errors.New("invalid email or password")
)

// ValidationError carries a message meant to be shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is a ValidationError and returns its message.
func IsValidation(err error) (string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message, true
	}
	return "", false
}
