package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every component. Wrap these with context and test
// with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrAuthorization    = errors.New("authorization error")
	ErrNotFound         = errors.New("not found")
	ErrUpstreamProvider = errors.New("upstream provider error")
	ErrPersistence      = errors.New("persistence error")
)

// ErrEmptyPrompt is returned when a chat prompt has no content left after sanitization.
var ErrEmptyPrompt = fmt.Errorf("%w: prompt is empty", ErrValidation)

// ValidationError wraps a descriptive message with ErrValidation.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// AuthorizationError wraps a descriptive message with ErrAuthorization.
func AuthorizationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAuthorization, fmt.Sprintf(format, args...))
}

// NotFoundError wraps a descriptive message with ErrNotFound.
func NotFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// PersistenceError marks err as a data layer failure while keeping it in the chain.
func PersistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// UpstreamError marks err as a completion provider failure.
func UpstreamError(provider string, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, ErrUpstreamProvider, err)
}

// RequireUser fails with an authorization error when no user is attached to the call.
func RequireUser(userID string) error {
	if userID == "" {
		return AuthorizationError("user id is required")
	}
	return nil
}
