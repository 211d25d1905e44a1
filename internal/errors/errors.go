package errors

import (
	"errors"
	"fmt"
)

// Common error types for the back-office client
var (
	// Session errors
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNoRefreshToken     = errors.New("no refresh token")
	ErrTwoFactorRequired  = errors.New("two factor code required")
	ErrIncompleteIdentity = errors.New("authentication response is missing username or role")

	// Identity errors
	ErrUnknownRole = errors.New("unknown role")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")

	// Storage errors
	ErrKeyNotFound = errors.New("key not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
