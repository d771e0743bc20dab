package errors

import (
	"errors"
	"fmt"
)

// Common error types for the web admin session controller
var (
	// Persistence errors
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("session store unavailable")
	ErrMalformedSession = errors.New("malformed session record")
	ErrSealedData       = errors.New("sealed session data could not be opened")

	// Refresh errors
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrRefreshFailed  = errors.New("token refresh failed")
	ErrInvalidGrant   = errors.New("invalid grant")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// General errors
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
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

// Join returns an error that wraps the given errors, ignoring nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}
