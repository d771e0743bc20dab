// Package refresh keeps the installed session fresh: it renews stale sessions
// through a Refresher and arms the expiry timer that marks them stale again.
package refresh

import (
	"context"
	"time"
)

// Grant is the result of a successful refresh call
type Grant struct {
	AccessToken string
	// RefreshToken is set when the server rotated the refresh token
	RefreshToken *string
	// Scope is set when the server reported the granted scope
	Scope     *string
	ExpiresIn time.Duration
}

// Refresher exchanges a refresh token for a new grant. Implementations must
// honour ctx; a timeout is an ordinary failure.
type Refresher interface {
	Refresh(ctx context.Context, baseURL, refreshToken string) (Grant, error)
}
