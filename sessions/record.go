package sessions

import (
	"github.com/jrsteele09/go-webadmin/internal/config"
)

// Record is the authentication state of the running admin application.
// There is exactly one per application instance, owned by the auth state controller.
type Record struct {
	SessionID    string `json:"session_id,omitempty"` // Lineage id, assigned at login and kept across refreshes
	BaseURL      string `json:"base_url"`             // Origin refresh calls are made against
	AccessToken  string `json:"access_token"`         // Bearer credential, empty means no session
	RefreshToken string `json:"refresh_token"`        // Renewal credential, empty means non-renewable
	Scope        string `json:"scope,omitempty"`      // Scope granted alongside the access token
	IsValid      bool   `json:"is_valid"`             // Staleness flag, advisory only
}

// IsEmpty reports whether the record holds no session at all
func (r Record) IsEmpty() bool {
	return r == Record{}
}

// IsLoggedIn depends only on the presence of an access token, never on IsValid
func (r Record) IsLoggedIn() bool {
	return r.AccessToken != ""
}

// NeedsRefresh is the sole trigger condition for a background refresh
func (r Record) NeedsRefresh() bool {
	return !r.IsValid && r.RefreshToken != ""
}

// IsAdmin reports whether the roles or scopes carried by the session intersect adminRoles
func (r Record) IsAdmin(adminRoles config.RoleSet) bool {
	if !r.IsLoggedIn() {
		return false
	}
	return ClaimsOf(r).HasAnyRole(adminRoles)
}

// Stale returns a copy marked as needing revalidation
func (r Record) Stale() Record {
	r.IsValid = false
	return r
}

// Redacted is safe to log
func (r Record) Redacted() map[string]any {
	return map[string]any{
		"session_id":  r.SessionID,
		"base_url":    r.BaseURL,
		"logged_in":   r.IsLoggedIn(),
		"renewable":   r.RefreshToken != "",
		"is_valid":    r.IsValid,
		"scope_count": len(ClaimsOf(r).Scopes),
	}
}
