package config

import "time"

type OAuthConfig interface {
	GetClientID() string
	GetTokenPath() string
	GetUseDiscovery() bool
	GetRefreshTimeout() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// GetClientID is the public client the admin UI authenticates as
func (OAuth) GetClientID() string {
	return GetEnv("OAUTH_CLIENT_ID", "webadmin")
}

// GetTokenPath is appended to the session base URL when discovery is disabled
func (OAuth) GetTokenPath() string {
	return GetEnv("OAUTH_TOKEN_PATH", "/auth/token")
}

// GetUseDiscovery resolves the token endpoint through OpenID discovery on the base URL
func (OAuth) GetUseDiscovery() bool {
	return GetEnvBool("OAUTH_DISCOVERY", false)
}

func (OAuth) GetRefreshTimeout() time.Duration {
	return GetEnvDuration("REFRESH_TIMEOUT", 10*time.Second)
}
