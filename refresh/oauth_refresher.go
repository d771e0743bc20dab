package refresh

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-webadmin/internal/config"
	"github.com/jrsteele09/go-webadmin/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// OAuthRefresher performs the refresh_token grant against the session's base URL
type OAuthRefresher struct {
	clientID     string
	tokenPath    string
	useDiscovery bool
	httpClient   *http.Client
	logger       zerolog.Logger

	mu        sync.RWMutex
	endpoints map[string]oauth2.Endpoint
}

var _ Refresher = (*OAuthRefresher)(nil)

type OAuthOption func(*OAuthRefresher)

func WithHTTPClient(client *http.Client) OAuthOption {
	return func(r *OAuthRefresher) {
		r.httpClient = client
	}
}

func WithOAuthLogger(logger zerolog.Logger) OAuthOption {
	return func(r *OAuthRefresher) {
		r.logger = logger
	}
}

func NewOAuthRefresher(cfg config.OAuthConfig, opts ...OAuthOption) *OAuthRefresher {
	r := &OAuthRefresher{
		clientID:     cfg.GetClientID(),
		tokenPath:    cfg.GetTokenPath(),
		useDiscovery: cfg.GetUseDiscovery(),
		logger:       log.Logger,
		endpoints:    make(map[string]oauth2.Endpoint),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *OAuthRefresher) Refresh(ctx context.Context, baseURL, refreshToken string) (Grant, error) {
	if refreshToken == "" {
		return Grant{}, errors.Wrapf(errors.ErrNoRefreshToken, "[OAuthRefresher Refresh]")
	}
	if r.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	}

	conf := &oauth2.Config{
		ClientID: r.clientID,
		Endpoint: r.endpoint(ctx, baseURL),
	}
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
			return Grant{}, errors.Wrapf(errors.ErrInvalidGrant, "[OAuthRefresher Refresh] %s", retrieveErr.Error())
		}
		return Grant{}, errors.Wrapf(errors.ErrRefreshFailed, "[OAuthRefresher Refresh] %s", err.Error())
	}

	grant := Grant{
		AccessToken: token.AccessToken,
		ExpiresIn:   expiresIn(token),
	}
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		rotated := token.RefreshToken
		grant.RefreshToken = &rotated
	}
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		grant.Scope = &scope
	}
	return grant, nil
}

// endpoint resolves the token endpoint for baseURL. Discovered endpoints are
// cached per base URL; a failed discovery falls back to the configured path.
func (r *OAuthRefresher) endpoint(ctx context.Context, baseURL string) oauth2.Endpoint {
	baseURL = strings.TrimRight(baseURL, "/")
	fallback := oauth2.Endpoint{
		TokenURL:  baseURL + r.tokenPath,
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if !r.useDiscovery {
		return fallback
	}

	r.mu.RLock()
	endpoint, ok := r.endpoints[baseURL]
	r.mu.RUnlock()
	if ok {
		return endpoint
	}

	if r.httpClient != nil {
		ctx = oidc.ClientContext(ctx, r.httpClient)
	}
	provider, err := oidc.NewProvider(ctx, baseURL)
	if err != nil {
		r.logger.Debug().Err(err).Str("base_url", baseURL).Msg("OpenID discovery failed, using configured token path")
		return fallback
	}
	endpoint = provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	r.mu.Lock()
	r.endpoints[baseURL] = endpoint
	r.mu.Unlock()
	return endpoint
}

func expiresIn(token *oauth2.Token) time.Duration {
	switch v := token.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Duration(n) * time.Second
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	if token.Expiry.IsZero() {
		return 0
	}
	if d := time.Until(token.Expiry).Round(time.Second); d > 0 {
		return d
	}
	return 0
}
