package sessions

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-webadmin/internal/config"
	"github.com/jrsteele09/go-webadmin/internal/utils"
)

// Claims are the authorization facts readable from a session without contacting the server.
// The signature is not verified: the server remains the authority on every call, the
// client only uses claims to decide what to show.
type Claims struct {
	Subject   string
	Roles     []string
	Scopes    []string
	ExpiresAt time.Time
}

// ParseClaims reads the claims of a JWT access token. Opaque or malformed tokens yield empty claims.
func ParseClaims(accessToken string) Claims {
	if strings.Count(accessToken, ".") != 2 {
		return Claims{}
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(accessToken, jwtlib.MapClaims{})
	if err != nil {
		return Claims{}
	}
	mapClaims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return Claims{}
	}

	claims := Claims{}
	claims.Subject, _ = mapClaims["sub"].(string)
	claims.Roles = utils.ToStringSlice(mapClaims["roles"])
	if role, ok := mapClaims["role"].(string); ok && role != "" {
		claims.Roles = append(claims.Roles, role)
	}
	claims.Scopes = utils.ToStringSlice(mapClaims["scope"])
	claims.Scopes = append(claims.Scopes, utils.ToStringSlice(mapClaims["scp"])...)
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims
}

// ClaimsOf merges the token claims with the scope granted alongside the token
func ClaimsOf(r Record) Claims {
	claims := ParseClaims(r.AccessToken)
	claims.Scopes = append(claims.Scopes, utils.ToStringSlice(r.Scope)...)
	return claims
}

// HasAnyRole reports whether any role or scope is in set
func (c Claims) HasAnyRole(set config.RoleSet) bool {
	return set.ContainsAny(c.Roles) || set.ContainsAny(c.Scopes)
}
