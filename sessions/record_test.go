package sessions_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-webadmin/internal/config"
	"github.com/jrsteele09/go-webadmin/sessions"
	"github.com/stretchr/testify/require"
)

var adminRoles = config.NewRoleSet("admin", "superuser")

func signToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestRecord_IsLoggedInIgnoresValidity(t *testing.T) {
	for _, valid := range []bool{true, false} {
		record := sessions.Record{AccessToken: "opaque", IsValid: valid}
		require.True(t, record.IsLoggedIn())
	}
}

func TestRecord_EmptyAccessTokenIsNeitherLoggedInNorAdmin(t *testing.T) {
	records := []sessions.Record{
		{},
		{RefreshToken: "R", IsValid: true},
		{RefreshToken: "R", Scope: "admin"},
		{BaseURL: "https://mail.example.org", IsValid: false},
	}
	for _, record := range records {
		require.False(t, record.IsLoggedIn())
		require.False(t, record.IsAdmin(adminRoles))
	}
}

func TestRecord_IsAdmin(t *testing.T) {
	adminToken := signToken(t, jwtlib.MapClaims{"sub": "u1", "roles": []string{"user", "admin"}})
	userToken := signToken(t, jwtlib.MapClaims{"sub": "u2", "roles": []string{"user"}})
	scopeToken := signToken(t, jwtlib.MapClaims{"sub": "u3", "scope": "openid superuser"})

	testCases := []struct {
		name   string
		record sessions.Record
		want   bool
	}{
		{"jwt roles claim", sessions.Record{AccessToken: adminToken}, true},
		{"jwt roles claim while stale", sessions.Record{AccessToken: adminToken, IsValid: false}, true},
		{"jwt without admin role", sessions.Record{AccessToken: userToken, IsValid: true}, false},
		{"jwt scope claim", sessions.Record{AccessToken: scopeToken}, true},
		{"opaque token with granted scope", sessions.Record{AccessToken: "opaque", Scope: "openid admin"}, true},
		{"opaque token without scope", sessions.Record{AccessToken: "opaque"}, false},
		{"garbage token", sessions.Record{AccessToken: "a.b.c"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.record.IsAdmin(adminRoles))
		})
	}
}

func TestRecord_NeedsRefresh(t *testing.T) {
	require.True(t, sessions.Record{AccessToken: "A", RefreshToken: "R"}.NeedsRefresh())
	require.False(t, sessions.Record{AccessToken: "A", RefreshToken: "R", IsValid: true}.NeedsRefresh())
	require.False(t, sessions.Record{AccessToken: "A"}.NeedsRefresh())
}

func TestRecord_Stale(t *testing.T) {
	fresh := sessions.Record{AccessToken: "A", RefreshToken: "R", IsValid: true}
	stale := fresh.Stale()

	require.False(t, stale.IsValid)
	require.True(t, stale.NeedsRefresh())
	require.True(t, fresh.IsValid)
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwtlib.MapClaims{
		"sub":   "user-1",
		"role":  "superuser",
		"roles": []string{"user"},
		"scp":   []string{"mail"},
		"exp":   exp.Unix(),
	})

	claims := sessions.ParseClaims(token)
	require.Equal(t, "user-1", claims.Subject)
	require.ElementsMatch(t, []string{"user", "superuser"}, claims.Roles)
	require.Equal(t, []string{"mail"}, claims.Scopes)
	require.True(t, exp.Equal(claims.ExpiresAt))

	require.Equal(t, sessions.Claims{}, sessions.ParseClaims("not-a-jwt"))
}

func TestRecord_RedactedHidesCredentials(t *testing.T) {
	fields := sessions.Record{AccessToken: "secret-access", RefreshToken: "secret-refresh"}.Redacted()
	for _, v := range fields {
		require.NotEqual(t, "secret-access", v)
		require.NotEqual(t, "secret-refresh", v)
	}
	require.Equal(t, true, fields["logged_in"])
}
