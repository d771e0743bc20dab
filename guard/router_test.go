package guard_test

import (
	"testing"

	"github.com/jrsteele09/go-webadmin/guard"
	"github.com/jrsteele09/go-webadmin/internal/errors"
	"github.com/stretchr/testify/require"
)

type flags struct {
	loggedIn bool
	admin    bool
	calls    int
}

func (f *flags) isLoggedIn() bool {
	f.calls++
	return f.loggedIn
}

func (f *flags) isAdmin() bool {
	f.calls++
	return f.admin
}

func newTestRouter(t *testing.T, f *flags) *guard.Router {
	t.Helper()
	router, err := guard.NewRouter(
		guard.Protected("/manage", "manage-layout", f.isLoggedIn, "/login",
			guard.Protected("/directory/domains", "domain-list", f.isAdmin, "/login"),
			guard.Protected("/directory/domains/edit", "domain-create", f.isAdmin, "/login"),
			guard.Protected("/directory/:object", "principal-list", f.isAdmin, "/login"),
			guard.Protected("/directory/:object/:id?/edit", "principal-edit", f.isAdmin, "/login"),
		),
		guard.Protected("/account", "account-layout", f.isLoggedIn, "/login",
			guard.Protected("/password", "change-password", f.isLoggedIn, "/login"),
		),
		guard.Public("/", "login"),
		guard.Public("/login", "login"),
		guard.Public("/authorize/:type?", "authorize"),
		guard.CatchAll("/*any", "not-found"),
	)
	require.NoError(t, err)
	return router
}

func TestRouter_Specificity(t *testing.T) {
	f := &flags{loggedIn: true, admin: true}
	router := newTestRouter(t, f)

	tests := []struct {
		path   string
		view   string
		route  string
		params map[string]string
	}{
		{"/manage/directory/domains", "domain-list", "/manage/directory/domains", nil},
		{"/manage/directory/domains/edit", "domain-create", "/manage/directory/domains/edit", nil},
		{"/manage/directory/accounts", "principal-list", "/manage/directory/:object", map[string]string{"object": "accounts"}},
		{"/manage/directory/accounts/edit", "principal-edit", "/manage/directory/:object/:id?/edit", map[string]string{"object": "accounts"}},
		{"/manage/directory/accounts/jane/edit", "principal-edit", "/manage/directory/:object/:id?/edit", map[string]string{"object": "accounts", "id": "jane"}},
		{"/authorize", "authorize", "/authorize/:type?", nil},
		{"/authorize/code", "authorize", "/authorize/:type?", map[string]string{"type": "code"}},
		{"/", "login", "/", nil},
		{"/login/", "login", "/login", nil},
		{"/login?next=/manage", "login", "/login", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := router.Resolve(tt.path)
			require.Equal(t, guard.Render, res.Kind)
			require.Equal(t, tt.view, res.View)
			require.Equal(t, tt.route, res.Route)
			require.Equal(t, tt.params, res.Params)
		})
	}
}

func TestRouter_Layouts(t *testing.T) {
	router := newTestRouter(t, &flags{loggedIn: true, admin: true})
	res := router.Resolve("/account/password")
	require.Equal(t, guard.Render, res.Kind)
	require.Equal(t, "change-password", res.View)
	require.Equal(t, []string{"account-layout"}, res.Layouts)
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t, &flags{loggedIn: true, admin: true})

	t.Run("catch all", func(t *testing.T) {
		res := router.Resolve("/nowhere/at/all")
		require.Equal(t, guard.NotFound, res.Kind)
		require.Equal(t, "not-found", res.View)
		require.Equal(t, map[string]string{"any": "nowhere/at/all"}, res.Params)
	})

	t.Run("layout without child", func(t *testing.T) {
		res := router.Resolve("/manage")
		require.Equal(t, guard.NotFound, res.Kind)
	})

	t.Run("no catch all", func(t *testing.T) {
		router, err := guard.NewRouter(guard.Public("/login", "login"))
		require.NoError(t, err)
		res := router.Resolve("/manage")
		require.Equal(t, guard.NotFound, res.Kind)
		require.Empty(t, res.View)
		require.Equal(t, "/manage", res.Path)
	})
}

func TestRouter_Conditions(t *testing.T) {
	t.Run("admin route without admin redirects", func(t *testing.T) {
		router := newTestRouter(t, &flags{loggedIn: true, admin: false})
		res := router.Resolve("/manage/directory/domains")
		require.Equal(t, guard.Redirect, res.Kind)
		require.Equal(t, "/login", res.Target)
	})

	t.Run("parent condition applies to children", func(t *testing.T) {
		router := newTestRouter(t, &flags{loggedIn: false, admin: true})
		res := router.Resolve("/manage/directory/domains")
		require.Equal(t, guard.Redirect, res.Kind)
		require.Equal(t, "/login", res.Target)
	})

	t.Run("first failing ancestor decides", func(t *testing.T) {
		router, err := guard.NewRouter(
			guard.Protected("/outer", "", func() bool { return false }, "/outer-denied",
				guard.Protected("/inner", "inner", func() bool { return false }, "/inner-denied"),
			),
		)
		require.NoError(t, err)
		res := router.Resolve("/outer/inner")
		require.Equal(t, "/outer-denied", res.Target)
	})

	t.Run("predicates are read at resolve time", func(t *testing.T) {
		f := &flags{loggedIn: true, admin: true}
		router := newTestRouter(t, f)
		require.Equal(t, guard.Render, router.Resolve("/manage/directory/domains").Kind)

		f.admin = false
		require.Equal(t, guard.Redirect, router.Resolve("/manage/directory/domains").Kind)

		f.admin = true
		calls := f.calls
		require.Equal(t, guard.Render, router.Resolve("/manage/directory/domains").Kind)
		require.Equal(t, calls+2, f.calls)
	})

	t.Run("public routes ignore session", func(t *testing.T) {
		router := newTestRouter(t, &flags{})
		require.Equal(t, guard.Render, router.Resolve("/login").Kind)
	})
}

func TestRouter_InvalidRoutes(t *testing.T) {
	tests := []struct {
		name  string
		route guard.Route
	}{
		{"wildcard not last", guard.Public("/*rest/edit", "x")},
		{"unnamed param", guard.Public("/users/:", "x")},
		{"protected without redirect", guard.Protected("/manage", "x", func() bool { return true }, "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := guard.NewRouter(tt.route)
			require.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestRouter_Patterns(t *testing.T) {
	router := newTestRouter(t, &flags{})
	require.Equal(t, []string{
		"/manage/directory/domains",
		"/manage/directory/domains/edit",
		"/manage/directory/:object",
		"/manage/directory/:object/:id?/edit",
		"/account/password",
		"/",
		"/login",
		"/authorize/:type?",
		"/*any",
	}, router.Patterns())
}

func TestAll(t *testing.T) {
	yes := func() bool { return true }
	no := func() bool { return false }

	require.True(t, guard.All()())
	require.True(t, guard.All(yes, nil, yes)())
	require.False(t, guard.All(yes, no)())

	called := false
	guard.All(no, func() bool { called = true; return true })()
	require.False(t, called)
}
