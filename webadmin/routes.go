package webadmin

import "github.com/jrsteele09/go-webadmin/guard"

const LoginPath = "/login"

// Routes is the navigation tree of the admin application
func Routes(isLoggedIn, isAdmin guard.Condition) []guard.Route {
	admin := func(path, view string) guard.Route {
		return guard.Protected(path, view, isAdmin, LoginPath)
	}
	user := func(path, view string) guard.Route {
		return guard.Protected(path, view, isLoggedIn, LoginPath)
	}

	return []guard.Route{
		guard.Protected("/manage", "manage-layout", isLoggedIn, LoginPath,
			admin("/directory/domains", "domain-list"),
			admin("/directory/domains/edit", "domain-create"),
			admin("/directory/domains/:id/view", "domain-display"),
			admin("/directory/:object", "principal-list"),
			admin("/directory/:object/:id?/edit", "principal-edit"),
			admin("/queue/messages", "queue-list"),
			admin("/queue/message/:id", "queue-manage"),
			admin("/queue/reports", "report-list"),
			admin("/queue/report/:id", "report-display"),
			admin("/reports/:object", "incoming-report-list"),
			admin("/reports/:object/:id", "incoming-report-display"),
			admin("/logs", "logs"),
			admin("/spam/train", "spam-train"),
			admin("/spam/test", "spam-test"),
			admin("/maintenance", "maintenance"),
		),
		guard.Protected("/settings", "settings-layout", guard.All(isLoggedIn, isAdmin), LoginPath,
			admin("/:object", "settings-list"),
			admin("/:object/:id?/edit", "settings-edit"),
			admin("/search", "settings-search"),
		),
		guard.Protected("/account", "account-layout", isLoggedIn, LoginPath,
			user("/crypto", "manage-crypto"),
			user("/password", "change-password"),
			user("/mfa", "manage-mfa"),
			user("/app-passwords", "app-passwords"),
			user("/app-passwords/edit", "app-password-create"),
		),
		guard.Public("/", "login"),
		guard.Public(LoginPath, "login"),
		guard.Public("/authorize/:type?", "authorize"),
		guard.CatchAll("/*any", "not-found"),
	}
}
