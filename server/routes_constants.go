package server

// Route path constants
const (
	// Session lifecycle
	RouteAuthSession = "/auth/session"
	RouteAuthLogout  = "/auth/logout"
	RouteAuthRefresh = "/auth/refresh"

	// API Routes
	RouteAPISession   = "/api/session"
	RouteAPINavigate  = "/api/navigate"
	RouteAPILoginName = "/api/login-name"

	RouteMetrics = "/metrics"
)
