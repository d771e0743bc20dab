package server

func (s *Server) initRoutes() {
	// Session lifecycle
	s.RegisterRouteHandler("POST "+RouteAuthSession, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(s.RequireJSON)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPINavigate, ChainMiddleware(s.NavigateHandler(), s.APIMiddleware(s.RequireJSON)...))
	s.RegisterRouteHandler("GET "+RouteAPILoginName, ChainMiddleware(s.LoginNameHandler(), s.APIMiddleware()...))

	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics)
	}

	// Application views, resolved through the navigation guard
	s.RegisterRouteHandler("GET /", ChainMiddleware(s.ViewHandler(), s.HTMLMiddleWare(s.RequireAuthorizedView)...))
}
