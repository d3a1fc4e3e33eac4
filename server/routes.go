package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.LoggingMiddleware))

	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.StandardMiddleware()...))

	// The redirect URI registered with the app client points here when running locally.
	s.RegisterRouteFunc("GET "+RouteInvoke, ChainMiddleware(s.InvokeHandler(), s.StandardMiddleware()...))
}
