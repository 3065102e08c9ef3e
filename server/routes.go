package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteIndex, ChainMiddleware(s.IndexHandler(), s.HTMLMiddleware()...))

	// AUTH
	s.RegisterRouteFunc("GET "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthStatus, ChainMiddleware(s.StatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthError, ChainMiddleware(s.ErrorPageHandler(), s.HTMLMiddleware()...))

	// Ticket proxy API
	s.RegisterRouteFunc("GET "+RouteAPITickets, ChainMiddleware(s.TicketListHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAPITicketByKey, ChainMiddleware(s.TicketGetHandler(), s.APIMiddleware()...))
}
