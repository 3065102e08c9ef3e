package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth routes
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"
	RouteAuthStatus   = "/auth/status"
	RouteAuthLogout   = "/auth/logout"
	RouteAuthError    = "/auth/error"

	// Ticket proxy API routes
	RouteAPITickets     = "/api/tickets"
	RouteAPITicketByKey = "/api/tickets/{key}"

	// Dashboard
	RouteIndex = "/"
)
