package server

// Route path constants
const (
	RouteInvoke = "/invoke"
	RouteLogin  = "/login"
	RouteHealth = "/healthz"
)
