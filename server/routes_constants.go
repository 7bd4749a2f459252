package server

const (
	RouteRegister      = "/auth/register"
	RouteLogin         = "/auth/login"
	RouteRefresh       = "/auth/refresh"
	RouteRevoke        = "/auth/revoke"
	RouteRevokeAll     = "/auth/revoke-all"
	RouteOAuthURL      = "/auth/oauth/url"
	RouteOAuthCallback = "/auth/oauth/callback"
	RouteSessions      = "/auth/sessions"
)
