// Package server is the thin HTTP edge over the identity service. Handlers
// decode requests, call one orchestrator operation, and translate the error
// taxonomy to status codes; no business decisions live here.
package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-identity-server/identity"
	"github.com/jrsteele09/go-identity-server/internal/config"
)

type Server struct {
	env      string
	mux      *http.ServeMux
	config   config.Config
	identity *identity.Service
	log      zerolog.Logger
}

func New(cfg config.Config, identityService *identity.Service, log zerolog.Logger) *Server {
	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		identity: identityService,
		log:      log,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	api := s.APIMiddleware()

	s.mux.HandleFunc("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), api...))
	s.mux.HandleFunc("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), api...))
	s.mux.HandleFunc("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), api...))
	s.mux.HandleFunc("GET "+RouteOAuthURL, ChainMiddleware(s.OAuthURLHandler(), api...))
	s.mux.HandleFunc("POST "+RouteOAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), api...))

	authed := append(api, s.RequireAuth())
	s.mux.HandleFunc("POST "+RouteRevoke, ChainMiddleware(s.RevokeHandler(), authed...))
	s.mux.HandleFunc("POST "+RouteRevokeAll, ChainMiddleware(s.RevokeAllHandler(), authed...))
	s.mux.HandleFunc("GET "+RouteSessions, ChainMiddleware(s.SessionsHandler(), authed...))
}
