package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-identity-server/identity"
)

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	Device      string `json:"device,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Device   string `json:"device,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type revokeRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type oauthCallbackRequest struct {
	Code   string `json:"code"`
	State  string `json:"state"`
	Device string `json:"device,omitempty"`
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		session, err := s.identity.Register(r.Context(), identity.RegisterParams{
			Email:       req.Email,
			DisplayName: req.DisplayName,
			Password:    req.Password,
			Device:      req.Device,
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		session, err := s.identity.Login(r.Context(), req.Email, req.Password, req.Device)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		session, err := s.identity.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func (s *Server) RevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req revokeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := s.identity.Logout(r.Context(), req.RefreshToken); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) RevokeAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.identity.LogoutAll(r.Context(), userIDFromContext(r.Context())); err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) OAuthURLHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := s.identity.OAuthBegin(r.Context(), r.URL.Query().Get("redirect"))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	}
}

func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req oauthCallbackRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		session, err := s.identity.OAuthCallback(r.Context(), req.Code, req.State, req.Device)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func (s *Server) SessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := s.identity.Sessions(r.Context(), userIDFromContext(r.Context()))
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

// writeServiceError maps the identity error taxonomy to HTTP status codes.
// The response body repeats the taxonomy's fixed wording, one message per
// category, so no handler can leak a more specific cause.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, identity.ErrInvalidRequest.Error())
	case errors.Is(err, identity.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, identity.ErrUnauthorized.Error())
	case errors.Is(err, identity.ErrConflict):
		writeError(w, http.StatusConflict, identity.ErrConflict.Error())
	case errors.Is(err, identity.ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, identity.ErrUpstreamUnavailable.Error())
	default:
		writeError(w, http.StatusInternalServerError, identity.ErrInternal.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, identity.ErrInvalidRequest.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
