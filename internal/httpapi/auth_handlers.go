package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jaimenoain/ceeq/internal/auth"
	"github.com/jaimenoain/ceeq/internal/authroute"
	"github.com/jaimenoain/ceeq/internal/model"
)

type identityResponse struct {
	Token     string           `json:"token"`
	User      *model.User      `json:"user"`
	Workspace *model.Workspace `json:"workspace"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(w, "invalid JSON body", nil)
		return
	}

	id, err := s.auth.Register(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email_taken", "email already registered")
		case errors.Is(err, auth.ErrInvalidInput):
			writeValidationError(w, "workspace name, type, and email are required", nil)
		case errors.Is(err, auth.ErrPasswordTooShort):
			writeValidationError(w, "password must be at least 8 characters", nil)
		default:
			s.serviceError(w, err, "register")
		}
		return
	}
	writeJSON(w, http.StatusCreated, identityResponse{Token: id.Token, User: id.User, Workspace: id.Workspace})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(w, "invalid JSON body", nil)
		return
	}

	id, err := s.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		s.serviceError(w, err, "login")
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{Token: id.Token, User: id.User, Workspace: id.Workspace})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
		return
	}
	if err := s.auth.Logout(r.Context(), token); err != nil {
		s.serviceError(w, err, "logout")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// handleSession sits behind requireAuth, so the session is always set.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()))
}

// handleRouteCheck mirrors the client-side navigation guard so the
// frontend can ask where a path should resolve.
func (s *Server) handleRouteCheck(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeValidationError(w, "path query parameter is required", nil)
		return
	}

	sess := sessionFrom(r.Context())
	var wsType model.WorkspaceType
	if sess != nil {
		wsType = sess.WorkspaceType
	}

	decision := authroute.Decide(path, sess != nil, wsType)
	writeJSON(w, http.StatusOK, map[string]any{
		"allowed":  !decision.Redirected(),
		"redirect": decision.Redirect,
	})
}

// serviceError is the catch-all: log the detail, return a generic body.
func (s *Server) serviceError(w http.ResponseWriter, err error, op string) {
	zap.L().Error("request failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal", "something went wrong")
}
