package server

import (
	"net/http"

	"github.com/jrsteele09/go-bank-backoffice/bankapi"
	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
)

// LoginHandler signs the operator in. A second factor is signalled with
// 202 and completed on the verify-2fa route.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bankapi.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if _, err := s.console.Sessions.Login(r.Context(), req); err != nil {
			if apperrors.Is(err, apperrors.ErrTwoFactorRequired) {
				writeJSON(w, http.StatusAccepted, map[string]bool{"twoFactorRequired": true})
				return
			}
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.currentSession())
	}
}

func (s *Server) VerifyTwoFactorHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		if _, err := s.console.Sessions.VerifyTwoFactor(r.Context(), req.Code); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.currentSession())
	}
}

// LogoutHandler always succeeds and leaves the console on the login route.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.console.Sessions.Logout(r.Context())
		s.console.Router.Navigate(s.config.GetLoginRoute())
		writeJSON(w, http.StatusOK, s.currentSession())
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.console.Sessions.Refresh(r.Context()); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.currentSession())
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bankapi.ChangePasswordRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		text, err := s.console.Sessions.ChangePassword(r.Context(), req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.console.Throttle.Success(text, "")
		writeMessage(w, http.StatusOK, text)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bankapi.RegisterRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := s.console.Sessions.Register(r.Context(), req); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.console.Throttle.Success("Operator "+req.Username+" registered", "")
		writeMessage(w, http.StatusCreated, "Operator registered")
	}
}
