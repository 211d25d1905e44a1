package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/go-bank-backoffice/bankapi"
	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
	"github.com/jrsteele09/go-bank-backoffice/users"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// decodeJSON reads the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

// writeError maps session and Banking API errors to gateway responses.
// Banking API answers keep their status so the console can react the same
// way it would talking to the API directly.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *bankapi.APIError
	switch {
	case apperrors.As(err, &apiErr):
		message := apiErr.Message
		if message == "" {
			message = http.StatusText(apiErr.Status)
		}
		writeMessage(w, apiErr.Status, message)
	case apperrors.Is(err, apperrors.ErrInvalidRequest):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case apperrors.Is(err, apperrors.ErrNotAuthenticated), apperrors.Is(err, apperrors.ErrNoRefreshToken):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case apperrors.Is(err, apperrors.ErrUnknownRole), apperrors.Is(err, apperrors.ErrIncompleteIdentity):
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("banking API returned an unusable identity")
		writeMessage(w, http.StatusBadGateway, "The banking API returned an unusable identity")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeMessage(w, http.StatusGatewayTimeout, "The banking API did not answer in time")
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("banking API request failed")
		writeMessage(w, http.StatusBadGateway, "The banking API is unavailable")
	}
}

// sessionView is what the console learns about the session.
type sessionView struct {
	Authenticated bool        `json:"authenticated"`
	User          *users.User `json:"user,omitempty"`
	ExpiresAt     *time.Time  `json:"expiresAt,omitempty"`
	Location      string      `json:"location,omitempty"`
	Version       uint64      `json:"version"`
}

func (s *Server) currentSession() sessionView {
	snap := s.console.Sessions.Current()
	view := sessionView{
		Authenticated: s.console.Sessions.IsAuthenticated(),
		Location:      s.console.Router.Location(),
		Version:       snap.Version,
	}
	if snap.Session != nil {
		user := *snap.Session.User
		expiry := snap.Session.Token.Expiry
		view.User = &user
		view.ExpiresAt = &expiry
	}
	return view
}
