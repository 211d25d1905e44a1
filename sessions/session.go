package sessions

import (
	"time"

	"github.com/jrsteele09/go-bank-backoffice/users"
	"golang.org/x/oauth2"
)

// Session is one authenticated operator. A Session is never modified once
// published: login and refresh replace it with a new value.
type Session struct {
	Token *oauth2.Token // AccessToken, TokenType, RefreshToken, Expiry
	User  *users.User   // Always set, with username and role
}

// Expired reports whether the access token expiry has passed.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.Token == nil || s.Token.Expiry.IsZero() {
		return true
	}
	return !now.Before(s.Token.Expiry)
}

// Snapshot is one state of the session stream. Session is nil when nobody
// is signed in. Versions only ever increase.
type Snapshot struct {
	Version uint64
	Session *Session
}

func (s Snapshot) Authenticated() bool {
	return s.Session != nil
}

// User returns the signed in user, or nil.
func (s Snapshot) User() *users.User {
	if s.Session == nil {
		return nil
	}
	return s.Session.User
}
