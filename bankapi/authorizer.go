package bankapi

import (
	"net/http"

	"golang.org/x/oauth2"
)

// Authorizer attaches the current session token to outgoing requests. It
// never performs I/O and never waits for a refresh: an expired token is
// sent as is and the 401 is handled by the Classifier.
type Authorizer struct {
	tokens oauth2.TokenSource
}

// NewAuthorizer reads tokens from src, normally the session manager.
func NewAuthorizer(src oauth2.TokenSource) *Authorizer {
	return &Authorizer{tokens: src}
}

func (a *Authorizer) Intercept(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "" {
			return next.RoundTrip(req)
		}

		tok, err := a.tokens.Token()
		if err != nil || tok == nil || tok.AccessToken == "" {
			return next.RoundTrip(req)
		}

		r := req.Clone(req.Context())
		tok.SetAuthHeader(r)
		if r.Header.Get("Content-Type") == "" {
			r.Header.Set("Content-Type", "application/json")
		}
		return next.RoundTrip(r)
	})
}
