package server

import (
	"net/http"
)

// RequireView guards an API route with the console route that shows its
// data, so the gateway applies the same auth and role guards as navigation.
// Anonymous callers get 401, callers without the role get 403.
func (s *Server) RequireView(view string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			d := s.console.Router.Check(view)
			if d.Allowed {
				next(w, r)
				return
			}

			status := http.StatusForbidden
			message := "Access denied"
			if d.Redirect == s.config.GetLoginRoute() {
				status = http.StatusUnauthorized
				message = "Authentication required"
			}
			writeJSON(w, status, map[string]string{
				"message":  message,
				"redirect": d.Redirect,
			})
		}
	}
}
