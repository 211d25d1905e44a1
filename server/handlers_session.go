package server

import (
	"net/http"
)

func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.currentSession())
	}
}

type navigationView struct {
	Path     string `json:"path"`
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Location string `json:"location"`
}

// NavigateHandler moves the console to ?path= through the route guards.
func (s *Server) NavigateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			writeMessage(w, http.StatusBadRequest, "path is required")
			return
		}

		d := s.console.Router.Resolve(path)
		writeJSON(w, http.StatusOK, navigationView{
			Path:     d.Path,
			Allowed:  d.Allowed,
			Redirect: d.Redirect,
			Location: s.console.Router.Location(),
		})
	}
}
