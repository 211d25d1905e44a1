package server

import (
	"net/http"
)

// Banking resources are relayed through the API client, so the request
// authorizer and response classifier see every call.

func (s *Server) ClientsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.console.API.ListClients(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeRaw(w, raw)
	}
}

func (s *Server) AccountsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.console.API.ListAccounts(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeRaw(w, raw)
	}
}

func (s *Server) TransactionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := s.console.API.ListTransactions(r.Context(), r.PathValue("number"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeRaw(w, raw)
	}
}
