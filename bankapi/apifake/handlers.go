package apifake

import (
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type authResponse struct {
	AccessToken       string `json:"access_token,omitempty"`
	RefreshToken      string `json:"refresh_token,omitempty"`
	TokenType         string `json:"token_type,omitempty"`
	ExpiresIn         int64  `json:"expires_in,omitempty"`
	Username          string `json:"username,omitempty"`
	Role              string `json:"role,omitempty"`
	TwoFactorRequired bool   `json:"two_factor_required,omitempty"`
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", s.count("/v1/auth/login", s.login))
	mux.HandleFunc("POST /api/v1/auth/verify-2fa", s.count("/v1/auth/verify-2fa", s.verifyTwoFactor))
	mux.HandleFunc("POST /api/v1/auth/refresh", s.count("/v1/auth/refresh", s.refresh))
	mux.HandleFunc("POST /api/v1/auth/logout", s.count("/v1/auth/logout", s.logout))
	mux.HandleFunc("POST /api/v1/auth/register", s.count("/v1/auth/register", s.authenticated(s.register)))
	mux.HandleFunc("POST /api/v1/auth/change-password", s.count("/v1/auth/change-password", s.authenticated(s.changePassword)))
	mux.HandleFunc("GET /api/v1/clients", s.count("/v1/clients", s.authenticated(s.clients)))
	mux.HandleFunc("GET /api/v1/comptes", s.count("/v1/comptes", s.authenticated(s.accountsList)))
	mux.HandleFunc("GET /api/v1/comptes/{number}/transactions", s.count("/v1/comptes/transactions", s.authenticated(s.transactions)))
	return mux
}

// count records the call and applies any status forced with SetStatus.
func (s *Server) count(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[path]++
		status := s.statuses[path]
		s.mu.Unlock()

		if status != 0 {
			writeMessage(w, status, http.StatusText(status))
			return
		}
		next(w, r)
	}
}

type accountHandler func(w http.ResponseWriter, r *http.Request, a *account)

func (s *Server) authenticated(next accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearer(r)
		if raw == "" {
			writeMessage(w, http.StatusUnauthorized, "Full authentication is required")
			return
		}
		_, a, err := s.parse(raw, tokenTypeAccess)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next(w, r, a)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username      string `json:"username"`
		Password      string `json:"password"`
		TwoFactorCode string `json:"twoFactorCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	s.mu.Lock()
	a, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if a.twoFactorCode != "" {
		switch req.TwoFactorCode {
		case "":
			writeJSON(w, http.StatusOK, authResponse{Username: a.username, TwoFactorRequired: true})
			return
		case a.twoFactorCode:
		default:
			writeMessage(w, http.StatusUnauthorized, "Invalid verification code")
			return
		}
	}
	s.issue(w, a)
}

func (s *Server) verifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Code     string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	s.mu.Lock()
	a, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || a.twoFactorCode == "" || a.twoFactorCode != req.Code {
		writeMessage(w, http.StatusUnauthorized, "Invalid verification code")
		return
	}
	s.issue(w, a)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	if !s.wait(r, &s.refreshGate) {
		return
	}

	raw := bearer(r)
	if raw == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		raw = body.RefreshToken
	}

	claims, a, err := s.parse(raw, tokenTypeRefresh)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	jti, _ := claims["jti"].(string)
	s.mu.Lock()
	if s.revoked[jti] {
		s.mu.Unlock()
		writeMessage(w, http.StatusUnauthorized, "Refresh token revoked")
		return
	}
	s.revoked[jti] = true
	s.mu.Unlock()

	s.issue(w, a)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if !s.wait(r, &s.logoutGate) {
		return
	}
	s.mu.Lock()
	fail := s.failLogout
	s.mu.Unlock()
	if fail {
		writeMessage(w, http.StatusInternalServerError, "Logout failed")
		return
	}

	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if claims, _, err := s.parse(body.RefreshToken, tokenTypeRefresh); err == nil {
		if jti, ok := claims["jti"].(string); ok {
			s.mu.Lock()
			s.revoked[jti] = true
			s.mu.Unlock()
		}
	}
	writeText(w, http.StatusOK, "Logged out successfully")
}

func (s *Server) register(w http.ResponseWriter, r *http.Request, caller *account) {
	if caller.role != "ADMIN" {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	s.mu.Lock()
	_, exists := s.accounts[req.Username]
	s.mu.Unlock()
	if exists {
		writeMessage(w, http.StatusBadRequest, "Username already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Could not hash password")
		return
	}
	s.mu.Lock()
	s.nextID++
	s.accounts[req.Username] = &account{
		id:           s.nextID,
		username:     req.Username,
		passwordHash: hash,
		role:         req.Role,
		email:        req.Email,
	}
	s.mu.Unlock()
	writeText(w, http.StatusCreated, "User registered successfully")
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request, caller *account) {
	var req struct {
		OldPassword     string `json:"oldPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if bcrypt.CompareHashAndPassword(caller.passwordHash, []byte(req.OldPassword)) != nil {
		writeMessage(w, http.StatusBadRequest, "Old password is incorrect")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeMessage(w, http.StatusBadRequest, "Passwords do not match")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Could not hash password")
		return
	}
	s.mu.Lock()
	caller.passwordHash = hash
	s.mu.Unlock()
	writeText(w, http.StatusOK, "Password changed successfully")
}

func (s *Server) clients(w http.ResponseWriter, _ *http.Request, _ *account) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{"id": 1, "clientCode": "CLI-0001", "nom": "Doe", "prenom": "Jane"},
		{"id": 2, "clientCode": "CLI-0002", "nom": "Smith", "prenom": "John"},
	})
}

func (s *Server) accountsList(w http.ResponseWriter, _ *http.Request, _ *account) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{"numeroCompte": "FR7630001007941234567890185", "typeCompte": "COURANT", "solde": 1250.5, "clientId": 1},
		{"numeroCompte": "FR7630001007949876543210185", "typeCompte": "EPARGNE", "solde": 9800, "clientId": 2},
	})
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request, _ *account) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{"id": 1, "numeroCompte": r.PathValue("number"), "type": "DEPOT", "montant": 500},
		{"id": 2, "numeroCompte": r.PathValue("number"), "type": "RETRAIT", "montant": 120},
	})
}

func (s *Server) issue(w http.ResponseWriter, a *account) {
	now := s.now()
	access, err := s.sign(a, tokenTypeAccess, now.Add(s.accessTTL))
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Could not sign token")
		return
	}
	refresh, err := s.sign(a, tokenTypeRefresh, now.Add(s.refreshTTL))
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Could not sign token")
		return
	}

	resp := authResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		Username:     a.username,
		Role:         a.role,
	}
	if s.role != nil {
		resp.Role = *s.role
	}
	if s.expiresIn {
		resp.ExpiresIn = int64(s.accessTTL / time.Second)
	}
	writeJSON(w, http.StatusOK, resp)
}
