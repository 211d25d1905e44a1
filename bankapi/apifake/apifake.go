// Package apifake is an in-process stand-in for the Banking API. It signs
// real HS256 tokens, checks bcrypt passwords and counts calls so tests can
// drive the session pipeline end to end.
package apifake

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Demo accounts every fake starts with.
const (
	AdminUsername = "admin"
	AdminPassword = "demo123"
	AgentUsername = "agent"
	AgentPassword = "agent123"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type account struct {
	id            int64
	username      string
	passwordHash  []byte
	role          string
	email         string
	firstName     string
	lastName      string
	twoFactorCode string
}

// Server is the fake API. Mount Handler under any host; routes live below
// /api like the real deployment.
type Server struct {
	mu          sync.Mutex
	secret      []byte
	accounts    map[string]*account
	nextID      int64
	revoked     map[string]bool // refresh token jti
	calls       map[string]int
	statuses    map[string]int
	nowFn       func() time.Time
	accessTTL   time.Duration
	refreshTTL  time.Duration
	expiresIn   bool
	role        *string // Overrides the role reported by login
	refreshGate chan struct{}
	logoutGate  chan struct{}
	failLogout  bool
	handler     http.Handler
}

type Option func(*Server)

// WithNowFunc sets the clock used for token issue and validation.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Server) {
		s.nowFn = fn
	}
}

// WithAccessTTL sets the lifetime of issued access tokens. A negative
// value issues tokens that are already expired.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = d
	}
}

func WithRefreshTTL(d time.Duration) Option {
	return func(s *Server) {
		s.refreshTTL = d
	}
}

// WithExpiresIn adds the expires_in hint to auth responses.
func WithExpiresIn() Option {
	return func(s *Server) {
		s.expiresIn = true
	}
}

// WithTwoFactor requires code as a second factor for username.
func WithTwoFactor(username, code string) Option {
	return func(s *Server) {
		if a, ok := s.accounts[username]; ok {
			a.twoFactorCode = code
		}
	}
}

// WithReportedRole makes login and refresh answer role instead of the
// account's real role.
func WithReportedRole(role string) Option {
	return func(s *Server) {
		s.role = &role
	}
}

// New creates a fake with the demo admin and agent accounts.
func New(options ...Option) *Server {
	s := &Server{
		secret:     []byte(uuid.NewString()),
		accounts:   map[string]*account{},
		revoked:    map[string]bool{},
		calls:      map[string]int{},
		statuses:   map[string]int{},
		nowFn:      time.Now,
		accessTTL:  time.Hour,
		refreshTTL: 7 * 24 * time.Hour,
	}
	s.mustAddAccount(AdminUsername, AdminPassword, "ADMIN", "Ama", "Mensah")
	s.mustAddAccount(AgentUsername, AgentPassword, "AGENT", "Kofi", "Asante")

	for _, opt := range options {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Start serves the fake for the duration of the test and returns the API
// base URL, for example http://127.0.0.1:41234/api.
func Start(t testing.TB, options ...Option) (*Server, string) {
	t.Helper()
	s := New(options...)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts.URL + "/api"
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) mustAddAccount(username, password, role, first, last string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("apifake: hash password: %v", err))
	}
	s.nextID++
	s.accounts[username] = &account{
		id:           s.nextID,
		username:     username,
		passwordHash: hash,
		role:         role,
		email:        username + "@banque-ega.com",
		firstName:    first,
		lastName:     last,
	}
}

// Calls returns how many requests reached path, for example
// "/v1/auth/refresh".
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// SetStatus makes every request to path answer status until reset with 0.
func (s *Server) SetStatus(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.statuses, path)
		return
	}
	s.statuses[path] = status
}

// FailLogout makes the logout endpoint answer 500.
func (s *Server) FailLogout(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLogout = fail
}

// HoldRefresh blocks refresh requests until the returned func is called.
func (s *Server) HoldRefresh() (release func()) {
	return s.hold(&s.refreshGate)
}

// HoldLogout blocks logout requests until the returned func is called.
func (s *Server) HoldLogout() (release func()) {
	return s.hold(&s.logoutGate)
}

func (s *Server) hold(slot *chan struct{}) func() {
	gate := make(chan struct{})
	s.mu.Lock()
	*slot = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			*slot = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// wait blocks on the gate in slot, if any. It reports false when the
// request went away first.
func (s *Server) wait(r *http.Request, slot *chan struct{}) bool {
	s.mu.Lock()
	gate := *slot
	s.mu.Unlock()
	if gate == nil {
		return true
	}
	select {
	case <-gate:
		return true
	case <-r.Context().Done():
		return false
	}
}

// IssueAccessToken signs an access token for username expiring at exp.
func (s *Server) IssueAccessToken(username string, exp time.Time) (string, error) {
	s.mu.Lock()
	a, ok := s.accounts[username]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("apifake: unknown account %q", username)
	}
	return s.sign(a, tokenTypeAccess, exp)
}

func (s *Server) now() time.Time {
	return s.nowFn()
}

func (s *Server) sign(a *account, typ string, exp time.Time) (string, error) {
	claims := jwtlib.MapClaims{
		"sub": strconv.FormatInt(a.id, 10),
		"typ": typ,
		"jti": uuid.NewString(),
		"iat": s.now().Unix(),
		"exp": exp.Unix(),
	}
	if typ == tokenTypeAccess {
		claims["username"] = a.username
		claims["role"] = a.role
		claims["firstName"] = a.firstName
		claims["lastName"] = a.lastName
		claims["email"] = a.email
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
}

// parse verifies a token this fake issued.
func (s *Server) parse(raw, typ string) (jwtlib.MapClaims, *account, error) {
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(s.now))
	if err != nil {
		return nil, nil, err
	}
	if claims["typ"] != typ {
		return nil, nil, errors.New("wrong token type")
	}

	sub, _ := claims.GetSubject()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strconv.FormatInt(a.id, 10) == sub {
			return claims, a, nil
		}
	}
	return nil, nil, errors.New("unknown subject")
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
