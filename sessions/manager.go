package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jrsteele09/go-bank-backoffice/bankapi"
	"github.com/jrsteele09/go-bank-backoffice/credentials"
	"github.com/jrsteele09/go-bank-backoffice/internal/config"
	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
	"github.com/jrsteele09/go-bank-backoffice/token"
	"github.com/jrsteele09/go-bank-backoffice/users"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// AuthAPI is the part of the Banking API the manager talks to.
type AuthAPI interface {
	Login(ctx context.Context, req bankapi.LoginRequest) (*bankapi.AuthResponse, error)
	VerifyTwoFactor(ctx context.Context, req bankapi.VerifyTwoFactorRequest) (*bankapi.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*bankapi.AuthResponse, error)
	Logout(ctx context.Context, accessToken, refreshToken string) (string, error)
	Register(ctx context.Context, req bankapi.RegisterRequest) error
	ChangePassword(ctx context.Context, req bankapi.ChangePasswordRequest) (string, error)
}

// CredentialStore persists the session. credentials.Store implements it.
type CredentialStore interface {
	Save(ctx context.Context, rec credentials.Record) error
	Load(ctx context.Context) (credentials.Record, error)
	ClearAccess(ctx context.Context) error
	Clear(ctx context.Context) error
	RefreshToken() string
	FallbackToken() string
}

// Navigator moves the console to another route.
type Navigator interface {
	Navigate(path string)
}

const refreshKey = "refresh"

// Manager owns the session. It is the only writer of the credential store
// and publishes every change on its snapshot stream.
type Manager struct {
	api   AuthAPI
	store CredentialStore
	nav   Navigator
	codec *token.Codec
	log   zerolog.Logger

	nowFunc         func() time.Time
	landingRoute    string
	defaultExpiry   time.Duration
	refreshFallback time.Duration
	logoutTimeout   time.Duration

	mu         sync.RWMutex
	session    *Session
	generation uint64 // Bumped by every login and logout
	pending2FA string // Username waiting for a second factor

	refreshGroup singleflight.Group
	stream       *broadcaster
}

type ManagerOption func(*Manager)

func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
		m.codec = token.NewCodec(log)
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithConfig takes routes, lifetimes and timeouts from cfg.
func WithConfig(cfg config.SessionConfig) ManagerOption {
	return func(m *Manager) {
		m.landingRoute = cfg.GetLandingRoute()
		m.defaultExpiry = cfg.GetDefaultAccessTokenExpiry()
		m.refreshFallback = cfg.GetRefreshCookieFallback()
		m.logoutTimeout = cfg.GetLogoutTimeout()
	}
}

// NewManager creates a manager with nobody signed in. Call Restore to pick
// up a session persisted by an earlier run. nav may be nil.
func NewManager(api AuthAPI, store CredentialStore, nav Navigator, options ...ManagerOption) *Manager {
	m := &Manager{
		api:             api,
		store:           store,
		nav:             nav,
		codec:           token.NewCodec(zerolog.Nop()),
		log:             zerolog.Nop(),
		nowFunc:         time.Now,
		landingRoute:    "/dashboard",
		defaultExpiry:   time.Hour,
		refreshFallback: 7 * 24 * time.Hour,
		logoutTimeout:   5 * time.Second,
		stream:          newBroadcaster(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Restore rebuilds the session from the credential store when the stored
// access token is still valid. A stale token is removed but the refresh
// cookie is kept so Refresh can recover the session.
func (m *Manager) Restore(ctx context.Context) error {
	rec, err := m.store.Load(ctx)
	if errors.Is(err, apperrors.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("[Manager Restore] %w", err)
	}

	claims, ok := m.codec.Decode(rec.AccessToken)
	if !ok || claims.Expired(m.nowFunc()) {
		m.log.Info().Str("username", rec.User.Username).Msg("stored session has expired")
		return m.store.ClearAccess(ctx)
	}

	s := &Session{
		Token: &oauth2.Token{
			AccessToken:  rec.AccessToken,
			TokenType:    rec.TokenType,
			RefreshToken: rec.RefreshToken,
			Expiry:       claims.ExpiresAt,
		},
		User: rec.User,
	}
	m.mu.Lock()
	m.generation++
	m.session = s
	m.stream.publish(s)
	m.mu.Unlock()
	m.log.Info().Str("username", s.User.Username).Msg("session restored")
	return nil
}

// Login authenticates the operator and navigates to the landing route.
// ErrTwoFactorRequired means the account needs VerifyTwoFactor to finish.
// API errors are returned unchanged and leave the session as it was.
func (m *Manager) Login(ctx context.Context, req bankapi.LoginRequest) (*Session, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	resp, err := m.api.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.TwoFactorRequired {
		m.mu.Lock()
		m.pending2FA = req.Username
		m.mu.Unlock()
		return nil, apperrors.ErrTwoFactorRequired
	}
	return m.establish(ctx, resp, "", establishLogin)
}

// VerifyTwoFactor completes a login that answered ErrTwoFactorRequired.
func (m *Manager) VerifyTwoFactor(ctx context.Context, code string) (*Session, error) {
	m.mu.RLock()
	username := m.pending2FA
	m.mu.RUnlock()
	if username == "" {
		return nil, fmt.Errorf("[Manager VerifyTwoFactor] %w: no login is waiting for a second factor", apperrors.ErrInvalidRequest)
	}

	req := bankapi.VerifyTwoFactorRequest{Username: username, Code: code}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	resp, err := m.api.VerifyTwoFactor(ctx, req)
	if err != nil {
		return nil, err
	}

	return m.establish(ctx, resp, "", establishLogin)
}

// Refresh exchanges the refresh token for a new session. Concurrent calls
// share one request and its result; a cancelled caller stops waiting but
// the shared request carries on. Any failure ends the session.
func (m *Manager) Refresh(ctx context.Context) (*Session, error) {
	ch := m.refreshGroup.DoChan(refreshKey, func() (any, error) {
		return m.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refresh only settles the session it started from: a login or logout that
// lands while the request is in flight wins over its result.
func (m *Manager) refresh(ctx context.Context) (*Session, error) {
	gen := m.currentGeneration()
	rt := m.store.RefreshToken()
	if rt == "" {
		m.destroyGeneration(ctx, gen)
		return nil, fmt.Errorf("[Manager Refresh] %w", apperrors.ErrNoRefreshToken)
	}

	resp, err := m.api.Refresh(ctx, rt)
	if err != nil {
		m.log.Warn().Err(err).Msg("token refresh failed, ending session")
		m.destroyGeneration(ctx, gen)
		return nil, err
	}

	s, err := m.establish(ctx, resp, rt, gen)
	if errors.Is(err, errSuperseded) {
		m.log.Info().Msg("session changed during refresh, discarding refreshed tokens")
		return nil, fmt.Errorf("[Manager Refresh] %w", apperrors.ErrNotAuthenticated)
	}
	if err != nil {
		m.destroyGeneration(ctx, gen)
		return nil, err
	}
	return s, nil
}

// Logout ends the session. Local state is cleared and announced before the
// API is told, so a failing or slow logout call never leaves the console
// signed in. The API call is bounded by the logout timeout and its outcome
// is only logged.
func (m *Manager) Logout(ctx context.Context) {
	access, refresh, prev := m.endSession(ctx)
	m.revoke(ctx, access, refresh, prev)
}

// Expire ends a session the API no longer accepts. It returns once local
// state is cleared; the API is told in the background.
func (m *Manager) Expire(ctx context.Context) {
	access, refresh, prev := m.endSession(ctx)
	go m.revoke(context.WithoutCancel(ctx), access, refresh, prev)
}

func (m *Manager) endSession(ctx context.Context) (access, refresh string, prev *Session) {
	refresh = m.store.RefreshToken()
	prev = m.destroy(ctx)
	if prev != nil {
		access = prev.Token.AccessToken
		if refresh == "" {
			refresh = prev.Token.RefreshToken
		}
	}
	return access, refresh, prev
}

func (m *Manager) revoke(ctx context.Context, access, refresh string, prev *Session) {
	if access == "" && refresh == "" {
		return
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.logoutTimeout)
	defer cancel()
	if _, err := m.api.Logout(callCtx, access, refresh); err != nil {
		m.log.Warn().Err(err).Msg("logout call failed, local session already cleared")
		return
	}
	if prev != nil {
		m.log.Info().Str("username", prev.User.Username).Msg("logged out")
	}
}

// destroy clears the session and the stored credentials, and returns what
// it replaced.
func (m *Manager) destroy(ctx context.Context) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyLocked(ctx)
}

// destroyGeneration is destroy for a session that may have been replaced
// since gen was read; a newer session is left alone.
func (m *Manager) destroyGeneration(ctx context.Context, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return
	}
	m.destroyLocked(ctx)
}

func (m *Manager) destroyLocked(ctx context.Context) *Session {
	prev := m.session
	m.generation++
	m.session = nil
	m.pending2FA = ""
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.log.Error().Err(err).Msg("failed to clear stored credentials")
	}
	m.stream.publish(nil)
	return prev
}

func (m *Manager) currentGeneration() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// establishLogin marks an establish call that starts a new session rather
// than continuing the one read at a given generation.
const establishLogin = ^uint64(0)

var errSuperseded = errors.New("session superseded")

// establish turns an auth response into the current session. previousRefresh
// is kept when the API does not rotate the refresh token. Unless gen is
// establishLogin, the result is only kept while the session is still at
// generation gen, and errSuperseded is returned otherwise.
func (m *Manager) establish(ctx context.Context, resp *bankapi.AuthResponse, previousRefresh string, gen uint64) (*Session, error) {
	isLogin := gen == establishLogin
	s, refreshExpiry, err := m.assemble(resp, previousRefresh)
	if err != nil {
		return nil, err
	}

	rec := credentials.Record{
		AccessToken:   s.Token.AccessToken,
		TokenType:     s.Token.TokenType,
		Expiry:        s.Token.Expiry,
		RefreshToken:  s.Token.RefreshToken,
		RefreshExpiry: refreshExpiry,
		User:          s.User,
	}
	m.mu.Lock()
	if !isLogin && m.generation != gen {
		m.mu.Unlock()
		return nil, errSuperseded
	}
	if err := m.store.Save(ctx, rec); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("[Manager establish] %w", err)
	}
	if isLogin {
		m.generation++
		m.pending2FA = ""
	}
	m.session = s
	m.stream.publish(s)
	m.mu.Unlock()

	m.log.Info().Str("username", s.User.Username).Str("role", s.User.Role.String()).Bool("login", isLogin).Msg("session established")

	if isLogin && m.nav != nil {
		m.nav.Navigate(m.landingRoute)
	}
	return s, nil
}

// assemble builds the session, preferring what the API declared and filling
// the rest from the access token's claims.
func (m *Manager) assemble(resp *bankapi.AuthResponse, previousRefresh string) (*Session, time.Time, error) {
	if resp == nil || resp.AccessToken == "" {
		return nil, time.Time{}, fmt.Errorf("[Manager assemble] %w: no access token", apperrors.ErrIncompleteIdentity)
	}

	now := m.nowFunc()
	claims, decoded := m.codec.Decode(resp.AccessToken)
	if !decoded {
		claims = &token.Claims{}
	}

	username := firstNonEmpty(resp.Username, claims.Username, claims.Subject)
	roleName := firstNonEmpty(resp.Role, claims.Role)
	if username == "" || roleName == "" {
		return nil, time.Time{}, fmt.Errorf("[Manager assemble] %w", apperrors.ErrIncompleteIdentity)
	}
	role, err := users.ParseRole(roleName)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("[Manager assemble] %w", err)
	}

	user := &users.User{
		Username:  username,
		Role:      role,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}
	if id, err := strconv.ParseInt(claims.Subject, 10, 64); err == nil {
		user.ID = &id
	}

	var expiry time.Time
	switch {
	case claims.HasExpiry():
		expiry = claims.ExpiresAt
	case resp.ExpiresIn > 0:
		expiry = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	default:
		expiry = now.Add(m.defaultExpiry)
	}

	refresh := firstNonEmpty(resp.RefreshToken, previousRefresh)
	refreshExpiry := now.Add(m.refreshFallback)
	if rc, ok := m.codec.Decode(refresh); ok && rc.HasExpiry() {
		refreshExpiry = rc.ExpiresAt
	}

	return &Session{
		Token: &oauth2.Token{
			AccessToken:  resp.AccessToken,
			TokenType:    firstNonEmpty(resp.TokenType, "Bearer"),
			RefreshToken: refresh,
			Expiry:       expiry,
		},
		User: user,
	}, refreshExpiry, nil
}

func (m *Manager) current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// IsAuthenticated is true when an access token is held and its exp claim
// is in the future. A token without a readable exp is not authenticated.
func (m *Manager) IsAuthenticated() bool {
	s := m.current()
	if s == nil {
		return false
	}
	claims, ok := m.codec.Decode(s.Token.AccessToken)
	return ok && !claims.Expired(m.nowFunc())
}

// CurrentUser returns a copy of the signed in user, or nil.
func (m *Manager) CurrentUser() *users.User {
	s := m.current()
	if s == nil {
		return nil
	}
	u := *s.User
	return &u
}

// AccessToken returns the session token, falling back to the secondary
// cookie token, or "" when neither exists.
func (m *Manager) AccessToken() string {
	if s := m.current(); s != nil {
		return s.Token.AccessToken
	}
	return m.store.FallbackToken()
}

// Token implements oauth2.TokenSource for the request authorizer. The
// refresh token is never handed out.
func (m *Manager) Token() (*oauth2.Token, error) {
	if s := m.current(); s != nil {
		return &oauth2.Token{
			AccessToken: s.Token.AccessToken,
			TokenType:   s.Token.TokenType,
			Expiry:      s.Token.Expiry,
		}, nil
	}
	if fallback := m.store.FallbackToken(); fallback != "" {
		return &oauth2.Token{AccessToken: fallback, TokenType: "Bearer"}, nil
	}
	return nil, apperrors.ErrNotAuthenticated
}

func (m *Manager) HasRole(role users.RoleType) bool {
	return m.CurrentUser().HasRole(role)
}

func (m *Manager) HasAnyRole(roles ...users.RoleType) bool {
	return m.CurrentUser().HasAnyRole(roles...)
}

// Current returns the latest snapshot.
func (m *Manager) Current() Snapshot {
	return m.stream.current()
}

// Subscribe streams session snapshots, starting with the latest one. Call
// the returned func to stop; the channel is then closed.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	return m.stream.subscribe()
}

// Register creates an operator account. The API only accepts it from an
// ADMIN session.
func (m *Manager) Register(ctx context.Context, req bankapi.RegisterRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	if m.current() == nil {
		return fmt.Errorf("[Manager Register] %w", apperrors.ErrNotAuthenticated)
	}
	return m.api.Register(ctx, req)
}

func (m *Manager) ChangePassword(ctx context.Context, req bankapi.ChangePasswordRequest) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}
	if m.current() == nil {
		return "", fmt.Errorf("[Manager ChangePassword] %w", apperrors.ErrNotAuthenticated)
	}
	return m.api.ChangePassword(ctx, req)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
