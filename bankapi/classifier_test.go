package bankapi_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"syscall"
	"testing"

	"github.com/jrsteele09/go-bank-backoffice/bankapi"
	"github.com/jrsteele09/go-bank-backoffice/bankapi/apifake"
	"github.com/jrsteele09/go-bank-backoffice/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeSession struct {
	mu      sync.Mutex
	user    *users.User
	logouts int
}

func (f *fakeSession) CurrentUser() *users.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

func (f *fakeSession) Expire(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	f.user = nil
}

func (f *fakeSession) Logouts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts
}

type recorder struct {
	mu       sync.Mutex
	messages []string
	paths    []string
}

func (r *recorder) Error(message, _ string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return true
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func (r *recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

type staticTokens struct {
	token string
}

func (s staticTokens) Token() (*oauth2.Token, error) {
	if s.token == "" {
		return nil, errors.New("no token")
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}, nil
}

type fixture struct {
	fake    *apifake.Server
	client  *bankapi.Client
	auth    *bankapi.AuthService
	session *fakeSession
	events  *recorder
}

func newFixture(t *testing.T, token string, role users.RoleType) *fixture {
	t.Helper()
	fake, baseURL := apifake.Start(t)
	client, err := bankapi.NewClient(baseURL)
	require.NoError(t, err)

	f := &fixture{
		fake:    fake,
		client:  client,
		auth:    bankapi.NewAuthService(client),
		session: &fakeSession{},
		events:  &recorder{},
	}
	if role != "" {
		f.session.user = &users.User{Username: "someone", Role: role}
	}
	client.Use(
		bankapi.NewAuthorizer(staticTokens{token: token}),
		bankapi.NewClassifier(f.session, f.events, f.events),
	)
	return f
}

func TestClassify(t *testing.T) {
	none := bankapi.RequestOptions{}
	auth := bankapi.RequestOptions{SkipErrorNotification: true, SkipAuthExpiry: true}

	tests := []struct {
		name       string
		status     int
		serverMsg  string
		opts       bankapi.RequestOptions
		role       users.RoleType
		wantMsg    string
		wantNotify bool
		wantLogout bool
	}{
		{"400 server message", 400, "Amount must be positive", none, users.RoleAdmin, "Amount must be positive", true, false},
		{"400 generic", 400, "", none, users.RoleAdmin, "Invalid request", true, false},
		{"400 auth endpoint", 400, "bad", auth, "", "bad", false, false},
		{"401 forces logout", 401, "", none, users.RoleAdmin, "Session expired. Please sign in again.", false, true},
		{"401 auth endpoint", 401, "", auth, "", "Session expired. Please sign in again.", false, false},
		{"403 admin", 403, "", none, users.RoleAdmin, "Access denied", true, false},
		{"403 agent", 403, "", none, users.RoleAgent, "Access denied", false, false},
		{"403 auth endpoint", 403, "", auth, users.RoleAdmin, "Access denied", false, false},
		{"403 anonymous", 403, "", none, "", "Access denied", true, false},
		{"404", 404, "No such client", auth, users.RoleAgent, "Resource not found", true, false},
		{"500", 500, "", none, users.RoleAgent, "Server error. Please try again later.", true, false},
		{"500 auth endpoint", 500, "", auth, "", "Server error. Please try again later.", false, false},
		{"409 server message", 409, "Account already exists", auth, "", "Account already exists", true, false},
		{"503 generic", 503, "", none, "", "Error 503", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := bankapi.Classify(tt.status, tt.serverMsg, tt.opts, tt.role)
			require.Equal(t, tt.wantMsg, out.Message)
			require.Equal(t, tt.wantNotify, out.Notify)
			require.Equal(t, tt.wantLogout, out.ForceLogout)
			require.False(t, out.Notify && out.ForceLogout)
		})
	}
}

func TestClassifyTransport(t *testing.T) {
	refused := &url.Error{Op: "Post", URL: "http://127.0.0.1:1/api/v1/clients", Err: &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	}}
	timeout := &url.Error{Op: "Get", URL: "http://bank/api/v1/comptes", Err: context.DeadlineExceeded}

	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"connection refused", refused, "Unable to reach the banking service. Check your connection."},
		{"unknown host", &net.DNSError{Err: "no such host", Name: "bank.invalid", IsNotFound: true}, "Unable to reach the banking service. Check your connection."},
		{"timeout", timeout, "The banking service did not respond in time. Please try again."},
		{"anything else", errors.New("unexpected EOF"), "Network error. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := bankapi.ClassifyTransport(tt.err)
			require.True(t, out.Notify)
			require.Equal(t, bankapi.CategoryTransport, out.Category)
			require.Equal(t, tt.wantMsg, out.Message)
			require.NotContains(t, out.Message, "127.0.0.1")
		})
	}

	require.False(t, bankapi.ClassifyTransport(context.Canceled).Notify)
}

func TestClassifier_UnauthorizedResourceForcesLogout(t *testing.T) {
	f := newFixture(t, "", users.RoleAdmin)

	_, err := f.client.ListClients(context.Background())
	var apiErr *bankapi.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)

	require.Equal(t, 1, f.session.Logouts())
	require.Equal(t, []string{"/login"}, f.events.Paths())
	require.Empty(t, f.events.Messages())
}

func TestClassifier_FailedLoginDoesNotLogout(t *testing.T) {
	f := newFixture(t, "", "")

	_, err := f.auth.Login(context.Background(), bankapi.LoginRequest{Username: apifake.AdminUsername, Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, bankapi.StatusCode(err))

	require.Zero(t, f.session.Logouts())
	require.Empty(t, f.events.Paths())
	require.Empty(t, f.events.Messages())
}

func TestClassifier_NotifiesOncePerFailure(t *testing.T) {
	f := newFixture(t, "", users.RoleAdmin)
	f.fake.SetStatus(bankapi.ClientsPath, http.StatusInternalServerError)

	_, err := f.client.ListClients(context.Background())
	require.Equal(t, http.StatusInternalServerError, bankapi.StatusCode(err))
	require.Equal(t, []string{"Server error. Please try again later."}, f.events.Messages())
	require.Zero(t, f.session.Logouts())
}

func TestClassifier_RestrictedRoleForbiddenIsQuiet(t *testing.T) {
	f := newFixture(t, "", users.RoleAgent)
	f.fake.SetStatus(bankapi.ClientsPath, http.StatusForbidden)

	_, err := f.client.ListClients(context.Background())
	require.Equal(t, http.StatusForbidden, bankapi.StatusCode(err))
	require.Empty(t, f.events.Messages())
}

func TestClassifier_TransportError(t *testing.T) {
	client, err := bankapi.NewClient("http://127.0.0.1:1/api")
	require.NoError(t, err)
	events := &recorder{}
	client.Use(bankapi.NewClassifier(&fakeSession{}, events, events))

	_, err = client.ListClients(context.Background())
	require.Error(t, err)
	require.Zero(t, bankapi.StatusCode(err))
	require.Equal(t, []string{"Unable to reach the banking service. Check your connection."}, events.Messages())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.ListClients(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, events.Messages(), 1)
}
