package guard_test

import (
	"sync"
	"testing"

	"github.com/jrsteele09/go-bank-backoffice/guard"
	"github.com/jrsteele09/go-bank-backoffice/users"
	"github.com/stretchr/testify/require"
)

type session struct {
	user *users.User
}

func (s *session) CurrentUser() *users.User {
	return s.user
}

type notifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *notifier) Error(_, title string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return true
}

func (n *notifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.titles)
}

func operator(role users.RoleType) *session {
	return &session{user: &users.User{Username: "op", Role: role}}
}

func TestRoleGuard(t *testing.T) {
	reports := guard.Route{Path: "/reports", Roles: []users.RoleType{users.RoleAdmin}}

	t.Run("agent denied", func(t *testing.T) {
		n := &notifier{}
		g := guard.NewRoleGuard(operator(users.RoleAgent), n, "/login", "/transactions")

		d := g.Check(reports)
		require.False(t, d.Allowed)
		require.Equal(t, "/transactions", d.Redirect)
		require.Equal(t, 1, n.count())
		require.Equal(t, []string{"Access denied"}, n.titles)
	})

	t.Run("admin allowed", func(t *testing.T) {
		n := &notifier{}
		g := guard.NewRoleGuard(operator(users.RoleAdmin), n, "/login", "/transactions")

		require.True(t, g.Check(reports).Allowed)
		require.Zero(t, n.count())
	})

	t.Run("anonymous goes to login quietly", func(t *testing.T) {
		n := &notifier{}
		g := guard.NewRoleGuard(&session{}, n, "/login", "/transactions")

		d := g.Check(reports)
		require.False(t, d.Allowed)
		require.Equal(t, "/login", d.Redirect)
		require.Zero(t, n.count())
	})

	t.Run("no roles declared", func(t *testing.T) {
		g := guard.NewRoleGuard(operator(users.RoleAgent), &notifier{}, "/login", "/transactions")
		require.True(t, g.Check(guard.Route{Path: "/clients"}).Allowed)
	})
}

func TestAuthGuard(t *testing.T) {
	anonymous := guard.NewAuthGuard(&session{}, "/login")
	signedIn := guard.NewAuthGuard(operator(users.RoleAgent), "/login")

	for _, route := range guard.DefaultRoutes() {
		if route.Public || route.RedirectTo != "" {
			continue
		}
		t.Run(route.Path, func(t *testing.T) {
			d := anonymous.Check(route)
			require.False(t, d.Allowed)
			require.Equal(t, "/login", d.Redirect)

			require.True(t, signedIn.Check(route).Allowed)
		})
	}

	require.True(t, anonymous.Check(guard.Route{Path: "/login", Public: true}).Allowed)
}

func TestRouter(t *testing.T) {
	t.Run("agent on admin page lands on fallback with one notification", func(t *testing.T) {
		n := &notifier{}
		r := guard.NewRouter(guard.DefaultRoutes(), operator(users.RoleAgent), n)

		d := r.Resolve("/reports")
		require.False(t, d.Allowed)
		require.Equal(t, "/transactions", d.Redirect)
		require.Equal(t, "/transactions", r.Location())
		require.Equal(t, 1, n.count())
	})

	t.Run("admin reaches admin page", func(t *testing.T) {
		n := &notifier{}
		r := guard.NewRouter(guard.DefaultRoutes(), operator(users.RoleAdmin), n)

		d := r.Resolve("/settings/")
		require.True(t, d.Allowed)
		require.Equal(t, "/settings", r.Location())
		require.Zero(t, n.count())
	})

	t.Run("anonymous is sent to login", func(t *testing.T) {
		r := guard.NewRouter(guard.DefaultRoutes(), &session{}, &notifier{})

		d := r.Resolve("/clients")
		require.False(t, d.Allowed)
		require.Equal(t, "/login", d.Redirect)
		require.Equal(t, "/login", r.Location())
	})

	t.Run("root redirects to dashboard", func(t *testing.T) {
		r := guard.NewRouter(guard.DefaultRoutes(), operator(users.RoleAgent), &notifier{})

		d := r.Resolve("/")
		require.Equal(t, "/dashboard", d.Redirect)
		require.Equal(t, "/dashboard", r.Location())
	})

	t.Run("unknown path goes to login", func(t *testing.T) {
		r := guard.NewRouter(guard.DefaultRoutes(), operator(users.RoleAdmin), &notifier{})

		r.Navigate("/no-such-page?tab=1")
		require.Equal(t, "/login", r.Location())
	})

	t.Run("custom fallback", func(t *testing.T) {
		r := guard.NewRouter(guard.DefaultRoutes(), operator(users.RoleAgent), &notifier{}, guard.WithRoutes("/login", "/dashboard"))

		r.Navigate("/users")
		require.Equal(t, "/dashboard", r.Location())
	})

	t.Run("redirect loop ends at login", func(t *testing.T) {
		routes := []guard.Route{
			{Path: "/a", RedirectTo: "/b"},
			{Path: "/b", RedirectTo: "/a"},
		}
		r := guard.NewRouter(routes, operator(users.RoleAdmin), &notifier{})

		d := r.Resolve("/a")
		require.False(t, d.Allowed)
		require.Equal(t, "/login", r.Location())
	})
}
