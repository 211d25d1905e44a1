package guard

import (
	"github.com/jrsteele09/go-bank-backoffice/users"
)

const (
	deniedTitle   = "Access denied"
	deniedMessage = "You do not have permission to access this page"
)

// SessionView is what the guards read from the session manager.
type SessionView interface {
	CurrentUser() *users.User
}

// Notifier shows the role guard's denial message.
type Notifier interface {
	Error(message, title string) bool
}

// Decision is the outcome of guarding one navigation.
type Decision struct {
	Path     string // Route that was requested
	Allowed  bool
	Redirect string // Where to go instead when not allowed
}

func allow(path string) Decision {
	return Decision{Path: path, Allowed: true}
}

func redirect(path, to string) Decision {
	return Decision{Path: path, Redirect: to}
}

// Guard decides whether a navigation to route may proceed.
type Guard interface {
	Check(route Route) Decision
}

// AuthGuard sends anonymous users to the login route.
type AuthGuard struct {
	session    SessionView
	loginRoute string
}

func NewAuthGuard(session SessionView, loginRoute string) *AuthGuard {
	return &AuthGuard{session: session, loginRoute: loginRoute}
}

func (g *AuthGuard) Check(route Route) Decision {
	if route.Public || g.session.CurrentUser() != nil {
		return allow(route.Path)
	}
	return redirect(route.Path, g.loginRoute)
}

// RoleGuard enforces the route's roles. A signed in user without the role
// is told so and sent to the fallback route rather than the login route.
type RoleGuard struct {
	session       SessionView
	notifier      Notifier
	loginRoute    string
	fallbackRoute string
}

func NewRoleGuard(session SessionView, notifier Notifier, loginRoute, fallbackRoute string) *RoleGuard {
	return &RoleGuard{
		session:       session,
		notifier:      notifier,
		loginRoute:    loginRoute,
		fallbackRoute: fallbackRoute,
	}
}

func (g *RoleGuard) Check(route Route) Decision {
	if route.Public {
		return allow(route.Path)
	}

	user := g.session.CurrentUser()
	if user == nil {
		return redirect(route.Path, g.loginRoute)
	}
	if route.Permits(user.Role) {
		return allow(route.Path)
	}

	if g.notifier != nil {
		g.notifier.Error(deniedMessage, deniedTitle)
	}
	return redirect(route.Path, g.fallbackRoute)
}
