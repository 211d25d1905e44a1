package guard

import (
	"sync"

	"github.com/rs/zerolog"
)

const maxRedirects = 5

// Router resolves console navigation through the guards and remembers
// where the console currently is.
type Router struct {
	routes     map[string]Route
	guards     []Guard
	loginRoute string
	fallback   string
	log        zerolog.Logger

	mu       sync.Mutex
	location string
}

type RouterOption func(*Router)

func WithLogger(log zerolog.Logger) RouterOption {
	return func(r *Router) {
		r.log = log
	}
}

// WithRoutes sets the login and fallback routes used by the guards.
func WithRoutes(loginRoute, fallbackRoute string) RouterOption {
	return func(r *Router) {
		r.loginRoute = normalize(loginRoute)
		r.fallback = normalize(fallbackRoute)
	}
}

// NewRouter guards routes with the auth guard followed by the role guard.
func NewRouter(routes []Route, session SessionView, notifier Notifier, options ...RouterOption) *Router {
	r := &Router{
		routes:     make(map[string]Route, len(routes)),
		loginRoute: "/login",
		fallback:   "/transactions",
		log:        zerolog.Nop(),
	}
	for _, route := range routes {
		route.Path = normalize(route.Path)
		r.routes[route.Path] = route
	}
	for _, opt := range options {
		opt(r)
	}
	r.guards = []Guard{
		NewAuthGuard(session, r.loginRoute),
		NewRoleGuard(session, notifier, r.loginRoute, r.fallback),
	}
	return r
}

// Route looks up a route by path.
func (r *Router) Route(path string) (Route, bool) {
	route, ok := r.routes[normalize(path)]
	return route, ok
}

// Routes returns the route table.
func (r *Router) Routes() []Route {
	out := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	return out
}

// Resolve guards a navigation to path, follows redirects and records the
// final location. The returned decision is for the path first requested;
// its Redirect holds where the console ended up when it was denied.
func (r *Router) Resolve(path string) Decision {
	requested := normalize(path)
	target := requested

	for i := 0; i < maxRedirects; i++ {
		d := r.check(target)
		if d.Allowed {
			r.setLocation(target)
			if target == requested {
				return d
			}
			return redirect(requested, target)
		}
		r.log.Debug().Str("path", target).Str("redirect", d.Redirect).Msg("navigation redirected")
		target = d.Redirect
	}

	r.log.Warn().Str("path", requested).Msg("too many redirects, sending to login")
	r.setLocation(r.loginRoute)
	return redirect(requested, r.loginRoute)
}

// Navigate implements the navigator used by the session manager and the
// response classifier.
func (r *Router) Navigate(path string) {
	r.Resolve(path)
}

// Check guards path without moving the console or following redirects.
func (r *Router) Check(path string) Decision {
	return r.check(normalize(path))
}

// Location is the route the console is on.
func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

func (r *Router) check(path string) Decision {
	route, ok := r.routes[path]
	if !ok {
		return redirect(path, r.loginRoute)
	}
	if route.RedirectTo != "" {
		return redirect(path, normalize(route.RedirectTo))
	}

	for _, g := range r.guards {
		if d := g.Check(route); !d.Allowed {
			return d
		}
	}
	return allow(path)
}

func (r *Router) setLocation(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.location = path
}
