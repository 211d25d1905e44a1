package guard

import (
	"strings"

	"github.com/jrsteele09/go-bank-backoffice/users"
)

// Route is one console view and who may open it.
type Route struct {
	Path       string
	Title      string
	Roles      []users.RoleType // Empty means any signed in operator
	Public     bool             // No session needed
	RedirectTo string           // Set for alias routes
}

// Permits reports whether role may open the route.
func (r Route) Permits(role users.RoleType) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// DefaultRoutes is the back office route table.
func DefaultRoutes() []Route {
	adminOnly := []users.RoleType{users.RoleAdmin}
	return []Route{
		{Path: "/login", Title: "Sign in", Public: true},
		{Path: "/", RedirectTo: "/dashboard"},
		{Path: "/dashboard", Title: "Dashboard"},
		{Path: "/clients", Title: "Clients"},
		{Path: "/accounts", Title: "Accounts"},
		{Path: "/operations", Title: "Banking operations"},
		{Path: "/transactions", Title: "Transactions"},
		{Path: "/profile", Title: "Profile"},
		{Path: "/reports", Title: "Reports", Roles: adminOnly},
		{Path: "/settings", Title: "Settings", Roles: adminOnly},
		{Path: "/users", Title: "Operators", Roles: adminOnly},
	}
}

// normalize strips the query, fragment and trailing slash.
func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	return path
}
