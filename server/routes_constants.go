package server

// Route path constants
// All gateway routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteAuthLogin           = "/api/auth/login"
	RouteAuthLogout          = "/api/auth/logout"
	RouteAuthRefresh         = "/api/auth/refresh"
	RouteAuthVerifyTwoFactor = "/api/auth/verify-2fa"
	RouteAuthChangePassword  = "/api/auth/change-password"
	RouteAuthRegister        = "/api/auth/register"

	// Session & Navigation
	RouteSession  = "/api/session"
	RouteNavigate = "/api/navigate"

	// Notifications
	RouteNotifications     = "/api/notifications"
	RouteNotificationsRead = "/api/notifications/read"
	RouteNotificationsWS   = "/ws/notifications"

	// Banking resources, relayed to the Banking API
	RouteClients      = "/api/clients"
	RouteAccounts     = "/api/accounts"
	RouteTransactions = "/api/accounts/{number}/transactions"
)

// Console views that guard the gateway routes above.
const (
	viewClients      = "/clients"
	viewAccounts     = "/accounts"
	viewTransactions = "/transactions"
	viewProfile      = "/profile"
	viewUsers        = "/users"
)
