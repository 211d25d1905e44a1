package server

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthVerifyTwoFactor, ChainMiddleware(s.VerifyTwoFactorHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthChangePassword, ChainMiddleware(s.ChangePasswordHandler(), s.APIMiddleware(s.RequireView(viewProfile))...))
	s.RegisterRouteFunc("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware(s.RequireView(viewUsers))...))

	// SESSION & NAVIGATION
	s.RegisterRouteFunc("GET "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteNavigate, ChainMiddleware(s.NavigateHandler(), s.APIMiddleware()...))

	// NOTIFICATIONS
	s.RegisterRouteFunc("GET "+RouteNotifications, ChainMiddleware(s.NotificationsHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteNotificationsRead, ChainMiddleware(s.NotificationsReadHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteNotificationsWS, ChainMiddleware(s.NotificationsStreamHandler(), s.APIMiddleware()...))

	// BANKING RESOURCES
	s.RegisterRouteFunc("GET "+RouteClients, ChainMiddleware(s.ClientsHandler(), s.APIMiddleware(s.RequireView(viewClients))...))
	s.RegisterRouteFunc("GET "+RouteAccounts, ChainMiddleware(s.AccountsHandler(), s.APIMiddleware(s.RequireView(viewAccounts))...))
	s.RegisterRouteFunc("GET "+RouteTransactions, ChainMiddleware(s.TransactionsHandler(), s.APIMiddleware(s.RequireView(viewTransactions))...))
}
