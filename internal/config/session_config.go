package config

import "time"

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetLoginRoute() string {
	return "/login"
}

// GetLandingRoute is where a successful login navigates to.
func (Session) GetLandingRoute() string {
	return "/dashboard"
}

// GetFallbackRoute is where an authenticated but unauthorized user is sent.
// Every role must be allowed to open it.
func (Session) GetFallbackRoute() string {
	return "/transactions"
}

func (Session) GetRefreshCookieFallback() time.Duration {
	return 7 * 24 * time.Hour // 7 days
}

func (Session) GetDefaultAccessTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func (Session) GetLogoutTimeout() time.Duration {
	return 5 * time.Second
}

func (Session) GetRequestTimeout() time.Duration {
	return 30 * time.Second
}

type Notifications struct{}

var _ NotificationConfig = Notifications{}

func (Notifications) GetNotificationWindow() time.Duration {
	return 1500 * time.Millisecond
}

func (Notifications) GetNotificationHistory() int {
	return 100
}
