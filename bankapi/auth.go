package bankapi

import (
	"context"
	"fmt"
)

// Authentication endpoints, relative to the API base URL.
const (
	LoginPath           = "/v1/auth/login"
	RefreshPath         = "/v1/auth/refresh"
	LogoutPath          = "/v1/auth/logout"
	RegisterPath        = "/v1/auth/register"
	ChangePasswordPath  = "/v1/auth/change-password"
	VerifyTwoFactorPath = "/v1/auth/verify-2fa"
)

// AuthService calls the authentication endpoints. Every call except
// Refresh is marked so the classifier neither notifies nor forces logout:
// the screens behind them render their own errors.
type AuthService struct {
	client *Client
}

func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

func (a *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := a.client.Post(authEndpoint(ctx), LoginPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *AuthService) VerifyTwoFactor(ctx context.Context, req VerifyTwoFactorRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := a.client.Post(authEndpoint(ctx), VerifyTwoFactorPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges the refresh token. The API reads it from the
// Authorization header; it is also sent in the body for older deployments.
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("[AuthService Refresh] empty refresh token")
	}
	var resp AuthResponse
	err := a.client.Post(ctx, RefreshPath, RefreshRequest{RefreshToken: refreshToken}, &resp, WithBearer(refreshToken))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes the tokens server side. The caller passes the access
// token because the local session is already gone by the time this runs.
func (a *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) (string, error) {
	var text string
	err := a.client.Post(authEndpoint(ctx), LogoutPath, LogoutRequest{RefreshToken: refreshToken}, &text, WithBearer(accessToken))
	return text, err
}

func (a *AuthService) Register(ctx context.Context, req RegisterRequest) error {
	return a.client.Post(authEndpoint(ctx), RegisterPath, req, nil)
}

func (a *AuthService) ChangePassword(ctx context.Context, req ChangePasswordRequest) (string, error) {
	var text string
	err := a.client.Post(authEndpoint(ctx), ChangePasswordPath, req, &text)
	return text, err
}
