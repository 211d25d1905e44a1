package bankapi

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Username      string `json:"username" validate:"required"`
	Password      string `json:"password" validate:"required"`
	TwoFactorCode string `json:"twoFactorCode,omitempty"`
	RememberMe    bool   `json:"rememberMe,omitempty"`
}

// AuthResponse is returned by login, refresh and two factor verification.
type AuthResponse struct {
	// AccessToken is the bearer credential for every other endpoint.
	AccessToken string `json:"access_token"`

	// RefreshToken is only ever sent back to /v1/auth/refresh.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is "Bearer" when present.
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is an optional lifetime hint in seconds. The token's own
	// exp claim wins when it can be read.
	ExpiresIn int64 `json:"expires_in,omitempty"`

	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`

	// TwoFactorRequired is set instead of tokens when the account needs a
	// second factor. Complete with POST /v1/auth/verify-2fa.
	TwoFactorRequired bool `json:"two_factor_required,omitempty"`
}

// RegisterRequest creates an operator account. Admin only.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,operator_role"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type VerifyTwoFactorRequest struct {
	Username string `json:"username"`
	Code     string `json:"code" validate:"required"`
}
