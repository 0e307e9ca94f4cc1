package domain

import "time"

// ============================================================
// Sales reps & authentication
// ============================================================

// SalesRep is a member of the sales team (sales_reps table).
type SalesRep struct {
	ID             string    `json:"id"`
	Name           string    `json:"name" validate:"required"`
	Email          string    `json:"email" validate:"required,email"`
	Phone          string    `json:"phone"`
	CommissionRate float64   `json:"commissionRate" validate:"gte=0,lte=100"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body for 200 from POST /v1/auth/login.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	RepID        string `json:"repId"`
	RepName      string `json:"repName"`
}

// RefreshRequest is the body for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SetPasswordRequest is the body for PUT /v1/sales-reps/{repId}/password.
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// RepCredential is the stored password hash of a sales rep.
type RepCredential struct {
	RepID          string     `json:"rep_id"`
	PasswordHash   string     `json:"password_hash"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until"`
	LastLoginAt    *time.Time `json:"last_login_at"`
}

// RefreshToken is a stored (hashed) refresh token.
type RefreshToken struct {
	RepID     string     `json:"rep_id"`
	TokenHash string     `json:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}
