package model

import (
	"time"

	"github.com/google/uuid"
)

// Session is the caller-visible binding of a client to a verified account.
// It is carried in the access token; RedirectTo is the role's portal path so
// the client can route without a second lookup.
type Session struct {
	AccountID  uuid.UUID `json:"account_id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	RedirectTo string    `json:"redirect_to"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type TokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	Session      *Session `json:"session"`
}

type TokenClaims struct {
	AccountID uuid.UUID
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// SessionEvent is published on the broker whenever a session is established
// or torn down, including by a verification callback that completes after
// the client first rendered.
type SessionEvent struct {
	Type       string    `json:"type"`
	AccountID  uuid.UUID `json:"account_id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	RedirectTo string    `json:"redirect_to,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	SessionEventSignedIn  = "signed_in"
	SessionEventSignedOut = "signed_out"
	SessionEventVerified  = "verified"
)
