package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is one of exactly two staff roles. There is no dynamic role
// configuration; anything role-specific lives in the RoleConfigs table.
type Role string

const (
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleDoctor || r == RoleReceptionist
}

// RoleConfig maps a role to its presentation surface. Closed table,
// validated at compile time by the enum.
type RoleConfig struct {
	Title      string
	PortalPath string
}

var RoleConfigs = map[Role]RoleConfig{
	RoleDoctor: {
		Title:      "Doctor",
		PortalPath: "/doctor-dashboard",
	},
	RoleReceptionist: {
		Title:      "Receptionist",
		PortalPath: "/receptionist-dashboard",
	},
}

type VerificationState string

const (
	VerificationPending  VerificationState = "pending"
	VerificationVerified VerificationState = "verified"
)

type Account struct {
	ID           uuid.UUID         `db:"id" json:"id"`
	Email        string            `db:"email" json:"email"`
	PasswordHash string            `db:"password_hash" json:"-"`
	FullName     string            `db:"full_name" json:"full_name"`
	Role         Role              `db:"role" json:"role"`
	Verification VerificationState `db:"verification" json:"verification"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Role     Role   `json:"role" binding:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
