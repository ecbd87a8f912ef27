package model

import (
	"time"

	"github.com/google/uuid"
)

// VisitStatus is the per-visit state machine. Transitions are forward-only:
// Waiting -> InConsultation -> Completed, no skips, no backward moves.
type VisitStatus string

const (
	StatusWaiting        VisitStatus = "waiting"
	StatusInConsultation VisitStatus = "in_consultation"
	StatusCompleted      VisitStatus = "completed"
)

type Patient struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Token     string      `db:"token" json:"token"`
	Name      string      `db:"name" json:"name"`
	Age       int         `db:"age" json:"age"`
	Gender    string      `db:"gender" json:"gender"`
	Contact   string      `db:"contact" json:"contact"`
	Symptoms  string      `db:"symptoms" json:"symptoms"`
	Charges   int         `db:"charges" json:"charges"`
	Status    VisitStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

type RegisterPatientRequest struct {
	Name     string `json:"name" binding:"required"`
	Age      int    `json:"age" binding:"required,gt=0"`
	Gender   string `json:"gender" binding:"required"`
	Contact  string `json:"contact" binding:"required"`
	Symptoms string `json:"symptoms" binding:"required"`
}

type SetChargesRequest struct {
	Charges *int `json:"charges" binding:"required,gte=0"`
}

// DashboardStats mirrors the stat cards on both portals: queue counts plus
// the receptionist's revenue total.
type DashboardStats struct {
	Total          int `db:"total" json:"total"`
	Waiting        int `db:"waiting" json:"waiting"`
	InConsultation int `db:"in_consultation" json:"in_consultation"`
	Completed      int `db:"completed" json:"completed"`
	Revenue        int `db:"revenue" json:"revenue"`
}
