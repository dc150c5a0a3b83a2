package application

import (
	"time"

	"github.com/google/uuid"
)

// Application is the cached projection of a tracked job application.
type Application struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	Status    Status    `json:"status"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	AppliedAt time.Time `json:"applied_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Status string

const (
	StatusApplied      Status = "applied"
	StatusScreening    Status = "screening"
	StatusInterviewing Status = "interviewing"
	StatusOffer        Status = "offer"
	StatusRejected     Status = "rejected"
	StatusWithdrawn    Status = "withdrawn"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusApplied, StatusScreening, StatusInterviewing, StatusOffer, StatusRejected, StatusWithdrawn:
		return true
	default:
		return false
	}
}

// Page is one cached page of a user's application list.
type Page struct {
	Items      []*Application `json:"items"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}
