package models

import (
	"time"
)

// SyncRun is the persisted audit row for one reconciliation run.
type SyncRun struct {
	ID          string        `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Status      string        `json:"status" gorm:"not null"`
	Message     string        `json:"message"`
	Deleted     int           `json:"deleted"`
	Updated     int           `json:"updated"`
	TriggeredBy string        `json:"triggered_by"`
	Duration    time.Duration `json:"duration"`
	StartedAt   time.Time     `json:"started_at"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

// Submission records the outcome of one hybrid write, including partial
// failures where the secondary record was preserved.
type Submission struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SecondaryKey string    `json:"secondary_key" gorm:"not null"`
	RequestID    string    `json:"request_id"`
	Owner        string    `json:"owner"`
	Status       string    `json:"status" gorm:"not null"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type SubmissionFilter struct {
	Owner  string
	Status string
	Limit  int
	Offset int
}
