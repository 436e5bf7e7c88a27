package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Job statuses.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}

// Report is a generated coach review of one period, keyed "<PERIOD>_<YYYY-MM-DD>".
type Report struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	Period     string    `json:"period"`
	DateKey    string    `json:"date"`
	Content    string    `json:"content"`
	Summary    string    `json:"summary"`
	EntryCount int       `json:"entry_count"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}
