package types

import "time"

// RecentReport is the prompt-facing summary of a community crime report.
type RecentReport struct {
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// CrimeReport is a user-submitted report.
type CrimeReport struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Address     string    `json:"address"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
