package domain

import "time"

// RunResult is the terminal outcome of one completed simulation run.
// It is the structured record handed to the share/export surface and
// persisted for the user's history.
type RunResult struct {
	AwarenessScore int              `json:"awareness_score"`
	MaxScore       int              `json:"max_score"`
	ChoiceLog      []ChoiceLogEntry `json:"choice_log"`
	Language       string           `json:"language"`
	CompletedAt    time.Time        `json:"completed_at"`
}

// RunRecord is a persisted RunResult with its storage identity.
type RunRecord struct {
	ID     int64     `json:"id"`
	UserID string    `json:"user_id"`
	Result RunResult `json:"result"`
}
