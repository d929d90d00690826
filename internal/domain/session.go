package domain

import "time"

// Money is a simulated rupee amount. Nothing in the system is backed by
// real value; the type exists so balances and increments don't mix with
// scores or counts.
type Money int64

// MaxAwarenessScore is the ceiling for the accumulated awareness score
// across the six scoring points of a run.
const MaxAwarenessScore = 10

// ChoiceLogEntry records one user decision: which step it was taken at,
// the choice identifier, and the awareness delta it carried.
type ChoiceLogEntry struct {
	Step       Step      `json:"step"`
	ChoiceID   string    `json:"choice_id"`
	ScoreDelta int       `json:"score_delta"`
	At         time.Time `json:"at"`
}

// SimulationSession is the aggregate root for one simulation run. It is
// exclusively owned by one state machine instance; all mutation goes
// through the engine.
type SimulationSession struct {
	CurrentStep      Step             `json:"current_step"`
	Language         string           `json:"language"`
	InvestmentAmount Money            `json:"investment_amount"`
	SimulatedBalance Money            `json:"simulated_balance"`
	AwarenessScore   int              `json:"awareness_score"`
	ChoiceLog        []ChoiceLogEntry `json:"choice_log"`
	StartedAt        time.Time        `json:"started_at"`
}

// NewSimulationSession returns a session at its initial values.
func NewSimulationSession(language string, now time.Time) *SimulationSession {
	return &SimulationSession{
		CurrentStep: StepIntro,
		Language:    language,
		StartedAt:   now,
	}
}

// RecordChoice appends a decision to the append-only choice log.
func (s *SimulationSession) RecordChoice(step Step, choiceID string, delta int, at time.Time) {
	s.ChoiceLog = append(s.ChoiceLog, ChoiceLogEntry{
		Step:       step,
		ChoiceID:   choiceID,
		ScoreDelta: delta,
		At:         at,
	})
}

// WithdrawalFeeBps is the processing-fee rate the fake platform quotes at
// the withdrawal trap, in basis points of the frozen balance. The fee is
// presentational only and never deducted from the balance.
const WithdrawalFeeBps = 1000

// WithdrawalFee returns the quoted fee over the current frozen balance.
func (s *SimulationSession) WithdrawalFee() Money {
	return s.SimulatedBalance * WithdrawalFeeBps / 10000
}
