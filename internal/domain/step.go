// Package domain contains core domain types for the fraud-awareness
// simulation service.
package domain

import "fmt"

// Step is one stage of the fixed linear simulation narrative.
// Steps are totally ordered; the machine only ever moves forward one
// step at a time, or back to Intro on an explicit reset.
type Step int

const (
	StepIntro Step = iota
	StepSocialProof
	StepFakePlatform
	StepInvestment
	StepFakeReturns
	StepWithdrawalTrap
	StepScamRevealed
	StepResults
)

// StepCount is the number of steps in the narrative.
const StepCount = 8

var stepNames = [StepCount]string{
	"intro",
	"social_proof",
	"fake_platform",
	"investment",
	"fake_returns",
	"withdrawal_trap",
	"scam_revealed",
	"results",
}

// String returns the wire name of the step.
func (s Step) String() string {
	if s < 0 || int(s) >= StepCount {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether the step is within the narrative range.
func (s Step) Valid() bool {
	return s >= StepIntro && s <= StepResults
}

// Terminal reports whether the step is the terminal results step.
func (s Step) Terminal() bool {
	return s == StepResults
}

// MarshalText implements encoding.TextMarshaler so steps serialize as
// their wire names in JSON payloads.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Step) UnmarshalText(text []byte) error {
	name := string(text)
	for i, n := range stepNames {
		if n == name {
			*s = Step(i)
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", name)
}

// ParseStep resolves a wire name to a Step.
func ParseStep(name string) (Step, error) {
	var s Step
	if err := s.UnmarshalText([]byte(name)); err != nil {
		return 0, err
	}
	return s, nil
}
