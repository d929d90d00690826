// Package engine implements the fraud-awareness simulation: the step
// state machine, scoring, countdown timers, and the fake balance growth
// scheduler.
package engine

import "github.com/arthshield/fraudlabs/internal/domain"

// ScoredChoice is a static per-step decision definition. Choices at a
// step converge on the same next step; only the awareness delta differs,
// so the narrative stays linear regardless of what the user picks.
type ScoredChoice struct {
	ID             string
	AwarenessDelta int
	Next           domain.Step
	// Amount is set only for investment package choices; it becomes the
	// session's investment amount and seeds the simulated balance.
	Amount domain.Money
}

// ChoiceSessionExpired is the implicit choice recorded when the
// withdrawal countdown reaches zero without user action.
const ChoiceSessionExpired = "session_expired"

// maxChoiceDelta bounds a single decision's awareness delta. Apply
// enforces it even though the static tables already respect it.
const maxChoiceDelta = 3

var stepChoices = map[domain.Step][]ScoredChoice{
	domain.StepIntro: {
		{ID: "accept_invite", AwarenessDelta: 0, Next: domain.StepSocialProof},
	},
	domain.StepSocialProof: {
		{ID: "join_now", AwarenessDelta: -2, Next: domain.StepFakePlatform},
		{ID: "looks_suspicious", AwarenessDelta: 2, Next: domain.StepFakePlatform},
	},
	domain.StepFakePlatform: {
		{ID: "invest_immediately", AwarenessDelta: -3, Next: domain.StepInvestment},
		{ID: "ask_for_details", AwarenessDelta: 3, Next: domain.StepInvestment},
	},
	domain.StepInvestment: {
		{ID: "package_5000", Next: domain.StepFakeReturns, Amount: 5000},
		{ID: "package_10000", Next: domain.StepFakeReturns, Amount: 10000},
		{ID: "package_50000", Next: domain.StepFakeReturns, Amount: 50000},
	},
	domain.StepFakeReturns: {
		{ID: "withdraw_profits", AwarenessDelta: 0, Next: domain.StepWithdrawalTrap},
		{ID: "too_good_to_be_true", AwarenessDelta: 2, Next: domain.StepWithdrawalTrap},
	},
	domain.StepWithdrawalTrap: {
		{ID: "pay_fee", AwarenessDelta: -3, Next: domain.StepScamRevealed},
		{ID: "refuse_fee", AwarenessDelta: 3, Next: domain.StepScamRevealed},
	},
	domain.StepScamRevealed: {
		{ID: "view_results", AwarenessDelta: 0, Next: domain.StepResults},
	},
}

// ChoicesFor returns the static choices available at a step. The terminal
// results step has none.
func ChoicesFor(step domain.Step) []ScoredChoice {
	return stepChoices[step]
}

// ChoiceIDsFor returns just the choice identifiers for a step, in table
// order, for option rendering.
func ChoiceIDsFor(step domain.Step) []string {
	choices := stepChoices[step]
	ids := make([]string, 0, len(choices))
	for _, c := range choices {
		ids = append(ids, c.ID)
	}
	return ids
}

func findChoice(step domain.Step, choiceID string) (ScoredChoice, bool) {
	for _, c := range stepChoices[step] {
		if c.ID == choiceID {
			return c, true
		}
	}
	return ScoredChoice{}, false
}
