package engine

import "github.com/arthshield/fraudlabs/internal/domain"

// ChoiceScorer accumulates the awareness score for one run. It is a pure
// accumulator: deltas are clamped per decision and the running total is
// clamped to [0, MaxAwarenessScore], never wrapped.
type ChoiceScorer struct {
	total int
}

// Apply adds a decision's delta and returns the new total. The delta is
// clamped to the per-choice bound before it is applied.
func (s *ChoiceScorer) Apply(delta int) int {
	if delta > maxChoiceDelta {
		delta = maxChoiceDelta
	}
	if delta < -maxChoiceDelta {
		delta = -maxChoiceDelta
	}

	s.total += delta
	if s.total < 0 {
		s.total = 0
	}
	if s.total > domain.MaxAwarenessScore {
		s.total = domain.MaxAwarenessScore
	}
	return s.total
}

// Total returns the current accumulated score.
func (s *ChoiceScorer) Total() int {
	return s.total
}

// Reset zeroes the accumulator. Used only on session reset.
func (s *ChoiceScorer) Reset() {
	s.total = 0
}
