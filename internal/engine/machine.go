package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arthshield/fraudlabs/internal/audio"
	"github.com/arthshield/fraudlabs/internal/domain"
)

var (
	// ErrInvalidChoice means the choice ID is not valid for the current
	// step. The session is left unchanged.
	ErrInvalidChoice = errors.New("invalid choice for current step")
	// ErrNotTerminal means results were requested before the session
	// reached the terminal results step.
	ErrNotTerminal = errors.New("session has not reached results")
	// ErrNoSession means no simulation has been started yet.
	ErrNoSession = errors.New("no active simulation session")
	// ErrDisposed means the machine was torn down by its host.
	ErrDisposed = errors.New("simulation disposed")
)

// Config holds the simulation tunables. Defaults reproduce the scripted
// scenario: a 5 minute urgency timer, a 30 minute withdrawal session,
// and balance growth of 500-1500 every 3 seconds.
type Config struct {
	DefaultLanguage   string
	UrgencySeconds    int
	WithdrawalSeconds int
	CountdownInterval time.Duration
	GrowthInterval    time.Duration
	GrowthMin         domain.Money
	GrowthMax         domain.Money
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		DefaultLanguage:   "en",
		UrgencySeconds:    300,
		WithdrawalSeconds: 1800,
		CountdownInterval: time.Second,
		GrowthInterval:    3 * time.Second,
		GrowthMin:         500,
		GrowthMax:         1500,
	}
}

// CountdownState is the read model of an active countdown.
type CountdownState struct {
	Kind      CountdownKind `json:"kind"`
	Remaining int           `json:"remaining"`
	Total     int           `json:"total"`
}

// Snapshot is the read model the presentation layer renders from. It is
// a copy; handing it out never exposes the live session to mutation.
type Snapshot struct {
	Step             domain.Step             `json:"step"`
	Language         string                  `json:"language"`
	AwarenessScore   int                     `json:"awareness_score"`
	MaxScore         int                     `json:"max_score"`
	InvestmentAmount domain.Money            `json:"investment_amount"`
	SimulatedBalance domain.Money            `json:"simulated_balance"`
	WithdrawalFee    domain.Money            `json:"withdrawal_fee"`
	Countdown        *CountdownState         `json:"countdown,omitempty"`
	GrowthActive     bool                    `json:"growth_active"`
	Choices          []string                `json:"choices"`
	ChoiceLog        []domain.ChoiceLogEntry `json:"choice_log"`
	StartedAt        time.Time               `json:"started_at"`
}

// Machine owns one SimulationSession and orchestrates the narrative:
// step transitions, scoring, the timers each step starts and stops, and
// audio cue dispatch. All session mutation is serialized behind its
// mutex; timer callbacks re-check a generation counter under that mutex
// and a callback that lost a race with a transition is ignored.
type Machine struct {
	userID string
	cfg    Config
	sink   Sink
	audio  *audio.Dispatcher

	now  func() time.Time
	draw func() domain.Money

	mu           sync.Mutex
	session      *domain.SimulationSession
	scorer       ChoiceScorer
	countdown    *Countdown
	growth       *GrowthScheduler
	gen          uint64
	lastActivity time.Time
	disposed     bool
}

// NewMachine creates a machine wired to the given event sink and audio
// dispatcher, using the wall clock and uniform random growth draws.
func NewMachine(userID string, cfg Config, sink Sink, dispatcher *audio.Dispatcher) *Machine {
	return NewMachineWithSources(userID, cfg, sink, dispatcher, time.Now, UniformDraw(cfg.GrowthMin, cfg.GrowthMax))
}

// NewMachineWithSources creates a machine with injectable time and
// randomness sources for deterministic tests.
func NewMachineWithSources(userID string, cfg Config, sink Sink, dispatcher *audio.Dispatcher, now func() time.Time, draw func() domain.Money) *Machine {
	if sink == nil {
		sink = NopSink{}
	}
	if dispatcher == nil {
		dispatcher = audio.NewDispatcher(audio.NopPlayer{}, cfg.DefaultLanguage)
	}
	return &Machine{
		userID:       userID,
		cfg:          cfg,
		sink:         sink,
		audio:        dispatcher,
		now:          now,
		draw:         draw,
		lastActivity: now(),
	}
}

// Start resets the session to initial values at the intro step. The
// intro cue is primed but not auto-played; the client plays it through
// an explicit listen affordance.
func (m *Machine) Start(language string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return Snapshot{}, ErrDisposed
	}
	if language == "" {
		language = m.cfg.DefaultLanguage
	}

	m.stopTimersLocked()
	m.scorer.Reset()
	m.session = domain.NewSimulationSession(language, m.now())
	m.touchLocked()

	slog.Info("Simulation started", "user_id", m.userID, "language", language)
	m.publish(Event{Type: EventStepChanged, Step: domain.StepIntro})
	return m.snapshotLocked(), nil
}

// Choose applies the user's decision at the current step: scores it,
// appends it to the choice log, runs the outgoing step's exit effects,
// transitions, and runs the incoming step's entry effects.
//
// If the withdrawal countdown has already reached zero when the choice
// arrives, the forced expiry transition wins: it is applied here and the
// racing choice is rejected as invalid, so a single step is never scored
// twice.
func (m *Machine) Choose(choiceID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return Snapshot{}, ErrDisposed
	}
	if m.session == nil {
		return Snapshot{}, ErrNoSession
	}
	m.touchLocked()

	step := m.session.CurrentStep
	if step == domain.StepWithdrawalTrap && m.countdown != nil && m.countdown.Expired() {
		m.forceExpiryLocked()
		return m.snapshotLocked(), fmt.Errorf("withdrawal session expired before choice %q: %w", choiceID, ErrInvalidChoice)
	}

	choice, ok := findChoice(step, choiceID)
	if !ok {
		slog.Warn("Rejected choice", "user_id", m.userID, "step", step.String(), "choice_id", choiceID)
		return m.snapshotLocked(), fmt.Errorf("choice %q at step %s: %w", choiceID, step, ErrInvalidChoice)
	}

	// Static tables are trusted but re-validated against session state:
	// an investment package must carry an amount, and the returns step
	// cannot be entered without one.
	if step == domain.StepInvestment && choice.Amount <= 0 {
		slog.Warn("Rejected investment without amount", "user_id", m.userID, "choice_id", choiceID)
		return m.snapshotLocked(), fmt.Errorf("investment package %q has no amount: %w", choiceID, ErrInvalidChoice)
	}

	total := m.scorer.Apply(choice.AwarenessDelta)
	m.session.AwarenessScore = total
	m.session.RecordChoice(step, choice.ID, choice.AwarenessDelta, m.now())

	if step == domain.StepInvestment && m.session.InvestmentAmount == 0 {
		m.session.InvestmentAmount = choice.Amount
		m.session.SimulatedBalance = choice.Amount
	}

	m.exitStepLocked(step)
	m.enterStepLocked(choice.Next)

	slog.Info("Choice applied",
		"user_id", m.userID,
		"step", step.String(),
		"choice_id", choice.ID,
		"delta", choice.AwarenessDelta,
		"score", total,
		"next", choice.Next.String())

	return m.snapshotLocked(), nil
}

// Reset returns the session to its initial values at the intro step and
// cancels all active timers. The language is kept.
func (m *Machine) Reset() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return Snapshot{}, ErrDisposed
	}
	if m.session == nil {
		return Snapshot{}, ErrNoSession
	}
	m.touchLocked()

	language := m.session.Language
	m.stopTimersLocked()
	m.audio.Stop()
	m.scorer.Reset()
	m.session = domain.NewSimulationSession(language, m.now())

	slog.Info("Simulation reset", "user_id", m.userID)
	m.publish(Event{Type: EventSessionReset, Step: domain.StepIntro})
	m.publish(Event{Type: EventStepChanged, Step: domain.StepIntro})
	return m.snapshotLocked(), nil
}

// Results returns the terminal outcome. Valid only at the results step.
func (m *Machine) Results() (domain.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return domain.RunResult{}, ErrDisposed
	}
	if m.session == nil {
		return domain.RunResult{}, ErrNoSession
	}
	if !m.session.CurrentStep.Terminal() {
		return domain.RunResult{}, fmt.Errorf("current step %s: %w", m.session.CurrentStep, ErrNotTerminal)
	}

	log := make([]domain.ChoiceLogEntry, len(m.session.ChoiceLog))
	copy(log, m.session.ChoiceLog)
	return domain.RunResult{
		AwarenessScore: m.session.AwarenessScore,
		MaxScore:       domain.MaxAwarenessScore,
		ChoiceLog:      log,
		Language:       m.session.Language,
		CompletedAt:    m.now(),
	}, nil
}

// Snapshot returns the current read model.
func (m *Machine) Snapshot() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return Snapshot{}, ErrDisposed
	}
	if m.session == nil {
		return Snapshot{}, ErrNoSession
	}
	return m.snapshotLocked(), nil
}

// PlayCue requests playback of the current step's audio cue.
func (m *Machine) PlayCue() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}
	if m.session == nil {
		return ErrNoSession
	}
	m.touchLocked()
	m.audio.Play(m.session.CurrentStep, m.session.Language)
	return nil
}

// StopCue stops any active audio cue.
func (m *Machine) StopCue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}
	m.audio.Stop()
}

// Dispose cancels every owned timer and detaches the machine. The host
// calls it when the session is torn down; calling it again is a no-op.
func (m *Machine) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}
	m.stopTimersLocked()
	m.audio.Stop()
	m.session = nil
	m.disposed = true
	slog.Info("Simulation disposed", "user_id", m.userID)
}

// LastActivity returns the time of the last user-driven call; the TTL
// sweeper disposes machines idle past the session TTL.
func (m *Machine) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// UserID returns the owning user.
func (m *Machine) UserID() string {
	return m.userID
}

// --- step entry/exit effects ---

func (m *Machine) enterStepLocked(step domain.Step) {
	m.session.CurrentStep = step
	m.publish(Event{Type: EventStepChanged, Step: step, Score: m.session.AwarenessScore, Balance: m.session.SimulatedBalance})

	switch step {
	case domain.StepSocialProof:
		m.startCountdownLocked(CountdownUrgency, m.cfg.UrgencySeconds)
	case domain.StepFakeReturns:
		m.startGrowthLocked()
	case domain.StepWithdrawalTrap:
		m.startCountdownLocked(CountdownSessionExpiry, m.cfg.WithdrawalSeconds)
	case domain.StepScamRevealed:
		// Nothing should still be running here; stop residual timers
		// anyway so a wiring mistake cannot leak one.
		m.stopTimersLocked()
	case domain.StepResults:
		m.publish(Event{Type: EventResultsReady, Step: step, Score: m.session.AwarenessScore})
	}
}

func (m *Machine) exitStepLocked(step domain.Step) {
	switch step {
	case domain.StepSocialProof, domain.StepWithdrawalTrap:
		m.stopCountdownLocked()
	case domain.StepFakeReturns:
		m.stopGrowthLocked()
	}
}

// --- timers ---

func (m *Machine) startCountdownLocked(kind CountdownKind, seconds int) {
	m.stopCountdownLocked()
	gen := m.gen
	step := m.session.CurrentStep

	onTick := func(remaining int) {
		m.sink.Publish(m.userID, Event{Type: EventCountdownTick, Step: step, Timer: kind, Remaining: remaining})
	}
	var onExpire func()
	switch kind {
	case CountdownSessionExpiry:
		onExpire = func() { m.handleWithdrawalExpiry(gen) }
	default:
		onExpire = func() { m.handleUrgencyExpiry(gen) }
	}

	m.countdown = NewCountdown(kind, seconds, m.cfg.CountdownInterval, onTick, onExpire)
	m.countdown.Start()
}

func (m *Machine) stopCountdownLocked() {
	if m.countdown != nil {
		m.countdown.Cancel()
		m.countdown = nil
		m.gen++
	}
}

func (m *Machine) startGrowthLocked() {
	m.stopGrowthLocked()
	gen := m.gen
	m.growth = NewGrowthScheduler(m.cfg.GrowthInterval, m.draw, func(inc domain.Money) {
		m.applyProfit(gen, inc)
	})
	m.growth.Start()
}

func (m *Machine) stopGrowthLocked() {
	if m.growth != nil {
		m.growth.Cancel()
		m.growth = nil
		m.gen++
	}
}

func (m *Machine) stopTimersLocked() {
	m.stopCountdownLocked()
	m.stopGrowthLocked()
}

// applyProfit runs on the growth scheduler's goroutine.
func (m *Machine) applyProfit(gen uint64, inc domain.Money) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.session == nil || gen != m.gen {
		return
	}
	if m.session.CurrentStep != domain.StepFakeReturns {
		return
	}
	m.session.SimulatedBalance += inc
	m.publish(Event{
		Type:      EventProfit,
		Step:      domain.StepFakeReturns,
		Increment: inc,
		Balance:   m.session.SimulatedBalance,
	})
}

// handleWithdrawalExpiry runs on the countdown's goroutine when the
// withdrawal session timer reaches zero.
func (m *Machine) handleWithdrawalExpiry(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.session == nil || gen != m.gen {
		return
	}
	if m.session.CurrentStep != domain.StepWithdrawalTrap {
		return
	}
	m.forceExpiryLocked()
}

// forceExpiryLocked applies the forced WithdrawalTrap -> ScamRevealed
// transition: the scam site vanishes. The implicit choice carries a zero
// delta so the expiry never changes the score.
func (m *Machine) forceExpiryLocked() {
	m.session.RecordChoice(domain.StepWithdrawalTrap, ChoiceSessionExpired, 0, m.now())
	m.publish(Event{Type: EventCountdownExpired, Step: domain.StepWithdrawalTrap, Timer: CountdownSessionExpiry})
	m.stopCountdownLocked()
	slog.Info("Withdrawal session expired, forcing scam reveal", "user_id", m.userID)
	m.enterStepLocked(domain.StepScamRevealed)
}

// handleUrgencyExpiry runs when the social proof urgency timer hits
// zero. The offer "expiring" is part of the act; the step does not
// transition.
func (m *Machine) handleUrgencyExpiry(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.session == nil || gen != m.gen {
		return
	}
	if m.session.CurrentStep != domain.StepSocialProof {
		return
	}
	m.publish(Event{Type: EventCountdownExpired, Step: domain.StepSocialProof, Timer: CountdownUrgency})
	m.stopCountdownLocked()
}

// --- helpers ---

func (m *Machine) publish(ev Event) {
	m.sink.Publish(m.userID, ev)
}

func (m *Machine) touchLocked() {
	m.lastActivity = m.now()
}

func (m *Machine) snapshotLocked() Snapshot {
	s := m.session
	snap := Snapshot{
		Step:             s.CurrentStep,
		Language:         s.Language,
		AwarenessScore:   s.AwarenessScore,
		MaxScore:         domain.MaxAwarenessScore,
		InvestmentAmount: s.InvestmentAmount,
		SimulatedBalance: s.SimulatedBalance,
		GrowthActive:     m.growth != nil && m.growth.Active(),
		Choices:          ChoiceIDsFor(s.CurrentStep),
		ChoiceLog:        append([]domain.ChoiceLogEntry(nil), s.ChoiceLog...),
		StartedAt:        s.StartedAt,
	}
	if s.CurrentStep == domain.StepWithdrawalTrap {
		snap.WithdrawalFee = s.WithdrawalFee()
	}
	if m.countdown != nil && !m.countdown.Expired() {
		snap.Countdown = &CountdownState{
			Kind:      m.countdown.Kind(),
			Remaining: m.countdown.Remaining(),
			Total:     m.countdown.Total(),
		}
	}
	return snap
}
