// Package audio dispatches per-step narration cues to an external
// playback collaborator. The engine never inspects playback outcomes;
// audio is best-effort and non-blocking.
package audio

import (
	"sync"

	"github.com/arthshield/fraudlabs/internal/domain"
)

// Player is the consumed playback interface. Implementations deliver the
// cue to whatever actually renders sound (in practice, a websocket event
// that tells the client app which clip to play).
type Player interface {
	PlayCue(cueIndex int, language string)
	StopCue()
}

// NopPlayer discards cue requests.
type NopPlayer struct{}

// PlayCue implements Player.
func (NopPlayer) PlayCue(int, string) {}

// StopCue implements Player.
func (NopPlayer) StopCue() {}

// cueLanguages are the languages with recorded narration. Each carries
// one cue per step, indexed 0..7 in step order; requests for any other
// language fall back to the dispatcher's default.
var cueLanguages = map[string]struct{}{
	"en": {},
	"hi": {},
	"ta": {},
}

// CueIndex maps a step to its cue index in the per-language ordered cue
// list.
func CueIndex(step domain.Step) int {
	if !step.Valid() {
		return 0
	}
	return int(step)
}

// Dispatcher enforces the at-most-one-active-cue rule over a Player.
type Dispatcher struct {
	player          Player
	defaultLanguage string

	mu     sync.Mutex
	active bool
}

// NewDispatcher creates a dispatcher over the given player.
func NewDispatcher(player Player, defaultLanguage string) *Dispatcher {
	if player == nil {
		player = NopPlayer{}
	}
	return &Dispatcher{player: player, defaultLanguage: defaultLanguage}
}

// Play requests the cue for a step and language, stopping any currently
// playing cue first.
func (d *Dispatcher) Play(step domain.Step, language string) {
	if _, ok := cueLanguages[language]; !ok {
		language = d.defaultLanguage
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		d.player.StopCue()
	}
	d.player.PlayCue(CueIndex(step), language)
	d.active = true
}

// Stop stops any active cue. Used on session reset and teardown.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return
	}
	d.player.StopCue()
	d.active = false
}
