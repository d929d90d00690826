package audio

import (
	"testing"

	"github.com/arthshield/fraudlabs/internal/domain"
)

type recordPlayer struct {
	calls []playCall
}

type playCall struct {
	op       string
	cue      int
	language string
}

func (p *recordPlayer) PlayCue(cueIndex int, language string) {
	p.calls = append(p.calls, playCall{op: "play", cue: cueIndex, language: language})
}

func (p *recordPlayer) StopCue() {
	p.calls = append(p.calls, playCall{op: "stop"})
}

func TestCueIndex_FollowsStepOrder(t *testing.T) {
	for i := 0; i < domain.StepCount; i++ {
		if got := CueIndex(domain.Step(i)); got != i {
			t.Errorf("CueIndex(%s) = %d, want %d", domain.Step(i), got, i)
		}
	}
	if got := CueIndex(domain.Step(99)); got != 0 {
		t.Errorf("CueIndex of invalid step = %d, want 0", got)
	}
}

func TestDispatcher_PlayDeliversCue(t *testing.T) {
	player := &recordPlayer{}
	d := NewDispatcher(player, "en")

	d.Play(domain.StepFakePlatform, "hi")

	if len(player.calls) != 1 {
		t.Fatalf("Expected 1 call, got %d", len(player.calls))
	}
	got := player.calls[0]
	if got.op != "play" || got.cue != int(domain.StepFakePlatform) || got.language != "hi" {
		t.Errorf("Unexpected call %+v", got)
	}
}

func TestDispatcher_SecondPlayStopsFirst(t *testing.T) {
	player := &recordPlayer{}
	d := NewDispatcher(player, "en")

	d.Play(domain.StepIntro, "en")
	d.Play(domain.StepSocialProof, "en")

	want := []playCall{
		{op: "play", cue: 0, language: "en"},
		{op: "stop"},
		{op: "play", cue: 1, language: "en"},
	}
	if len(player.calls) != len(want) {
		t.Fatalf("Expected calls %v, got %v", want, player.calls)
	}
	for i := range want {
		if player.calls[i] != want[i] {
			t.Fatalf("Call %d = %+v, want %+v", i, player.calls[i], want[i])
		}
	}
}

func TestDispatcher_StopIsIdempotent(t *testing.T) {
	player := &recordPlayer{}
	d := NewDispatcher(player, "en")

	d.Stop()
	if len(player.calls) != 0 {
		t.Fatal("Stop without an active cue must not reach the player")
	}

	d.Play(domain.StepResults, "en")
	d.Stop()
	d.Stop()

	stops := 0
	for _, c := range player.calls {
		if c.op == "stop" {
			stops++
		}
	}
	if stops != 1 {
		t.Errorf("Expected exactly 1 stop call, got %d", stops)
	}
}

func TestDispatcher_UnknownLanguageFallsBack(t *testing.T) {
	player := &recordPlayer{}
	d := NewDispatcher(player, "en")

	d.Play(domain.StepIntro, "de")

	if player.calls[0].language != "en" {
		t.Errorf("Expected fallback to en, got %q", player.calls[0].language)
	}
}

func TestNewDispatcher_NilPlayer(t *testing.T) {
	d := NewDispatcher(nil, "en")
	d.Play(domain.StepIntro, "en")
	d.Stop()
}
