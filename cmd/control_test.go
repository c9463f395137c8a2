package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jfmyers9/spotiwise/pkg/spotiwise"
)

type fakePlayer struct {
	calls   []string
	shuffle *bool
	volume  int
	err     error
}

func (p *fakePlayer) record(call string) error {
	p.calls = append(p.calls, call)
	return p.err
}

func (p *fakePlayer) Play(ctx context.Context) error     { return p.record("play") }
func (p *fakePlayer) Pause(ctx context.Context) error    { return p.record("pause") }
func (p *fakePlayer) Next(ctx context.Context) error     { return p.record("next") }
func (p *fakePlayer) Previous(ctx context.Context) error { return p.record("previous") }

func (p *fakePlayer) Shuffle(ctx context.Context, shuffle bool) error {
	p.shuffle = &shuffle
	return p.record("shuffle")
}

func (p *fakePlayer) Volume(ctx context.Context, percent int) error {
	p.volume = percent
	return p.record("volume")
}

type fakeState struct {
	playback *spotiwise.Playback
	err      error
}

func (s fakeState) CurrentPlayback(ctx context.Context) (*spotiwise.Playback, error) {
	return s.playback, s.err
}

func newTestController(pb *spotiwise.Playback) (*controller, *fakePlayer, *bytes.Buffer) {
	p := &fakePlayer{}
	out := &bytes.Buffer{}
	return &controller{player: p, state: fakeState{playback: pb}, out: out}, p, out
}

func TestController_PlayPauseToggles(t *testing.T) {
	tests := []struct {
		name    string
		playing bool
		want    string
	}{
		{name: "pauses when playing", playing: true, want: "pause"},
		{name: "plays when paused", playing: false, want: "play"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, p, _ := newTestController(&spotiwise.Playback{IsPlaying: tt.playing})
			if err := c.playPause(context.Background(), nil); err != nil {
				t.Fatalf("playPause: %v", err)
			}
			if len(p.calls) != 1 || p.calls[0] != tt.want {
				t.Errorf("expected [%s], got %v", tt.want, p.calls)
			}
		})
	}
}

func TestController_NoActiveDevice(t *testing.T) {
	c, p, _ := newTestController(nil)
	if err := c.playPause(context.Background(), nil); err == nil {
		t.Fatal("expected an error without an active device")
	}
	if err := c.volume(context.Background(), nil); err == nil {
		t.Fatal("expected an error without an active device")
	}
	if len(p.calls) != 0 {
		t.Errorf("unexpected player calls %v", p.calls)
	}
}

func TestController_Shuffle(t *testing.T) {
	tests := []struct {
		name    string
		current bool
		args    []string
		want    bool
		wantErr bool
	}{
		{name: "toggle on", current: false, want: true},
		{name: "toggle off", current: true, want: false},
		{name: "explicit on", current: true, args: []string{"on"}, want: true},
		{name: "explicit off", current: false, args: []string{"off"}, want: false},
		{name: "invalid", args: []string{"maybe"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, p, _ := newTestController(&spotiwise.Playback{ShuffleState: tt.current})
			err := c.shuffle(context.Background(), tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("shuffle: %v", err)
			}
			if p.shuffle == nil || *p.shuffle != tt.want {
				t.Errorf("expected shuffle %v, got %v", tt.want, p.shuffle)
			}
		})
	}
}

func TestController_Volume(t *testing.T) {
	c, p, out := newTestController(&spotiwise.Playback{Device: &spotiwise.Device{VolumePercent: 65}})

	if err := c.volume(context.Background(), nil); err != nil {
		t.Fatalf("volume: %v", err)
	}
	if out.String() != "65\n" {
		t.Errorf("expected current volume, got %q", out.String())
	}

	if err := c.volume(context.Background(), []string{"30"}); err != nil {
		t.Fatalf("volume: %v", err)
	}
	if p.volume != 30 {
		t.Errorf("expected volume 30, got %d", p.volume)
	}

	for _, bad := range []string{"-1", "101", "loud"} {
		if err := c.volume(context.Background(), []string{bad}); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}

func TestController_WrapsPlayerErrors(t *testing.T) {
	c, p, _ := newTestController(nil)
	p.err = errors.New("restricted device")

	if err := c.next(context.Background(), nil); !errors.Is(err, p.err) {
		t.Errorf("expected wrapped player error, got %v", err)
	}
}
