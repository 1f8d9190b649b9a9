// Package speech speaks feedback through the espeak command line synthesizer.
package speech

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"

	"voice-home/internal/application"
)

const (
	espeakDefaultWPM   = 175
	espeakDefaultPitch = 50
)

type Options struct {
	Binary string
	Voice  string
	// Rate and Pitch are relative to the synthesizer defaults, 1 being normal.
	Rate  float64
	Pitch float64
	// Player, when set, plays a rendered wav file instead of letting espeak
	// use the sound device directly.
	Player string
}

type Espeak struct {
	opts Options
	run  func(ctx context.Context, name string, args ...string) error
}

// NewEspeak fails with application.ErrUnsupported when the synthesizer or
// player binary is not installed.
func NewEspeak(opts Options) (*Espeak, error) {
	if opts.Binary == "" {
		opts.Binary = "espeak"
	}
	if opts.Voice == "" {
		opts.Voice = "en-us"
	}
	if opts.Rate <= 0 {
		opts.Rate = 0.8
	}
	if opts.Pitch <= 0 {
		opts.Pitch = 1
	}

	if _, err := exec.LookPath(opts.Binary); err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Binary, application.ErrUnsupported)
	}
	if opts.Player != "" {
		if _, err := exec.LookPath(opts.Player); err != nil {
			return nil, fmt.Errorf("%s: %w", opts.Player, application.ErrUnsupported)
		}
	}

	return &Espeak{opts: opts, run: runCommand}, nil
}

func (e *Espeak) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if e.opts.Player == "" {
		return e.run(ctx, e.opts.Binary, e.Args(text, "")...)
	}

	f, err := os.CreateTemp("", "voice-home-*.wav")
	if err != nil {
		return fmt.Errorf("creating wav file: %w", err)
	}
	f.Close()
	defer os.Remove(f.Name())

	if err := e.run(ctx, e.opts.Binary, e.Args(text, f.Name())...); err != nil {
		return err
	}
	return e.run(ctx, e.opts.Player, f.Name())
}

// Args builds the espeak command line. A non-empty wav renders to that
// file instead of the sound device.
func (e *Espeak) Args(text, wav string) []string {
	args := []string{
		"-v", e.opts.Voice,
		"-s", strconv.Itoa(int(math.Round(espeakDefaultWPM * e.opts.Rate))),
		"-p", strconv.Itoa(clampPitch(int(math.Round(espeakDefaultPitch * e.opts.Pitch)))),
	}
	if wav != "" {
		args = append(args, "-w", wav)
	}
	return append(args, "--", text)
}

func clampPitch(p int) int {
	if p < 0 {
		return 0
	}
	if p > 99 {
		return 99
	}
	return p
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("running %s: %w: %s", name, err, out)
	}
	return nil
}
