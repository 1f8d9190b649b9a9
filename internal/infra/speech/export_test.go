package speech

import "context"

// NewEspeakWithRunner skips the binary lookup and records commands instead
// of executing them.
func NewEspeakWithRunner(opts Options, run func(ctx context.Context, name string, args ...string) error) *Espeak {
	e := &Espeak{opts: opts, run: run}
	if e.opts.Binary == "" {
		e.opts.Binary = "espeak"
	}
	if e.opts.Voice == "" {
		e.opts.Voice = "en-us"
	}
	if e.opts.Rate <= 0 {
		e.opts.Rate = 0.8
	}
	if e.opts.Pitch <= 0 {
		e.opts.Pitch = 1
	}
	return e
}
