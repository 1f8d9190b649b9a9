package application

import "context"

// Speaker reads feedback aloud. Callers do not wait on the result beyond
// logging a failure.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type NoopSpeaker struct{}

func (n *NoopSpeaker) Speak(_ context.Context, _ string) error {
	return nil
}
