package application

import "context"

// Notifier pushes command feedback to a channel outside the session, such
// as a phone notification.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopNotifier struct{}

func (n *NoopNotifier) Notify(_ context.Context, _ string) error {
	return nil
}
