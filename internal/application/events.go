package application

import (
	"context"
	"errors"
	"time"

	"voice-home/internal/domain"
)

type EventKind string

const (
	EventDevice    EventKind = "device"
	EventCommand   EventKind = "command"
	EventFeedback  EventKind = "feedback"
	EventReading   EventKind = "reading"
	EventListening EventKind = "listening"
)

type Event struct {
	Kind      EventKind       `json:"kind"`
	Device    *domain.Device  `json:"device,omitempty"`
	Command   *domain.Command `json:"command,omitempty"`
	Reading   *domain.Reading `json:"reading,omitempty"`
	Feedback  string          `json:"feedback,omitempty"`
	Listening *bool           `json:"listening,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func DeviceEvent(d domain.Device) Event {
	return Event{Kind: EventDevice, Device: &d, Timestamp: time.Now()}
}

func CommandEvent(c domain.Command) Event {
	return Event{Kind: EventCommand, Command: &c, Timestamp: c.Timestamp}
}

func FeedbackEvent(text string) Event {
	return Event{Kind: EventFeedback, Feedback: text, Timestamp: time.Now()}
}

func ReadingEvent(r domain.Reading) Event {
	return Event{Kind: EventReading, Reading: &r, Timestamp: r.Timestamp}
}

func ListeningEvent(on bool) Event {
	return Event{Kind: EventListening, Listening: &on, Timestamp: time.Now()}
}

type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

type NoopPublisher struct{}

func (n *NoopPublisher) Publish(_ context.Context, _ Event) error {
	return nil
}

// FanOut delivers each event to every publisher and joins their errors.
type FanOut []EventPublisher

func (f FanOut) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
