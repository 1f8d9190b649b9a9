package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"voice-home/internal/domain"
	"voice-home/internal/resolver"
)

type Assistant struct {
	source   TranscriptSource
	home     *Home
	history  *domain.History
	speaker  Speaker
	notifier Notifier
	events   EventPublisher
	logger   *slog.Logger

	mu        sync.RWMutex
	supported bool
	listening bool
	current   string
	feedback  string
}

// Outcome is what one processed phrase produced.
type Outcome struct {
	Command  domain.Command
	Device   *domain.Device
	Feedback string
}

// Status is a snapshot of the voice control state.
type Status struct {
	Supported bool   `json:"supported"`
	Listening bool   `json:"listening"`
	Current   string `json:"current"`
	Feedback  string `json:"feedback"`
	Connected bool   `json:"connected"`
}

func NewAssistant(
	source TranscriptSource,
	home *Home,
	history *domain.History,
	speaker Speaker,
	notifier Notifier,
	events EventPublisher,
	logger *slog.Logger,
) *Assistant {
	if speaker == nil {
		speaker = &NoopSpeaker{}
	}
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	if events == nil {
		events = &NoopPublisher{}
	}
	return &Assistant{
		source:    source,
		home:      home,
		history:   history,
		speaker:   speaker,
		notifier:  notifier,
		events:    events,
		logger:    logger,
		supported: true,
	}
}

// Run consumes transcripts until ctx is done. Each transcript is handled
// to completion before the next one is read.
func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting transcript source", "source", a.source.Name())
	if err := a.source.Start(ctx); err != nil {
		if !errors.Is(err, ErrUnsupported) {
			return fmt.Errorf("starting transcript source: %w", err)
		}
		a.mu.Lock()
		a.supported = false
		a.listening = false
		a.mu.Unlock()
		a.logger.Warn("voice control disabled", "source", a.source.Name(), "error", err)
		<-ctx.Done()
		return ctx.Err()
	}
	defer a.source.Stop()

	a.logger.Info("assistant ready", "listening", a.Listening())

	for {
		t, err := a.source.NextTranscript(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading transcript: %w", err)
		}
		a.HandleTranscript(ctx, t)
	}
}

// HandleTranscript dispatches one recognition event.
func (a *Assistant) HandleTranscript(ctx context.Context, t domain.Transcript) {
	if t.Error != "" {
		a.logger.Error("speech recognition error", "error", t.Error)
		a.setFeedback(ctx, "Error: "+t.Error)
		a.StopListening(ctx)
		return
	}

	if !a.Listening() {
		a.logger.Debug("not listening, dropping transcript", "text", t.Text)
		return
	}

	if !t.Final {
		a.mu.Lock()
		a.current = t.Text
		a.mu.Unlock()
		return
	}

	if _, err := a.Process(ctx, t.Text, t.Confidence); err != nil {
		a.logger.Error("processing command", "error", err)
	}
}

// Process resolves a final phrase, applies it and records it in history.
// A phrase that does not resolve is not an error; its outcome carries an
// unknown command and failure feedback.
func (a *Assistant) Process(ctx context.Context, text string, confidence float64) (Outcome, error) {
	phrase := resolver.Normalize(text)

	a.mu.Lock()
	a.current = phrase
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.current = ""
		a.mu.Unlock()
	}()

	res := resolver.Resolve(phrase, a.home.Devices())

	var out Outcome
	if res.OK() {
		d, err := a.home.Apply(ctx, res.Device.ID, res.Action)
		if err != nil {
			return Outcome{}, fmt.Errorf("applying %s to %s: %w", res.Action, res.Device.ID, err)
		}
		out.Device = &d
	}

	out.Command = domain.NewCommand(text, res.CommandAction(), res.CommandDevice(), confidence)
	out.Feedback = res.Feedback
	a.history.Add(out.Command)

	a.logger.Info("resolved command",
		"phrase", phrase,
		"action", out.Command.Action,
		"descriptor", res.Descriptor,
		"device", out.Command.Device,
		"confidence", out.Command.Confidence,
	)

	if err := a.events.Publish(ctx, CommandEvent(out.Command)); err != nil {
		a.logger.Warn("publishing command", "error", err)
	}
	a.setFeedback(ctx, out.Feedback)

	if err := a.notifier.Notify(ctx, out.Feedback); err != nil {
		a.logger.Error("notifying result", "error", err)
	}

	return out, nil
}

// Speak reads text aloud without blocking the caller.
func (a *Assistant) Speak(ctx context.Context, text string) {
	go func() {
		if err := a.speaker.Speak(context.WithoutCancel(ctx), text); err != nil {
			a.logger.Warn("speaking feedback", "error", err)
		}
	}()
}

func (a *Assistant) StartListening(ctx context.Context) error {
	a.mu.Lock()
	if !a.supported {
		a.mu.Unlock()
		return ErrUnsupported
	}
	a.listening = true
	a.mu.Unlock()

	a.publishListening(ctx, true)
	a.setFeedback(ctx, "Listening for commands...")
	return nil
}

func (a *Assistant) StopListening(ctx context.Context) {
	a.mu.Lock()
	a.listening = false
	a.current = ""
	a.mu.Unlock()
	a.publishListening(ctx, false)
}

func (a *Assistant) Listening() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.listening
}

func (a *Assistant) History() []domain.Command {
	return a.history.List()
}

func (a *Assistant) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Status{
		Supported: a.supported,
		Listening: a.listening,
		Current:   a.current,
		Feedback:  a.feedback,
		Connected: a.home.Connected(),
	}
}

func (a *Assistant) setFeedback(ctx context.Context, text string) {
	a.mu.Lock()
	a.feedback = text
	a.mu.Unlock()

	if err := a.events.Publish(ctx, FeedbackEvent(text)); err != nil {
		a.logger.Warn("publishing feedback", "error", err)
	}
	a.Speak(ctx, text)
}

func (a *Assistant) publishListening(ctx context.Context, on bool) {
	if err := a.events.Publish(ctx, ListeningEvent(on)); err != nil {
		a.logger.Warn("publishing listening state", "error", err)
	}
}
