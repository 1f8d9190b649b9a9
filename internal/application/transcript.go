package application

import (
	"context"
	"errors"

	"voice-home/internal/domain"
)

// ErrUnsupported is returned by capabilities that are not available on
// this host, such as a speech engine that is not installed.
var ErrUnsupported = errors.New("capability not supported")

type TranscriptSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextTranscript(ctx context.Context) (domain.Transcript, error)
	Name() string
}
