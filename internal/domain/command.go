package domain

import (
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionTurnOn  Action = "turn_on"
	ActionTurnOff Action = "turn_off"
	ActionToggle  Action = "toggle"
	ActionUnknown Action = "unknown"
)

// UnknownDevice marks a command whose device could not be resolved.
const UnknownDevice = "unknown"

// Past returns the phrase used in feedback for an applied action.
func (a Action) Past() string {
	switch a {
	case ActionTurnOn:
		return "turned on"
	case ActionTurnOff:
		return "turned off"
	case ActionToggle:
		return "toggled"
	default:
		return string(a)
	}
}

// Apply returns the device status after the action runs against current.
func (a Action) Apply(current bool) bool {
	switch a {
	case ActionTurnOn:
		return true
	case ActionTurnOff:
		return false
	case ActionToggle:
		return !current
	default:
		return current
	}
}

type Command struct {
	ID         string    `json:"id"`
	Phrase     string    `json:"phrase"`
	Action     Action    `json:"action"`
	Device     string    `json:"device"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewCommand builds a history entry. Confidence is given in [0,1] and stored
// as a percentage.
func NewCommand(phrase string, action Action, device string, confidence float64) Command {
	if action == "" {
		action = ActionUnknown
	}
	if device == "" {
		device = UnknownDevice
	}
	return Command{
		ID:         uuid.NewString(),
		Phrase:     phrase,
		Action:     action,
		Device:     device,
		Confidence: confidence * 100,
		Timestamp:  time.Now(),
	}
}
