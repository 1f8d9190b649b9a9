// Package resolver maps a spoken phrase onto a device action using fixed
// keyword tables. Matching is plain substring containment, so "ac" also
// matches inside "black"; callers get exactly the behaviour of the tables.
package resolver

import (
	"fmt"
	"strings"

	"voice-home/internal/domain"
)

// Resolution is the outcome of resolving one transcript. Action is empty
// when no action keyword was heard and Device is nil when no device matched.
type Resolution struct {
	Transcript string
	Action     domain.Action
	Descriptor string
	Device     *domain.Device
	Feedback   string
}

// OK reports whether both an action and a device were resolved.
func (r Resolution) OK() bool {
	return r.Action != "" && r.Device != nil
}

// CommandAction is the action recorded in history.
func (r Resolution) CommandAction() domain.Action {
	if r.Action == "" {
		return domain.ActionUnknown
	}
	return r.Action
}

// CommandDevice is the device identifier recorded in history.
func (r Resolution) CommandDevice() string {
	if !r.OK() {
		return domain.UnknownDevice
	}
	return r.Device.ID
}

// Normalize prepares raw recognizer output for Resolve.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Resolve resolves an already normalized transcript against devices. It
// does not change any device; the returned Device is a copy of the match
// with its status left as found.
func Resolve(transcript string, devices []domain.Device) Resolution {
	res := Resolution{
		Transcript: transcript,
		Action:     detectAction(transcript),
		Descriptor: describe(transcript),
	}

	if res.Action == "" || res.Descriptor == "" {
		res.Feedback = fmt.Sprintf("Command not recognized: %q", transcript)
		return res
	}

	device, ok := Lookup(devices, res.Descriptor)
	if !ok {
		res.Feedback = fmt.Sprintf("Device %q not found", res.Descriptor)
		return res
	}

	res.Device = &device
	res.Feedback = fmt.Sprintf("%s %s", device.Name, res.Action.Past())
	return res
}

// Lookup returns the first device whose lower-cased name contains
// descriptor or whose type equals it.
func Lookup(devices []domain.Device, descriptor string) (domain.Device, bool) {
	needle := strings.ToLower(descriptor)
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), needle) || string(d.Type) == descriptor {
			return d, true
		}
	}
	return domain.Device{}, false
}

func detectAction(text string) domain.Action {
	for _, rule := range actionRules {
		if containsAny(text, rule.keywords) {
			return rule.action
		}
	}
	return ""
}

// describe returns "<room> <type>", the bare type, or "" when no device
// keyword is present. Rooms are only considered once a type matched.
func describe(text string) string {
	for _, rule := range deviceRules {
		if !containsAny(text, rule.keywords) {
			continue
		}
		for _, room := range roomRules {
			if containsAny(text, room.keywords) {
				return room.room + " " + string(rule.deviceType)
			}
		}
		return string(rule.deviceType)
	}
	return ""
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
