package resolver

import "voice-home/internal/domain"

type actionRule struct {
	action   domain.Action
	keywords []string
}

type deviceRule struct {
	deviceType domain.DeviceType
	keywords   []string
}

type roomRule struct {
	room     string
	keywords []string
}

// Tables are scanned in declaration order and the first hit wins, so
// order encodes precedence.

var actionRules = []actionRule{
	{domain.ActionTurnOn, []string{"turn on", "switch on"}},
	{domain.ActionTurnOff, []string{"turn off", "switch off"}},
	{domain.ActionToggle, []string{"toggle"}},
}

var deviceRules = []deviceRule{
	{domain.DeviceTypeLight, []string{"light", "lamp", "bulb"}},
	{domain.DeviceTypeFan, []string{"fan", "ceiling fan"}},
	{domain.DeviceTypeAC, []string{"air conditioner", "ac", "cooling"}},
	{domain.DeviceTypeTV, []string{"tv", "television", "telly"}},
	{domain.DeviceTypeAudio, []string{"music", "speaker", "audio", "sound"}},
}

var roomRules = []roomRule{
	{"living room", []string{"living room", "living", "hall"}},
	{"bedroom", []string{"bedroom", "bed room", "room"}},
	{"kitchen", []string{"kitchen", "dining"}},
}
