package domain

import "errors"

type DeviceType string

const (
	DeviceTypeLight DeviceType = "light"
	DeviceTypeFan   DeviceType = "fan"
	DeviceTypeAC    DeviceType = "ac"
	DeviceTypeTV    DeviceType = "tv"
	DeviceTypeAudio DeviceType = "audio"
)

var ErrDeviceNotFound = errors.New("device not found")

type Device struct {
	ID     string     `json:"id" yaml:"id"`
	Name   string     `json:"name" yaml:"name"`
	Type   DeviceType `json:"type" yaml:"type"`
	Room   string     `json:"room,omitempty" yaml:"room"`
	Status bool       `json:"status" yaml:"-"`
}

// DefaultDevices is the device set a home starts with when the config
// declares none.
func DefaultDevices() []Device {
	return []Device{
		{ID: "1", Name: "Living Room Light", Type: DeviceTypeLight, Room: "Living Room"},
		{ID: "2", Name: "Bedroom Fan", Type: DeviceTypeFan, Room: "Bedroom"},
		{ID: "3", Name: "Kitchen Light", Type: DeviceTypeLight, Room: "Kitchen"},
		{ID: "4", Name: "Air Conditioner", Type: DeviceTypeAC},
		{ID: "5", Name: "TV", Type: DeviceTypeTV, Room: "Living Room"},
		{ID: "6", Name: "Music System", Type: DeviceTypeAudio},
	}
}
