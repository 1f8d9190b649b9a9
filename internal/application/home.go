package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"voice-home/internal/domain"
)

// ErrNotConnected is returned by manual controls while the control link
// to the devices is down.
var ErrNotConnected = errors.New("not connected to devices")

// Home holds the session's device set. Voice commands go through Apply;
// the manual panel goes through Toggle and SetAll, which require a
// connected link.
type Home struct {
	mu        sync.RWMutex
	devices   []domain.Device
	index     map[string]int
	connected bool

	events EventPublisher
	logger *slog.Logger
}

func NewHome(devices []domain.Device, events EventPublisher, logger *slog.Logger) (*Home, error) {
	if events == nil {
		events = &NoopPublisher{}
	}
	h := &Home{
		devices: make([]domain.Device, len(devices)),
		index:   make(map[string]int, len(devices)),
		events:  events,
		logger:  logger,
	}
	copy(h.devices, devices)
	for i, d := range h.devices {
		if d.ID == "" {
			return nil, fmt.Errorf("device %q has no id", d.Name)
		}
		if _, dup := h.index[d.ID]; dup {
			return nil, fmt.Errorf("duplicate device id %q", d.ID)
		}
		h.index[d.ID] = i
	}
	return h, nil
}

func (h *Home) Devices() []domain.Device {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]domain.Device, len(h.devices))
	copy(result, h.devices)
	return result
}

func (h *Home) Device(id string) (domain.Device, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	i, ok := h.index[id]
	if !ok {
		return domain.Device{}, false
	}
	return h.devices[i], true
}

// Apply runs action against the device with the given id.
func (h *Home) Apply(ctx context.Context, id string, action domain.Action) (domain.Device, error) {
	h.mu.Lock()
	i, ok := h.index[id]
	if !ok {
		h.mu.Unlock()
		return domain.Device{}, fmt.Errorf("%w: %s", domain.ErrDeviceNotFound, id)
	}
	h.devices[i].Status = action.Apply(h.devices[i].Status)
	d := h.devices[i]
	h.mu.Unlock()

	h.publish(ctx, d)
	return d, nil
}

// Toggle flips a single device from the manual panel.
func (h *Home) Toggle(ctx context.Context, id string) (domain.Device, error) {
	if !h.Connected() {
		return domain.Device{}, ErrNotConnected
	}
	return h.Apply(ctx, id, domain.ActionToggle)
}

// SetAll switches every device on or off from the manual panel.
func (h *Home) SetAll(ctx context.Context, on bool) ([]domain.Device, error) {
	if !h.Connected() {
		return nil, ErrNotConnected
	}

	h.mu.Lock()
	for i := range h.devices {
		h.devices[i].Status = on
	}
	result := make([]domain.Device, len(h.devices))
	copy(result, h.devices)
	h.mu.Unlock()

	for _, d := range result {
		h.publish(ctx, d)
	}
	return result, nil
}

func (h *Home) SetConnected(on bool) {
	h.mu.Lock()
	h.connected = on
	h.mu.Unlock()
	h.logger.Info("device link changed", "connected", on)
}

func (h *Home) Connected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connected
}

func (h *Home) publish(ctx context.Context, d domain.Device) {
	if err := h.events.Publish(ctx, DeviceEvent(d)); err != nil {
		h.logger.Warn("publishing device state", "device", d.ID, "error", err)
	}
}
