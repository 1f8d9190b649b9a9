package application

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"voice-home/internal/domain"
)

const (
	DefaultSampleInterval = 2 * time.Second
	DefaultReadingWindow  = 20
)

// Monitor simulates a temperature and humidity sensor. While running it
// produces a noisy reading every interval and keeps a sliding window of
// the latest ones.
type Monitor struct {
	interval time.Duration
	window   int
	rng      *rand.Rand
	now      func() time.Time
	events   EventPublisher
	logger   *slog.Logger

	mu       sync.RWMutex
	current  domain.Reading
	readings []domain.Reading
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewMonitor(interval time.Duration, window int, events EventPublisher, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	if window <= 0 {
		window = DefaultReadingWindow
	}
	if events == nil {
		events = &NoopPublisher{}
	}
	return &Monitor{
		interval: interval,
		window:   window,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		events:   events,
		logger:   logger,
		current: domain.Reading{
			Temperature: 24.5,
			Humidity:    65.2,
			Timestamp:   time.Now(),
		},
	}
}

// Start begins sampling. It returns false if the monitor is already running.
func (m *Monitor) Start(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(ctx, m.done)

	m.logger.Info("sensor monitoring started", "interval", m.interval)
	return true
}

// Stop halts sampling and waits for the sampling goroutine to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.logger.Info("sensor monitoring stopped")
}

func (m *Monitor) Monitoring() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cancel != nil
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r := m.Sample()
			if err := m.events.Publish(ctx, ReadingEvent(r)); err != nil {
				m.logger.Warn("publishing reading", "error", err)
			}
		}
	}
}

// Sample takes one simulated reading and appends it to the window.
func (m *Monitor) Sample() domain.Reading {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	ms := float64(now.UnixMilli())
	r := domain.Reading{
		Temperature: 20 + m.rng.Float64()*15 + math.Sin(ms/10000)*5,
		Humidity:    40 + m.rng.Float64()*40 + math.Cos(ms/8000)*10,
		Timestamp:   now,
	}

	m.current = r
	m.readings = append(m.readings, r)
	if len(m.readings) > m.window {
		m.readings = append([]domain.Reading(nil), m.readings[len(m.readings)-m.window:]...)
	}
	return r
}

func (m *Monitor) Current() domain.Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Readings returns the window, oldest first.
func (m *Monitor) Readings() []domain.Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]domain.Reading, len(m.readings))
	copy(result, m.readings)
	return result
}

func (m *Monitor) Trend() domain.Trend {
	return domain.TrendOf(m.Readings())
}
