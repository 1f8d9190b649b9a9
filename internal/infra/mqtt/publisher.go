// Package mqtt mirrors device state and assistant activity onto an MQTT
// broker so other home automation services can follow it.
//
// Topics, below the configured prefix:
//
//	device/<id>     retained device state
//	command         resolved voice commands
//	feedback        feedback text
//	sensor/reading  simulated sensor readings
//	listening       retained listening flag
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"voice-home/internal/application"
	"voice-home/internal/infra"
)

type Config struct {
	Broker   string
	Username string
	Password string
	Prefix   string
	QoS      byte
	Timeout  time.Duration
}

type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token
}

type Publisher struct {
	client     publishClient
	disconnect func()
	prefix     string
	qos        byte
	timeout    time.Duration
	retry      infra.RetryConfig
	logger     *slog.Logger
}

func Connect(cfg Config, logger *slog.Logger) (*Publisher, error) {
	hostname, _ := os.Hostname()
	opts := MQTT.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(fmt.Sprintf("voice-home/%s-%d", hostname, os.Getpid()))
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ MQTT.Client, err error) {
		logger.Warn("mqtt connection lost", "broker", cfg.Broker, "error", err)
	})

	client := MQTT.NewClient(opts)
	p := newPublisher(client, cfg, logger)

	token := client.Connect()
	if err := p.wait(token); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Broker, err)
	}
	p.disconnect = func() { client.Disconnect(250) }

	logger.Info("mqtt connected", "broker", cfg.Broker, "prefix", p.prefix)
	return p, nil
}

func newPublisher(client publishClient, cfg Config, logger *slog.Logger) *Publisher {
	if cfg.Prefix == "" {
		cfg.Prefix = "voicehome"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Publisher{
		client:  client,
		prefix:  cfg.Prefix,
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
		retry:   infra.DefaultRetryConfig(),
		logger:  logger,
	}
}

// Publish implements application.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, ev application.Event) error {
	topic, retained, payload, err := p.encode(ev)
	if err != nil {
		return err
	}

	return infra.WithRetry(ctx, p.retry, func() error {
		return p.wait(p.client.Publish(topic, p.qos, retained, payload))
	})
}

func (p *Publisher) encode(ev application.Event) (string, bool, []byte, error) {
	var (
		topic    string
		retained bool
		body     any
	)

	switch ev.Kind {
	case application.EventDevice:
		if ev.Device == nil {
			return "", false, nil, errors.New("device event without device")
		}
		topic, retained, body = "device/"+ev.Device.ID, true, ev.Device
	case application.EventCommand:
		topic, body = "command", ev.Command
	case application.EventFeedback:
		topic, body = "feedback", map[string]any{"text": ev.Feedback, "timestamp": ev.Timestamp}
	case application.EventReading:
		topic, body = "sensor/reading", ev.Reading
	case application.EventListening:
		topic, retained, body = "listening", true, ev.Listening
	default:
		return "", false, nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", false, nil, fmt.Errorf("encoding %s event: %w", ev.Kind, err)
	}
	return p.prefix + "/" + topic, retained, payload, nil
}

func (p *Publisher) wait(token MQTT.Token) error {
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("mqtt timeout after %s", p.timeout)
	}
	return token.Error()
}

func (p *Publisher) Close() {
	if p.disconnect != nil {
		p.disconnect()
	}
}
