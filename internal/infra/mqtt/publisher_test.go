package mqtt_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-home/internal/application"
	"voice-home/internal/domain"
	"voice-home/internal/infra/mqtt"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type message struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	published []message
	failures  int
}

func (f *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) MQTT.Token {
	if f.failures > 0 {
		f.failures--
		return &fakeToken{err: errors.New("not connected")}
	}
	f.published = append(f.published, message{topic, retained, payload.([]byte)})
	return &fakeToken{}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_DeviceEvent(t *testing.T) {
	client := &fakeClient{}
	p := mqtt.NewPublisherWithClient(client, mqtt.Config{Prefix: "home"}, testLogger())

	d := domain.Device{ID: "3", Name: "Kitchen Light", Type: domain.DeviceTypeLight, Status: true}
	require.NoError(t, p.Publish(context.Background(), application.DeviceEvent(d)))

	require.Len(t, client.published, 1)
	msg := client.published[0]
	assert.Equal(t, "home/device/3", msg.topic)
	assert.True(t, msg.retained)

	var got domain.Device
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, d, got)
}

func TestPublisher_Topics(t *testing.T) {
	client := &fakeClient{}
	p := mqtt.NewPublisherWithClient(client, mqtt.Config{}, testLogger())
	ctx := context.Background()

	cmd := domain.NewCommand("turn on the tv", domain.ActionTurnOn, "5", 0.9)
	require.NoError(t, p.Publish(ctx, application.CommandEvent(cmd)))
	require.NoError(t, p.Publish(ctx, application.FeedbackEvent("TV turned on")))
	require.NoError(t, p.Publish(ctx, application.ReadingEvent(domain.Reading{Temperature: 21})))
	require.NoError(t, p.Publish(ctx, application.ListeningEvent(true)))

	topics := make([]string, len(client.published))
	for i, m := range client.published {
		topics[i] = m.topic
	}
	assert.Equal(t, []string{
		"voicehome/command",
		"voicehome/feedback",
		"voicehome/sensor/reading",
		"voicehome/listening",
	}, topics)
	assert.False(t, client.published[0].retained)
	assert.True(t, client.published[3].retained)
	assert.JSONEq(t, "true", string(client.published[3].payload))
}

func TestPublisher_RetriesFailedPublish(t *testing.T) {
	client := &fakeClient{failures: 1}
	p := mqtt.NewPublisherWithClient(client, mqtt.Config{}, testLogger())

	require.NoError(t, p.Publish(context.Background(), application.FeedbackEvent("hi")))
	assert.Len(t, client.published, 1)
}

func TestPublisher_GivesUp(t *testing.T) {
	client := &fakeClient{failures: 5}
	p := mqtt.NewPublisherWithClient(client, mqtt.Config{}, testLogger())

	err := p.Publish(context.Background(), application.FeedbackEvent("hi"))
	assert.EqualError(t, err, "not connected")
}

func TestPublisher_RejectsUnknownKind(t *testing.T) {
	p := mqtt.NewPublisherWithClient(&fakeClient{}, mqtt.Config{}, testLogger())

	err := p.Publish(context.Background(), application.Event{Kind: "bogus"})
	assert.Error(t, err)
}
