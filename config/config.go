package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"voice-home/internal/domain"
)

type Config struct {
	Transcript TranscriptConfig `yaml:"transcript"`
	API        APIConfig        `yaml:"api"`
	Speech     SpeechConfig     `yaml:"speech"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Pushover   PushoverConfig   `yaml:"pushover"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Devices    []domain.Device  `yaml:"devices"`
	History    HistoryConfig    `yaml:"history"`
	Log        LogConfig        `yaml:"log"`
}

type TranscriptConfig struct {
	Source    string `yaml:"source"`
	HTTPAddr  string `yaml:"http_addr"`
	FileDir   string `yaml:"file_dir"`
	AuthToken string `yaml:"auth_token"`
	// Listen starts the assistant listening without waiting for the API.
	Listen bool `yaml:"listen"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

type SpeechConfig struct {
	Enabled bool    `yaml:"enabled"`
	Binary  string  `yaml:"binary"`
	Voice   string  `yaml:"voice"`
	Rate    float64 `yaml:"rate"`
	Pitch   float64 `yaml:"pitch"`
	Player  string  `yaml:"player"`
}

type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"`
	QoS      byte   `yaml:"qos"`
	Timeout  string `yaml:"timeout"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Title   string `yaml:"title"`
	Enabled bool   `yaml:"enabled"`
}

type MonitorConfig struct {
	Interval  string `yaml:"interval"`
	Window    int    `yaml:"window"`
	AutoStart bool   `yaml:"auto_start"`
}

type HistoryConfig struct {
	Size int `yaml:"size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML config at path. Variables from envFile, when it
// exists, are loaded into the environment first so ${VAR} references in
// the YAML can use them.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Transcript.Source == "" {
		c.Transcript.Source = "http"
	}
	if c.Transcript.HTTPAddr == "" {
		c.Transcript.HTTPAddr = ":8080"
	}
	if c.Transcript.FileDir == "" {
		c.Transcript.FileDir = "./transcripts"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8081"
	}
	if c.Speech.Binary == "" {
		c.Speech.Binary = "espeak"
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = "en-us"
	}
	if c.Speech.Rate == 0 {
		c.Speech.Rate = 0.8
	}
	if c.Speech.Pitch == 0 {
		c.Speech.Pitch = 1
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.Prefix == "" {
		c.MQTT.Prefix = "voicehome"
	}
	if c.MQTT.QoS == 0 {
		c.MQTT.QoS = 1
	}
	if c.MQTT.Timeout == "" {
		c.MQTT.Timeout = "5s"
	}
	if c.Monitor.Interval == "" {
		c.Monitor.Interval = "2s"
	}
	if c.Monitor.Window == 0 {
		c.Monitor.Window = 20
	}
	if len(c.Devices) == 0 {
		c.Devices = domain.DefaultDevices()
	}
	if c.History.Size == 0 {
		c.History.Size = domain.DefaultHistorySize
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Devices))
	for _, d := range c.Devices {
		if d.ID == "" || d.Name == "" {
			return fmt.Errorf("device %q: id and name are required", d.Name)
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate device id %q", d.ID)
		}
		seen[d.ID] = true
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}

// Duration parses a duration setting, falling back to def when it is not
// a valid duration.
func Duration(value string, def time.Duration) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return def, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return d, nil
}
