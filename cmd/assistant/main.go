package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-home/config"
	"voice-home/internal/application"
	"voice-home/internal/domain"
	"voice-home/internal/infra/api"
	"voice-home/internal/infra/mqtt"
	"voice-home/internal/infra/pushover"
	"voice-home/internal/infra/speech"
	"voice-home/internal/infra/transcript"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envPath := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	stream := api.NewStream(logger)
	events := application.FanOut{stream}

	if cfg.MQTT.Enabled {
		timeout, err := config.Duration(cfg.MQTT.Timeout, 5*time.Second)
		if err != nil {
			logger.Warn("invalid mqtt timeout, using default", "error", err)
		}
		publisher, err := mqtt.Connect(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Prefix:   cfg.MQTT.Prefix,
			QoS:      cfg.MQTT.QoS,
			Timeout:  timeout,
		}, logger)
		if err != nil {
			logger.Error("mqtt unavailable, continuing without it", "error", err)
		} else {
			defer publisher.Close()
			events = append(events, publisher)
		}
	}

	home, err := application.NewHome(cfg.Devices, events, logger)
	if err != nil {
		logger.Error("building device set", "error", err)
		os.Exit(1)
	}

	var notifier application.Notifier = &application.NoopNotifier{}
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey, cfg.Pushover.Title)
	}

	assistant := application.NewAssistant(
		createTranscriptSource(cfg.Transcript, logger),
		home,
		domain.NewHistory(cfg.History.Size),
		createSpeaker(cfg.Speech, logger),
		notifier,
		events,
		logger,
	)

	interval, err := config.Duration(cfg.Monitor.Interval, application.DefaultSampleInterval)
	if err != nil {
		logger.Warn("invalid monitor interval, using default", "error", err)
	}
	monitor := application.NewMonitor(interval, cfg.Monitor.Window, events, logger)
	defer monitor.Stop()
	if cfg.Monitor.AutoStart {
		monitor.Start(ctx)
	}

	server := api.NewServer(cfg.API.Addr, assistant, home, monitor, stream, logger)
	server.Start(ctx)
	defer server.Stop()

	if cfg.Transcript.Listen {
		if err := assistant.StartListening(ctx); err != nil {
			logger.Warn("cannot start listening", "error", err)
		}
	}

	logger.Info("starting voice home assistant",
		"transcript_source", cfg.Transcript.Source,
		"api_addr", cfg.API.Addr,
		"devices", len(cfg.Devices),
	)

	if err := assistant.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("assistant error", "error", err)
		os.Exit(1)
	}
}

func createTranscriptSource(cfg config.TranscriptConfig, logger *slog.Logger) application.TranscriptSource {
	switch cfg.Source {
	case "http":
		return transcript.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	case "file":
		return transcript.NewFileSource(cfg.FileDir)
	default:
		logger.Warn("unknown transcript source, using http", "source", cfg.Source)
		return transcript.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	}
}

func createSpeaker(cfg config.SpeechConfig, logger *slog.Logger) application.Speaker {
	if !cfg.Enabled {
		return &application.NoopSpeaker{}
	}
	speaker, err := speech.NewEspeak(speech.Options{
		Binary: cfg.Binary,
		Voice:  cfg.Voice,
		Rate:   cfg.Rate,
		Pitch:  cfg.Pitch,
		Player: cfg.Player,
	})
	if err != nil {
		logger.Warn("text to speech disabled", "error", err)
		return &application.NoopSpeaker{}
	}
	return speaker
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
