// backplated bridges a climate-control backplate board onto the
// message bus: telemetry and wire changes fan out as events, control
// requests come back as strict request/reply.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-backplate/internal/backplate"
	"github.com/nerrad567/gray-logic-backplate/internal/bus"
	"github.com/nerrad567/gray-logic-backplate/internal/gateway"
	"github.com/nerrad567/gray-logic-backplate/internal/history"
	"github.com/nerrad567/gray-logic-backplate/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-backplate/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-backplate/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-backplate/internal/infrastructure/mqtt"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("backplated %s\n", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		logging.Default().Error("backplated exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.New(cfg.Logging, version)
	logger.Info("backplated starting",
		"device_id", cfg.Gateway.DeviceID,
		"serial_path", cfg.Gateway.SerialPath,
	)

	// Optional event journal. Enabled-but-broken is a configuration
	// problem worth failing on.
	var journal *history.Journal
	if cfg.History.Enabled {
		journal, err = history.Open(cfg.History)
		if err != nil {
			return fmt.Errorf("opening event journal: %w", err)
		}
		defer journal.Close()
		logger.Info("event journal open", "path", cfg.History.Path)
	}

	// Optional telemetry recorder. The store is a network dependency,
	// so a failure here degrades rather than aborts.
	var recorder *influxdb.Client
	if cfg.InfluxDB.Enabled {
		recorder, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			logger.Warn("telemetry recording unavailable", "error", err)
			recorder = nil
		} else {
			defer recorder.Close()
			recorder.SetOnError(func(err error) {
				logger.Warn("telemetry write failed", "error", err)
			})
			logger.Info("telemetry recording enabled", "url", cfg.InfluxDB.URL)
		}
	}

	// Broker connection, with a last-will so observers see offline if
	// the process vanishes without a goodbye.
	healthTopic := mqtt.HealthTopic(cfg.Gateway.DeviceID)
	qos := byte(cfg.MQTT.QoS)
	client, err := mqtt.Connect(cfg.MQTT, &mqtt.Will{
		Topic:    healthTopic,
		Payload:  gateway.OfflinePayload(),
		QoS:      qos,
		Retained: true,
	})
	if err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	defer client.Close()
	client.SetLogger(logger)
	client.SetOnDisconnect(func(err error) {
		logger.Warn("broker connection lost", "error", err)
	})
	client.SetOnConnect(func() {
		logger.Info("broker connected")
	})
	logger.Info("broker connection established",
		"host", cfg.MQTT.Broker.Host,
		"port", cfg.MQTT.Broker.Port,
	)

	// Serial link to the backplate. No device, no gateway.
	port, err := backplate.Open(cfg.Gateway.SerialPath, cfg.Gateway.BaudRate)
	if err != nil {
		return fmt.Errorf("opening backplate serial link: %w", err)
	}
	session := backplate.NewSession(port)
	defer session.Close()
	session.SetLogger(logger.With("component", "backplate"))

	// The control endpoint binds now so requests queue during startup;
	// the event endpoint stays unbound until the device reset completes.
	control := bus.NewControlEndpoint(client, cfg.Gateway.DeviceID, qos)
	if err := control.Bind(); err != nil {
		return fmt.Errorf("binding control endpoint: %w", err)
	}
	events := bus.NewEventEndpoint(client, cfg.Gateway.DeviceID, qos)

	opts := gateway.Options{
		Device:           session,
		Control:          control,
		Events:           events,
		Logger:           logger.With("component", "gateway"),
		DeviceID:         cfg.Gateway.DeviceID,
		PeriodicInterval: cfg.GetPeriodicInterval(),
	}
	// Assign only when present so the gateway sees a nil interface,
	// not a typed nil.
	if recorder != nil {
		opts.Recorder = recorder
	}
	if journal != nil {
		opts.Journal = journal
	}

	g, err := gateway.New(opts)
	if err != nil {
		return fmt.Errorf("building gateway: %w", err)
	}

	// Kick the device. Everything downstream waits for its
	// reset-complete report.
	if err := session.SendReset(); err != nil {
		return fmt.Errorf("resetting backplate: %w", err)
	}
	logger.Info("backplate reset requested")

	health := gateway.NewHealthReporter(
		client, session, g,
		healthTopic, qos,
		cfg.GetHealthInterval(),
		logger.With("component", "health"),
	)
	health.Start()
	defer health.Stop()

	if err := g.Run(ctx); err != nil {
		if errors.Is(err, gateway.ErrDeviceClosed) {
			return fmt.Errorf("backplate link lost: %w", err)
		}
		return fmt.Errorf("gateway: %w", err)
	}

	logger.Info("backplated stopped")
	return nil
}
