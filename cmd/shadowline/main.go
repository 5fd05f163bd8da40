// Shadowline Core - automatic shading daemon
//
// Shadowline drives KNX window shades from sun geometry and live
// brightness readings: a per-facade state machine decides when to drop
// the shade and how to tilt the slats, a day/night scheduler opens and
// closes everything at dawn and dusk, and device state survives
// restarts in SQLite. MQTT status and InfluxDB telemetry are optional
// mirrors; control stays on the bus.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shadowline/shadowline-core/internal/device"
	"github.com/shadowline/shadowline-core/internal/devices"
	"github.com/shadowline/shadowline-core/internal/infrastructure/config"
	"github.com/shadowline/shadowline-core/internal/infrastructure/database"
	"github.com/shadowline/shadowline-core/internal/infrastructure/influxdb"
	"github.com/shadowline/shadowline-core/internal/infrastructure/logging"
	"github.com/shadowline/shadowline-core/internal/infrastructure/mqtt"
	"github.com/shadowline/shadowline-core/internal/knx"
	"github.com/shadowline/shadowline-core/internal/scheduler"
	"github.com/shadowline/shadowline-core/internal/sun"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// saveTimeout bounds the final state flush on shutdown.
const saveTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual daemon logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Shadowline Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	location, err := sun.NewLocation(cfg.Site.Name, cfg.Site.Timezone,
		cfg.Site.Location.Latitude, cfg.Site.Location.Longitude)
	if err != nil {
		return fmt.Errorf("resolving site location: %w", err)
	}
	log.Info("site location resolved",
		"name", location.Name,
		"latitude", location.Latitude,
		"longitude", location.Longitude,
		"timezone", cfg.Site.Timezone,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", db.Path())

	// Optional collaborators: MQTT status and InfluxDB telemetry.
	var status device.StatusPublisher = device.NopStatus{}
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			mqttClient.Close()
		}()
		status = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	var telemetry device.Telemetry = device.NopTelemetry{}
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB")
			influxClient.Close()
		}()
		telemetry = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// Connect to knxd
	bus, err := knx.Connect(ctx, knx.Config{
		Connection:        cfg.Bus.Connection,
		ConnectTimeout:    cfg.Bus.ConnectTimeout,
		ReadTimeout:       cfg.Bus.ReadTimeout,
		ReconnectInterval: cfg.Bus.ReconnectInterval,
	}, log)
	if err != nil {
		return fmt.Errorf("connecting to knxd: %w", err)
	}
	defer func() {
		log.Info("closing bus connection")
		if closeErr := bus.Close(); closeErr != nil {
			log.Error("error closing bus connection", "error", closeErr)
		}
	}()
	log.Info("bus connected", "connection", cfg.Bus.Connection)

	// Scheduler drives every periodic and one-shot device job.
	sched, err := scheduler.New(cfg.Timezone())
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	// Build devices from the device files and register them.
	registry := device.NewRegistry(log)
	store := device.NewStore(db)

	deps := device.Deps{
		Bus:       bus,
		Scheduler: sched,
		Location:  location,
		Log:       log,
		Status:    status,
		Telemetry: telemetry,
	}

	deviceCfgs, badFiles, err := config.LoadDevices(cfg.DevicesDir)
	if err != nil {
		return fmt.Errorf("scanning device files: %w", err)
	}
	for name, loadErr := range badFiles {
		log.Error("skipping unreadable device file", "device", name, "error", loadErr)
	}

	for name, devCfg := range deviceCfgs {
		dev, sensors, buildErr := devices.New(devCfg, deps)
		if buildErr != nil {
			// Bad address syntax or parameters fail the single device,
			// not the daemon.
			log.Error("skipping device", "device", name, "error", buildErr)
			continue
		}

		blob, loadErr := store.Load(ctx, name)
		switch {
		case loadErr == nil:
			if stateErr := dev.StateLoad(blob); stateErr != nil {
				log.Warn("discarding saved state, starting from defaults",
					"device", name, "error", stateErr)
			}
		case errors.Is(loadErr, device.ErrStateNotFound):
			// First run for this device.
		default:
			log.Warn("reading saved state failed, starting from defaults",
				"device", name, "error", loadErr)
		}

		if regErr := registry.Register(name, dev, sensors); regErr != nil {
			log.Error("skipping device", "device", name, "error", regErr)
			continue
		}
		log.Info("device registered", "device", name, "kind", devCfg.Kind, "sensors", len(sensors))
	}
	if registry.Count() == 0 {
		log.Warn("no devices configured", "devices_dir", cfg.DevicesDir)
	}

	// Route inbound telegrams to the matching device handlers.
	bus.SetOnTelegram(func(tg knx.Telegram) {
		registry.Dispatch(ctx, tg)
	})

	// Start everything: device init schedules jobs, then the scheduler
	// begins firing them.
	for name, dev := range registry.Devices() {
		if initErr := dev.Init(ctx); initErr != nil {
			log.Error("device init failed", "device", name, "error", initErr)
		}
	}
	sched.Start()
	log.Info("Shadowline Core started", "devices", registry.Count())

	<-ctx.Done()
	log.Info("shutdown signal received")

	if err := sched.Shutdown(); err != nil {
		log.Error("scheduler shutdown", "error", err)
	}

	// Persist every device so the automata resume where they left off.
	saveCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	for name, dev := range registry.Devices() {
		blob, saveErr := dev.StateSave()
		if saveErr != nil {
			log.Error("serialising device state", "device", name, "error", saveErr)
			continue
		}
		if saveErr := store.Save(saveCtx, name, blob); saveErr != nil {
			log.Error("saving device state", "device", name, "error", saveErr)
		}
	}
	log.Info("device state saved", "devices", registry.Count())

	return nil
}

// getConfigPath returns the config file path from the environment or
// the default.
func getConfigPath() string {
	if env := os.Getenv("SHADOWLINE_CONFIG"); env != "" {
		return env
	}
	return defaultConfigPath
}
