// Auriga Core - canonical control and state for network audio systems.
//
// This is the main entry point for the Auriga core application. Auriga
// composes a streamer, an optional media server and an optional
// amplifier behind one role-neutral control surface and republishes
// their canonical state to MQTT, SQLite history and InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finchley-audio/auriga-core/internal/device"
	"github.com/finchley-audio/auriga-core/internal/discovery"
	"github.com/finchley-audio/auriga-core/internal/history"
	"github.com/finchley-audio/auriga-core/internal/infrastructure/config"
	"github.com/finchley-audio/auriga-core/internal/infrastructure/database"
	"github.com/finchley-audio/auriga-core/internal/infrastructure/influxdb"
	"github.com/finchley-audio/auriga-core/internal/infrastructure/logging"
	"github.com/finchley-audio/auriga-core/internal/infrastructure/mqtt"
	"github.com/finchley-audio/auriga-core/internal/orchestrator"
	"github.com/finchley-audio/auriga-core/internal/resolve"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// shutdownTimeout bounds the device teardown on exit.
const shutdownTimeout = 10 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Auriga core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Discovery: static device locations with UPnP description fetch
	fetcher := discovery.NewHTTPDescriptionClient()
	scanner := discovery.NewStaticScanner(cfg.Discovery.Locations, fetcher)
	scanner.SetLogger(log)
	cache := discovery.NewCache(&discovery.CombinedDiscoverer{
		Scanner:            scanner,
		DescriptionFetcher: fetcher,
	})
	cache.SetLogger(log)

	// Resolver: heuristics that turn hints into concrete devices
	resolver := resolve.New(cache, resolve.Config{
		PreferredVendor:  cfg.Devices.PreferredVendor,
		DiscoveryTimeout: cfg.GetDiscoveryTimeout(),
		ProbePort:        cfg.Probe.Port,
		ProbeTimeout:     cfg.GetProbeTimeout(),
	})
	resolver.SetLogger(log)

	// Adapter registries with config-driven model overrides
	registries := orchestrator.DefaultRegistries()
	if err := applyModelOverrides(cfg.Devices, registries); err != nil {
		return fmt.Errorf("applying model overrides: %w", err)
	}

	// Compose the system
	orch, err := orchestrator.New(ctx, resolver, registries, orchestrator.Config{
		Streamer:    orchestrator.RoleBinding{Hint: cfg.Devices.Streamer.Hint, Type: cfg.Devices.Streamer.Type},
		MediaServer: orchestrator.RoleBinding{Hint: cfg.Devices.MediaServer.Hint, Type: cfg.Devices.MediaServer.Type},
		Amplifier:   orchestrator.RoleBinding{Hint: cfg.Devices.Amplifier.Hint, Type: cfg.Devices.Amplifier.Type},
	}, orchestrator.Options{
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("composing system: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		log.Info("shutting down devices")
		if shutErr := orch.Shutdown(stopCtx); shutErr != nil {
			log.Error("error shutting down devices", "error", shutErr)
		}
	}()
	log.Info("system composed",
		"streamer", orch.State().StreamerName,
		"media_server", orch.State().MediaServerName,
		"amplifier", orch.State().AmplifierName,
	)

	// State history in SQLite (optional)
	if cfg.Database.Enabled {
		db, dbErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		repo, repoErr := history.NewRepository(ctx, db)
		if repoErr != nil {
			return fmt.Errorf("initialising state history: %w", repoErr)
		}
		recorder := history.NewRecorder(repo, log)
		defer recorder.Close()

		streamerUDN := ""
		if orch.Streamer() != nil {
			streamerUDN = orch.Streamer().Device().UDN
		}
		orch.OnDeviceUpdate(func(role device.Role, source string, state *device.State) {
			udn := streamerUDN
			switch role {
			case device.RoleAmplifier:
				if orch.Amplifier() != nil {
					udn = orch.Amplifier().Device().UDN
				}
			case device.RoleStreamer, device.RoleMediaServer:
			}
			recorder.Enqueue(history.Snapshot{
				DeviceUDN: udn,
				Role:      role,
				Source:    source,
				State:     state,
			})
		})
		log.Info("state history enabled", "path", cfg.Database.Path)
	} else {
		log.Info("state history disabled")
	}

	// MQTT state publishing (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		statePub := mqtt.NewStatePublisher(mqttClient, log)
		defer statePub.Close()

		orch.OnDeviceUpdate(func(role device.Role, _ string, state *device.State) {
			statePub.PublishDeviceState(role, state)
		})
		orch.OnUpdate(func(state orchestrator.SystemState) {
			statePub.PublishSystemState(state)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB telemetry (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		orch.OnDeviceUpdate(func(role device.Role, source string, state *device.State) {
			name := ""
			if state != nil {
				name = state.Name
			}
			influxClient.WriteDeviceState(role, name, state)
			influxClient.WriteUpdateCount(role, source)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("Auriga core stopped")
	return nil
}

// applyModelOverrides remaps configured model names onto forced adapter
// types, per role. Last entry wins when a model appears twice.
func applyModelOverrides(devices config.DevicesConfig, registries orchestrator.Registries) error {
	if devices.Streamer.Type != "" {
		for _, model := range devices.Streamer.Models {
			if err := registries.Streamers.OverrideModel(model, devices.Streamer.Type); err != nil {
				return fmt.Errorf("streamer model %q: %w", model, err)
			}
		}
	}
	if devices.MediaServer.Type != "" {
		for _, model := range devices.MediaServer.Models {
			if err := registries.MediaServers.OverrideModel(model, devices.MediaServer.Type); err != nil {
				return fmt.Errorf("media server model %q: %w", model, err)
			}
		}
	}
	if devices.Amplifier.Type != "" {
		for _, model := range devices.Amplifier.Models {
			if err := registries.Amplifiers.OverrideModel(model, devices.Amplifier.Type); err != nil {
				return fmt.Errorf("amplifier model %q: %w", model, err)
			}
		}
	}
	return nil
}

// getConfigPath returns the configuration file path.
// Uses the AURIGA_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AURIGA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
