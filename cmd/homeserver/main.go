// Home Server - IoT device and telemetry backend
//
// This is the main entry point for the Home Server application. It wires
// together the SQLite store, the MQTT broker connection, the optional
// InfluxDB telemetry mirror, and the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/unrealfeathers/home-server/migrations"

	"github.com/unrealfeathers/home-server/internal/actuator"
	"github.com/unrealfeathers/home-server/internal/api"
	"github.com/unrealfeathers/home-server/internal/device"
	"github.com/unrealfeathers/home-server/internal/infrastructure/config"
	"github.com/unrealfeathers/home-server/internal/infrastructure/database"
	"github.com/unrealfeathers/home-server/internal/infrastructure/influxdb"
	"github.com/unrealfeathers/home-server/internal/infrastructure/logging"
	"github.com/unrealfeathers/home-server/internal/infrastructure/mqtt"
	"github.com/unrealfeathers/home-server/internal/location"
	"github.com/unrealfeathers/home-server/internal/telemetry"
	"github.com/unrealfeathers/home-server/internal/user"
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
func run(ctx context.Context) error {
	// Secrets like HOMESERVER_JWT_SECRET may live in a .env file during
	// development; absence is fine in production.
	_ = godotenv.Load()

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Home Server",
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

	// Open database
	db, err := database.Open(database.Config{
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
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories
	userRepo := user.NewSQLiteRepository(db.DB)
	deviceRepo := device.NewSQLiteRepository(db.DB)
	locationRepo := location.NewSQLiteRepository(db.DB)
	readingRepo := telemetry.NewSQLiteRepository(db.DB)
	ingestor := telemetry.NewIngestor(deviceRepo, readingRepo)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Watch the actuator topic so relayed commands (and anything devices
	// publish there themselves) show up in the logs.
	err = mqttClient.Subscribe(cfg.Actuator.Topic, byte(cfg.Actuator.QoS), func(topic string, payload []byte) error {
		log.Info("actuator command observed", "topic", topic, "command", string(payload))
		return nil
	})
	if err != nil {
		log.Warn("subscribing to actuator topic", "topic", cfg.Actuator.Topic, "error", err)
	}

	relay := actuator.NewRelay(mqttClient, cfg.Actuator.Topic, byte(cfg.Actuator.QoS))

	// Connect to InfluxDB (optional) and mirror accepted readings and
	// heartbeat transitions
	var influxClient *influxdb.Client
	var statusMirror func(serialNumber string, online bool)
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		ingestor.SetMirror(func(serialNumber string, data *telemetry.EnvironmentData) {
			influxClient.WriteEnvironmentReading(serialNumber,
				data.Lux, data.Temperature, data.Humidity, data.Timestamp)
		})
		statusMirror = influxClient.WriteDeviceStatus
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the HTTP API
	server, err := api.New(api.Deps{
		Config:       cfg.API,
		Security:     cfg.Security,
		Logger:       log,
		Users:        userRepo,
		Devices:      deviceRepo,
		Locations:    locationRepo,
		Readings:     readingRepo,
		Ingestor:     ingestor,
		Relay:        relay,
		Version:      version,
		StatusMirror: statusMirror,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server listening",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Home Server stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HOMESERVER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HOMESERVER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
