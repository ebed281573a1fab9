// Device Dashboard - MQTT monitoring and control for a single device
//
// This is the main entry point for the dashboard service. It connects to an
// MQTT broker, keeps a persistent list of subscribed topics, decodes sensor
// readings for display and publishes level commands back to the device.
//
// Usage:
//
//	dashboard                         run the service
//	dashboard token <subject> [role]  print an API token (needs a JWT secret)
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/gray-logic-dashboard/migrations"

	"github.com/nerrad567/gray-logic-dashboard/internal/api"
	"github.com/nerrad567/gray-logic-dashboard/internal/auth"
	"github.com/nerrad567/gray-logic-dashboard/internal/dashboard"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-dashboard/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-dashboard/internal/kvstore"
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

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runToken(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Cancels on Ctrl+C and SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting device dashboard",
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

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

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
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// InfluxDB is optional; readings are mirrored there when enabled.
	influxClient, err := connectInflux(cfg.InfluxDB, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	if err := healthCheck(ctx, db, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("storage health checks passed")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, "dashboard"),
	)

	// The hub is both the controller's renderer and the API's socket hub.
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))

	deps := dashboard.Deps{
		Config:      cfg.Dashboard,
		Store:       kvstore.NewSQLiteStore(db.DB),
		History:     dashboard.NewSQLiteActivityRepository(db.DB),
		Renderer:    hub,
		Metrics:     dashboard.NewMetrics(reg),
		Logger:      log.Component("dashboard"),
		BrokerLabel: mqtt.BrokerURL(cfg.MQTT.Broker),
	}
	if influxClient != nil {
		deps.Telemetry = influxClient
	}
	ctrl, err := dashboard.New(deps)
	if err != nil {
		return fmt.Errorf("creating dashboard: %w", err)
	}

	session := mqtt.NewSession(cfg.MQTT, mqtt.Handlers{
		OnConnect:        ctrl.HandleConnect,
		OnConnectFailed:  ctrl.HandleConnectFailed,
		OnConnectionLost: ctrl.HandleConnectionLost,
		OnMessage:        ctrl.HandleMessage,
	})
	session.SetLogger(log.Component("mqtt"))
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := session.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT session prepared",
		"broker", session.BrokerURL(),
		"client_id", session.ClientID(),
	)

	checks := map[string]api.HealthChecker{
		"database": db,
		"mqtt":     session,
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient
	}

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log.Component("api"),
		Controller: ctrl,
		Hub:        hub,
		Checks:     checks,
		DB:         db.DB,
		Gatherer:   reg,
		Version:    version,
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

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return ctrl.Run(gctx, session)
	})

	log.Info("initialisation complete, waiting for shutdown signal")

	if err := g.Wait(); err != nil {
		return fmt.Errorf("dashboard controller: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, MQTT, InfluxDB (if enabled), database.

	log.Info("device dashboard stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses DASHBOARD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectInflux returns nil without error when InfluxDB is disabled.
func connectInflux(cfg config.InfluxDBConfig, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(cfg)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	return client, nil
}

// healthCheck verifies storage is reachable before the service starts.
// The broker is not checked: the dashboard starts disconnected and the
// session state is reported on the page.
func healthCheck(ctx context.Context, db *database.DB, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// runToken prints a signed API token for subject. The role defaults to
// operator.
func runToken(args []string, out io.Writer) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: dashboard token <subject> [viewer|operator]")
	}

	role := auth.RoleOperator
	if len(args) == 2 {
		role = auth.Role(args[1])
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	token, err := auth.GenerateToken(args[0], role, cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer, 0)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
