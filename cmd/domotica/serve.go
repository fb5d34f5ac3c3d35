package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/domotica-core/migrations"

	"github.com/nerrad567/domotica-core/internal/api"
	"github.com/nerrad567/domotica-core/internal/audit"
	"github.com/nerrad567/domotica-core/internal/automation"
	"github.com/nerrad567/domotica-core/internal/device"
	"github.com/nerrad567/domotica-core/internal/infrastructure/config"
	"github.com/nerrad567/domotica-core/internal/infrastructure/database"
	"github.com/nerrad567/domotica-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/domotica-core/internal/infrastructure/logging"
	"github.com/nerrad567/domotica-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/domotica-core/internal/location"
	"github.com/nerrad567/domotica-core/internal/notify"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog API server",
		Long: `Open the database, apply pending migrations and serve the REST and
WebSocket API until SIGINT or SIGTERM. Change events are also published to
MQTT and InfluxDB when those are enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := opts.loadConfig()
			if err != nil {
				return err
			}

			log := logging.New(cfg.Logging, version)
			log.Info("starting Domotica Core",
				"version", version,
				"commit", commit,
				"build_date", date,
			)
			if path == "" {
				log.Info("no config file found, using defaults")
			} else {
				log.Info("configuration loaded", "path", path)
			}

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			return a.run(cmd.Context())
		},
	}
}

// app is the wired service: storage, registries, event fan-out and the
// API server.
type app struct {
	cfg *config.Config
	log *logging.Logger

	db         *database.DB
	mqtt       *mqtt.Client
	influx     *influxdb.Client
	dispatcher *notify.Dispatcher
	server     *api.Server
}

// newApp opens and migrates the database, connects the optional MQTT and
// InfluxDB sinks and builds the API server. Nothing is listening yet.
func newApp(ctx context.Context, cfg *config.Config, log *logging.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.db, err = database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info("database connected", "path", cfg.Database.Path)

	if err = a.db.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")

	a.dispatcher = notify.NewDispatcher(cfg.Notify.QueueSize)
	a.dispatcher.SetLogger(log.Component("notify"))
	a.dispatcher.SetSinkTimeout(cfg.GetSinkTimeout())

	auditRepo := audit.NewSQLiteRepository(a.db.DB)
	a.dispatcher.AddSink(auditRepo)

	checks := map[string]api.HealthChecker{}

	if cfg.MQTT.Enabled {
		a.mqtt, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("connecting to MQTT: %w", err)
		}
		a.mqtt.SetLogger(log.Component("mqtt"))
		a.mqtt.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		a.dispatcher.AddSink(mqtt.NewClientSink(a.mqtt))
		checks["mqtt"] = a.mqtt
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		a.influx, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		a.influx.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		a.dispatcher.AddSink(influxdb.NewEventSink(a.influx))
		checks["influxdb"] = a.influx
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	rooms := location.NewRegistry(a.db.DB)
	devices := device.NewRegistry(a.db.DB)
	actions := device.NewActionRegistry(a.db.DB)
	scenes := automation.NewRegistry(a.db.DB)

	rooms.SetLogger(log.Component("location"))
	devices.SetLogger(log.Component("device"))
	actions.SetLogger(log.Component("device"))
	scenes.SetLogger(log.Component("automation"))

	rooms.SetNotifier(a.dispatcher)
	devices.SetNotifier(a.dispatcher)
	actions.SetNotifier(a.dispatcher)
	scenes.SetNotifier(a.dispatcher)

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	a.dispatcher.AddSink(hub)

	a.server, err = api.New(api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Logger:  log.Component("api"),
		DB:      a.db,
		Rooms:   rooms,
		Devices: devices,
		Actions: actions,
		Scenes:  scenes,
		Audit:   auditRepo,
		Events:  a.dispatcher,
		Checks:  checks,
		Hub:     hub,
		Version: version,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	return a, nil
}

// run starts the dispatcher, hub and API server and blocks until ctx is
// cancelled. Queued events are delivered before run returns.
func (a *app) run(ctx context.Context) error {
	srvCtx, stopServer := context.WithCancel(context.WithoutCancel(ctx))
	defer stopServer()

	g, gctx := errgroup.WithContext(srvCtx)
	g.Go(func() error {
		// The dispatcher outlives ctx so changes committed during shutdown
		// still reach their sinks.
		return a.dispatcher.Run(gctx)
	})
	g.Go(func() error {
		a.server.Hub().Run(gctx)
		return nil
	})

	if err := a.server.Start(gctx); err != nil {
		stopServer()
		return errors.Join(fmt.Errorf("starting API server: %w", err), g.Wait())
	}
	a.log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()
	a.log.Info("shutdown signal received, cleaning up")

	var errs []error
	if err := a.server.Close(); err != nil {
		errs = append(errs, err)
	}
	stopServer()
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	stats := a.dispatcher.Stats()
	a.log.Info("Domotica Core stopped",
		"events_delivered", stats.Delivered,
		"events_dropped", stats.Dropped,
	)
	return errors.Join(errs...)
}

// close releases connections in reverse order of opening. It is safe to
// call on a partially built app.
func (a *app) close() {
	if a.influx != nil {
		a.log.Info("closing InfluxDB connection")
		if err := a.influx.Close(); err != nil {
			a.log.Error("error closing InfluxDB", "error", err)
		}
	}
	if a.mqtt != nil {
		a.log.Info("disconnecting from MQTT")
		if err := a.mqtt.Close(); err != nil {
			a.log.Error("error closing MQTT", "error", err)
		}
	}
	if a.db != nil {
		a.log.Info("closing database")
		if err := a.db.Close(); err != nil {
			a.log.Error("error closing database", "error", err)
		}
	}
}
