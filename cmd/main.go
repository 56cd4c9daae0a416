package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "single_sensor/docs"
	"single_sensor/internal/config"
	"single_sensor/internal/handlers"
	"single_sensor/internal/logger"
	"single_sensor/internal/repository"
	"single_sensor/internal/repository/db"
	"single_sensor/internal/sensor"
	"single_sensor/internal/server"
	"single_sensor/internal/service"
	"single_sensor/internal/sinks"
	"single_sensor/internal/system"
)

const shutdownTimeout = 10 * time.Second

// @title                       Single Sensor Monitor API
// @version                     1.0
// @description                 Environmental sensor monitor: latest reading, event log, settings and reboot.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load("configs")
	if err != nil {
		logger.New(logger.Options{Level: logger.InfoLevel}).Fatalw("error reading config", "err", err)
	}

	log := logger.New(logger.Options{
		Level:        cfg.LogLevel,
		ErrorLogPath: cfg.Logs.Errors,
		MaxSizeMB:    cfg.Logs.MaxSizeMB,
		MaxBackups:   cfg.Logs.MaxBackups,
	})
	defer func() { _ = log.Close() }()

	// settings are read once; edits through the form apply on the next start
	settings, err := repository.NewSettingsFile(cfg.SettingsPath).Load()
	if err != nil {
		log.Fatalw("invalid settings file", "path", cfg.SettingsPath, "err", err)
	}

	sqlDB, err := openDB(cfg)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	source, closeSource, err := sensor.Open(cfg)
	if err != nil {
		log.Fatalw("failed to open sensor", "driver", cfg.Sensor.Driver, "err", err)
	}
	defer func() {
		if cerr := closeSource(); cerr != nil {
			log.Errorw("failed to close sensor", "err", cerr)
		}
	}()

	readingLog := sinks.NewReadingLog(cfg.Logs.Readings, cfg.Logs.MaxSizeMB, cfg.Logs.MaxBackups)
	defer func() { _ = readingLog.Close() }()

	rebooter, err := system.NewRebooter(cfg.Reboot.Mode)
	if err != nil {
		log.Fatalw("invalid reboot mode", "err", err)
	}

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinkSet := service.Sinks{
		Source:      source,
		ReadingLog:  readingLog,
		CallTimeout: cfg.Poll.CallTimeout,
	}
	if cfg.Telemetry.Enabled {
		aio := sinks.NewAdafruitIO(sinks.TelemetryOptions{
			Broker:   cfg.Telemetry.Broker,
			ClientID: cfg.Telemetry.ClientID,
			Username: settings.AdafruitUsername,
			Key:      settings.AdafruitKey,
		}, log)
		go func() {
			if err := aio.Connect(ctx); err != nil {
				log.Errorw("telemetry connect failed", "err", err)
			}
		}()
		defer aio.Disconnect()
		sinkSet.Telemetry = aio
	}
	if cfg.Chat.Enabled {
		sinkSet.Chat = sinks.NewSlack(settings.SlackAPIToken, settings.SlackChannel, cfg.Chat.APIURL)
	}

	repos := repository.NewRepository(sqlDB, cfg.SettingsPath)
	services := service.NewService(repos, service.Deps{
		Settings: settings,
		Sinks:    sinkSet,
		Rebooter: rebooter,
		Auth:     service.AuthConfig{SigningKey: signingKey(cfg, log), TokenTTL: cfg.Auth.TokenTTL},
		Log:      log,
	})
	bootstrapOperator(cfg, services, log)

	apiHandler := handlers.NewHandler(services, log)

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		services.Poller.Run(ctx, settings.ReadInterval())
	}()

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(cancel, srv, log)

	// let an in-flight cycle finish before the sinks close
	select {
	case <-pollDone:
	case <-time.After(shutdownTimeout):
		log.Warnw("poll loop did not stop in time")
	}
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	return db.InitDB(cfg.DB.Path)
}

// signingKey falls back to a random per-process key, which invalidates
// issued tokens on restart.
func signingKey(cfg *config.Config, log *logger.Logger) []byte {
	if cfg.Auth.SigningKey != "" {
		return []byte(cfg.Auth.SigningKey)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalw("failed to generate signing key", "err", err)
	}
	log.Warnw("auth.signing_key not set; using a random key for this run")
	return key
}

func bootstrapOperator(cfg *config.Config, services *service.Service, log *logger.Logger) {
	op := cfg.Auth.Operator
	if op.Username == "" {
		log.Warnw("auth.operator not configured; the JSON API has no operator account")
		return
	}
	id, err := services.EnsureOperator(op.Username, op.Password)
	if err != nil {
		log.Fatalw("failed to bootstrap operator", "username", op.Username, "err", err)
	}
	log.Infow("operator ready", "username", op.Username, "id", id)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
	log.Infow("http server started", "port", port)
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Infow("shutting down", "signal", sig.String())

	// stop the poll loop
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
