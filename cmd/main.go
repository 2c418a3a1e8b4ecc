package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	_ "github.com/kasunwathsala/solar-dashboard-data-api/docs"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/handlers"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/logger"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/registry"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/repository"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/server"
	"github.com/kasunwathsala/solar-dashboard-data-api/internal/service"
)

// @title        Solar Dashboard Data API
// @version      1.0
// @description  Synthetic solar telemetry generation and scheduling service

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(db)
	units := registry.NewClient(
		viper.GetString("registry.base_url"),
		viper.GetDuration("registry.timeout"),
	)
	services, err := service.NewService(repos, units, serviceConfig(log), log)
	if err != nil {
		log.Fatalw("failed to build services", "err", err)
	}
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// daily generation timer
	if viper.GetBool("scheduler.enabled") {
		services.Scheduler.Start(ctx)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, services.Scheduler, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// serviceConfig resolves service settings from the loaded config file.
func serviceConfig(log *logger.Logger) service.Config {
	loc := time.UTC
	if tz := viper.GetString("scheduler.timezone"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			log.Warnw("bad scheduler.timezone, using UTC", "timezone", tz, "err", err)
		} else {
			loc = parsed
		}
	}

	var rules []service.AnomalyRuleConfig
	if err := viper.UnmarshalKey("anomalies", &rules); err != nil {
		log.Warnw("bad anomalies config, using built-in rules", "err", err)
		rules = nil
	}

	return service.Config{
		Workers:    viper.GetInt("generation.workers"),
		Location:   loc,
		SigningKey: viper.GetString("auth.signing_key"),
		TokenTTL:   viper.GetDuration("auth.token_ttl"),
		Anomalies:  rules,
	}
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return repository.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, sched *service.Scheduler, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the timer loop and background goroutines
	sched.Stop()
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
