package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/paintballpark/api"
	"github.com/Domenick1991/paintballpark/config"
	"github.com/Domenick1991/paintballpark/internal/bootstrap"
	"github.com/Domenick1991/paintballpark/internal/clock"
	"github.com/Domenick1991/paintballpark/internal/logger"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logEntry, logCloser, err := logger.New(cfg.Log, "park-app")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg, logEntry)
	if err != nil {
		logEntry.WithError(err).Fatal("open storage")
	}
	defer closeStore()

	infra, err := bootstrap.DialInfra(ctx, cfg, logEntry)
	if err != nil {
		logEntry.WithError(err).Fatal("dial infrastructure")
	}
	defer infra.Close()

	svcs, err := bootstrap.NewServices(ctx, cfg, store, infra, clock.NewSystem(), logEntry)
	if err != nil {
		logEntry.WithError(err).Fatal("build services")
	}

	limiterStore, err := api.NewLimiterStore(infra.Redis)
	if err != nil {
		logEntry.WithError(err).Fatal("rate limiter store")
	}
	router, err := api.NewRouter(cfg.HTTP, limiterStore, logEntry, api.Handlers{
		Zones:        api.NewZoneHandler(svcs.Zones),
		Reservations: api.NewReservationHandler(svcs.Reservations, svcs.Folios),
		Folios:       api.NewFolioHandler(svcs.Folios),
		Reports:      api.NewReportHandler(svcs.Reports),
	})
	if err != nil {
		logEntry.WithError(err).Fatal("build router")
	}

	// The worker cannot see an in-process store, so the app sweeps itself.
	var jobs []bootstrap.Job
	if cfg.Storage.Driver == config.StorageDriverMemory {
		jobs = append(jobs, svcs.Scheduler.Run)
	}

	if err := bootstrap.Run(ctx, cfg.HTTP.Address, router, logEntry, jobs...); err != nil {
		logEntry.WithError(err).Fatal("server error")
	}
}
