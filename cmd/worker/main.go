package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/paintballpark/config"
	"github.com/Domenick1991/paintballpark/internal/bootstrap"
	"github.com/Domenick1991/paintballpark/internal/clock"
	"github.com/Domenick1991/paintballpark/internal/email"
	"github.com/Domenick1991/paintballpark/internal/kafka"
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
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Fatalf("worker needs shared storage, storage.driver is %q", cfg.Storage.Driver)
	}

	logEntry, logCloser, err := logger.New(cfg.Log, "park-worker")
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

	jobs := []bootstrap.Job{svcs.Scheduler.Run}

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()

		sender := email.NewSender(email.NewSMTPDialer(cfg.SMTP), cfg.SMTP.From, logEntry)
		jobs = append(jobs, func(ctx context.Context) error {
			return consumer.Consume(ctx, kafka.NotificationHandler(logEntry, sender.Send))
		})
	}

	logEntry.Info("worker started")
	if err := bootstrap.RunJobs(ctx, jobs...); err != nil {
		logEntry.WithError(err).Fatal("worker stopped")
	}
	logEntry.Info("worker stopped")
}
