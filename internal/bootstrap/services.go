package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/paintballpark/config"
	"github.com/Domenick1991/paintballpark/internal/cache"
	"github.com/Domenick1991/paintballpark/internal/category"
	"github.com/Domenick1991/paintballpark/internal/clock"
	"github.com/Domenick1991/paintballpark/internal/interval"
	"github.com/Domenick1991/paintballpark/internal/invoicing"
	"github.com/Domenick1991/paintballpark/internal/kafka"
	"github.com/Domenick1991/paintballpark/internal/ledger"
	"github.com/Domenick1991/paintballpark/internal/repository"
	"github.com/Domenick1991/paintballpark/internal/scheduler"
	"github.com/Domenick1991/paintballpark/internal/sequence"
	"github.com/Domenick1991/paintballpark/internal/service/folio"
	"github.com/Domenick1991/paintballpark/internal/service/report"
	"github.com/Domenick1991/paintballpark/internal/service/reservation"
	"github.com/Domenick1991/paintballpark/internal/service/zones"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Infra holds the optional external connections. A nil field means the
// matching section of the config was left empty.
type Infra struct {
	Redis    *redis.Client
	Producer *kafka.Producer
	Invoicer *invoicing.Publisher
}

func DialInfra(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Infra, error) {
	infra := &Infra{}

	if cfg.Redis.Addr != "" {
		client := cache.NewClient(cfg.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		infra.Redis = client
	} else {
		log.Warn("redis not configured, zone cache and sweep lease are disabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		infra.Producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		if err := infra.Producer.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka is not reachable yet, events will be retried by the writer")
		}
	} else {
		log.Warn("kafka not configured, events and notifications are disabled")
	}

	if cfg.RabbitMQ.URL != "" {
		pub, err := invoicing.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.InvoiceQueue)
		if err != nil {
			_ = infra.Close()
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		infra.Invoicer = pub
	}

	return infra, nil
}

func (i *Infra) Close() error {
	var errs []error
	if i.Invoicer != nil {
		errs = append(errs, i.Invoicer.Close())
	}
	if i.Producer != nil {
		errs = append(errs, i.Producer.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	return errors.Join(errs...)
}

type Services struct {
	Store        *repository.Store
	Ledger       *ledger.Ledger
	Zones        *zones.ZoneService
	Reservations *reservation.ReservationService
	Folios       *folio.FolioService
	Reports      *report.ReportService
	Scheduler    *scheduler.Scheduler
}

// NewServices wires the use cases over store. Optional infra degrades
// features instead of failing: on the memory store without redis numbers
// come from an in-process counter, without kafka no events or reminders
// are sent.
func NewServices(ctx context.Context, cfg *config.Config, store *repository.Store, infra *Infra, clk clock.Clock, log logrus.FieldLogger) (*Services, error) {
	loc, err := cfg.Booking.Location()
	if err != nil {
		return nil, err
	}
	locale := clock.NewLocale(loc)
	l := ledger.New(store, clk, locale, log)

	var (
		zoneCache zones.Cache
		seq       sequence.Generator = sequence.NewMemoryGenerator()
		schedOpts []scheduler.Option
	)
	if infra.Redis != nil {
		rc := cache.NewRedisCache(infra.Redis, cfg.Booking.ZonesCacheTTL())
		zoneCache = rc
		seq = sequence.NewRedisGenerator(infra.Redis)
		schedOpts = append(schedOpts, scheduler.WithLease(rc))
	}
	// Numbers are UNIQUE in the database, so a durable store owns the
	// counter even when redis is configured.
	if store.Sequences != nil {
		seq = sequence.NewCounterGenerator(store.Sequences)
	}

	resOpts := []reservation.ReservationServiceOption{
		reservation.WithNumberPrefix(cfg.Booking.ReservationPrefix),
	}
	folioOpts := []folio.FolioServiceOption{
		folio.WithNumberPrefix(cfg.Booking.FolioPrefix),
		folio.WithGrace(interval.GraceRule{Minutes: cfg.Booking.GraceMinutes, Strict: cfg.Booking.GraceStrict}),
	}
	if infra.Producer != nil {
		resOpts = append(resOpts,
			reservation.WithEvents(infra.Producer, cfg.Kafka.EventsTopic),
			reservation.WithNotifier(kafka.NewNotifier(infra.Producer, cfg.Kafka.NotificationsTopic)),
		)
		folioOpts = append(folioOpts, folio.WithEvents(infra.Producer, cfg.Kafka.EventsTopic))
	}
	if infra.Invoicer != nil {
		folioOpts = append(folioOpts, folio.WithInvoicer(infra.Invoicer))
	}

	reservations := reservation.NewReservationService(store, l, seq, clk, log, resOpts...)
	folios := folio.NewFolioService(store, l, seq, reservations, clk, locale, log, folioOpts...)

	zoneSvc := zones.NewZoneService(store, l, category.NewTree(), zoneCache, log)
	if err := zoneSvc.LoadCategories(ctx); err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	if infra.Producer != nil {
		schedOpts = append(schedOpts, scheduler.WithReminder(reservations))
	}
	sched := scheduler.New(l, store.Zones, clk, scheduler.Config{
		SweepInterval:    cfg.Worker.SweepInterval(),
		ReminderInterval: cfg.Worker.ReminderInterval(),
		ReminderWindow:   cfg.Worker.ReminderWindow(),
		LeaseTTL:         cfg.Worker.SweepLease(),
	}, log, schedOpts...)

	return &Services{
		Store:        store,
		Ledger:       l,
		Zones:        zoneSvc,
		Reservations: reservations,
		Folios:       folios,
		Reports:      report.NewReportService(store, locale),
		Scheduler:    sched,
	}, nil
}
