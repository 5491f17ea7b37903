package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/venue-booking/internal/booking"
	"github.com/ariefcatur/venue-booking/internal/config"
	"github.com/ariefcatur/venue-booking/internal/httpx"
	kafkax "github.com/ariefcatur/venue-booking/internal/kafka"
	"github.com/ariefcatur/venue-booking/internal/logx"
	"github.com/ariefcatur/venue-booking/internal/members"
	"github.com/ariefcatur/venue-booking/internal/postgres"
	"github.com/ariefcatur/venue-booking/internal/pricing"
	"github.com/ariefcatur/venue-booking/internal/projection"
	"github.com/ariefcatur/venue-booking/internal/redisx"
	"github.com/ariefcatur/venue-booking/internal/reservation"
	"github.com/ariefcatur/venue-booking/internal/slots"
	"github.com/ariefcatur/venue-booking/internal/venues"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logx.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("api exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.Options{})
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := redisx.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer rdb.Close()

	strategies, err := pricing.Build(cfg.PricingStrategies)
	if err != nil {
		return err
	}

	// producer outlives the request context so queued events still flush
	pctx, cancelProducer := context.WithCancel(context.Background())
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(pctx)

	provider := slots.NewProvider(&redisx.ConfigStore{Redis: rdb}, cfg.DefaultSlotInterval, log)
	scopes := &venues.PgRepo{DB: db}
	svc := &booking.Service{
		Scopes:      scopes,
		Slots:       provider,
		Guard:       &reservation.PgGuard{DB: db, LockTimeout: cfg.LockTimeout},
		Members:     &members.PgRepo{DB: db},
		Strategies:  strategies,
		Events:      &booking.KafkaPublisher{Producer: prod},
		Log:         log,
		ServiceName: cfg.ServiceName,
	}

	router := httpx.NewRouter(log, cfg.RequestTimeout*3)
	capability := httpx.BearerJWT([]byte(cfg.JWTSecret))
	(&httpx.SlotsHandler{Scopes: scopes, Provider: provider, Log: log}).Register(router, capability)
	(&httpx.BookingsHandler{
		Service: svc,
		Redis:   rdb,
		Cache:   &projection.StatusCache{Redis: rdb},
		Timeout: cfg.RequestTimeout,
		Log:     log,
	}).Register(router, capability)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	err = g.Wait()

	prod.Close()
	prod.WaitClosed()
	cancelProducer()
	return err
}
