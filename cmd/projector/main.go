package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/venue-booking/internal/booking"
	"github.com/ariefcatur/venue-booking/internal/config"
	kafkax "github.com/ariefcatur/venue-booking/internal/kafka"
	"github.com/ariefcatur/venue-booking/internal/logx"
	"github.com/ariefcatur/venue-booking/internal/projection"
	"github.com/ariefcatur/venue-booking/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := redisx.New(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	p := &projection.Projector{
		Redis:       rdb,
		Cache:       &projection.StatusCache{Redis: rdb},
		Log:         log,
		ServiceName: cfg.ServiceName + "-projector",
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ProjectorGroup, booking.Topics, cfg.ProjectorWorkers, log)

	log.Info("projector started",
		zap.String("group", cfg.ProjectorGroup),
		zap.Strings("topics", booking.Topics),
		zap.Int("workers", cfg.ProjectorWorkers))
	if err := cons.Start(ctx, p.Handle); err != nil {
		log.Fatal("consumer exit", zap.Error(err))
	}
	log.Info("projector stopped")
}
