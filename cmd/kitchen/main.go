package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Seenusharmma/POS-FF/internal/config"
	kafkax "github.com/Seenusharmma/POS-FF/internal/kafka"
	"github.com/Seenusharmma/POS-FF/internal/kitchen"
	"github.com/Seenusharmma/POS-FF/internal/logx"
	"github.com/Seenusharmma/POS-FF/internal/orders"
	"github.com/Seenusharmma/POS-FF/internal/postgres"
	"github.com/Seenusharmma/POS-FF/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logx.New(logx.Options{Level: cfg.LogLevel, Mode: cfg.LogMode, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log.Named("kitchen")); err != nil {
		log.Error("kitchen stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	if len(cfg.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required for the kitchen board")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	board := orders.NewBoard(cfg.TableCount)

	// Seed from the store so the board starts with orders placed before
	// this process came up.
	if cfg.StoreDriver == "postgres" {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		list, err := (&orders.PGRepo{DB: db}).List(ctx)
		db.Close()
		if err != nil {
			return errors.Wrap(err, "seed board")
		}
		board.Reset(list)
		log.Info("board seeded", zap.Int("orders", len(list)))
	}

	svc := &kitchen.Service{Board: board, Log: log}
	if cfg.RedisAddr != "" {
		rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		svc.Dedup = redisx.NewDedup(rdb, cfg.KitchenGroup)
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.KitchenGroup, cfg.KafkaTopic, cfg.KitchenWorker, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("kitchen consumer started",
			zap.String("group", cfg.KitchenGroup),
			zap.String("topic", cfg.KafkaTopic),
			zap.Int("workers", cfg.KitchenWorker))
		return cons.Start(gctx, svc.HandleEnvelope)
	})
	err := g.Wait()
	log.Info("kitchen consumer stopped")
	return err
}
