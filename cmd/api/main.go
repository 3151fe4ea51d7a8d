package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Seenusharmma/POS-FF/internal/catalog"
	"github.com/Seenusharmma/POS-FF/internal/config"
	"github.com/Seenusharmma/POS-FF/internal/httpx"
	kafkax "github.com/Seenusharmma/POS-FF/internal/kafka"
	"github.com/Seenusharmma/POS-FF/internal/logx"
	"github.com/Seenusharmma/POS-FF/internal/media"
	"github.com/Seenusharmma/POS-FF/internal/orders"
	"github.com/Seenusharmma/POS-FF/internal/postgres"
	"github.com/Seenusharmma/POS-FF/internal/realtime"
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

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store
	var (
		foodRepo  catalog.Repository
		orderRepo orders.Repository
	)
	switch cfg.StoreDriver {
	case "memory":
		foodRepo, orderRepo = catalog.NewMemRepo(), orders.NewMemRepo()
		log.Warn("using in-memory store, data is lost on restart")
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		foodRepo, orderRepo = &catalog.PGRepo{DB: db}, &orders.PGRepo{DB: db}
	}

	// Notification bus and websocket hub
	bus := realtime.NewBus(log)
	defer bus.Close()
	hub := realtime.NewHub(bus, []string{cfg.FrontendURL}, log)

	// Optional Kafka relay
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, 1024, log)
		prod.Start(ctx)
		relay := realtime.StartRelay(bus, prod, cfg.ServiceName, log)
		defer func() {
			relay.Stop()
			prod.Close()
			prod.WaitClosed()
		}()
		log.Info("event relay enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	// Blob host
	var images catalog.ImageStore = media.Disabled{Log: log}
	if cfg.Cloudinary.Enabled() {
		c, err := media.NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder, log)
		if err != nil {
			return err
		}
		images = c
	} else {
		log.Warn("cloudinary credentials missing, image uploads disabled")
	}

	// Optional Redis for Idempotency-Key
	var idem httpx.IdempotencyStore
	if cfg.RedisAddr != "" {
		rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		idem = redisx.NewIdempotencyStore(rdb)
	}

	foodSvc := catalog.NewService(foodRepo, images, bus, log)
	orderSvc := orders.NewService(orderRepo, bus, log, orders.Options{StrictStatus: cfg.StrictOrderStatus})

	if cfg.OccupancyReportSpec != "" {
		report := &orders.OccupancyReport{Src: orderSvc, Tables: cfg.TableCount, Log: log.Named("occupancy")}
		sched, err := report.Schedule(cfg.OccupancyReportSpec)
		if err != nil {
			return err
		}
		defer func() { <-sched.Stop().Done() }()
	}

	auth := httpx.NewAuth(cfg.AuthJWTSecret, cfg.AdminEmail)
	if auth == nil {
		log.Warn("AUTH_JWT_SECRET not set, identity checks disabled")
	}
	router := httpx.NewRouter(httpx.RouterConfig{
		Log:            log.Named("http"),
		Foods:          &httpx.FoodsHandler{Svc: foodSvc, Auth: auth, Log: log},
		Orders:         &httpx.OrdersHandler{Svc: orderSvc, Auth: auth, Idem: idem, TableCount: cfg.TableCount, Log: log},
		Events:         hub,
		Auth:           auth,
		AllowedOrigins: []string{cfg.FrontendURL},
		RequestTimeout: cfg.RequestTimeout,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		hub.Close()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
