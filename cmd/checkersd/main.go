package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/chdb/checkers/internal/config"
	"github.com/chdb/checkers/internal/database"
	"github.com/chdb/checkers/internal/kvstore"
	"github.com/chdb/checkers/internal/logging"
	"github.com/chdb/checkers/internal/metrics"
	"github.com/chdb/checkers/internal/notify"
	"github.com/chdb/checkers/internal/server"
	"github.com/chdb/checkers/internal/service"
)

type storage struct {
	store   service.Store
	archive *database.DB
	close   func() error
}

func openStorage(cfg config.StorageConfig) (*storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := database.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &storage{store: db, archive: db, close: db.Close}, nil
	case config.DriverPebble:
		kv, err := kvstore.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &storage{store: kv, close: kv.Close}, nil
	default:
		kv, err := kvstore.OpenInMemory()
		if err != nil {
			return nil, err
		}
		return &storage{store: kv, close: kv.Close}, nil
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to a YAML config file")
		port       = flag.Int("port", 0, "Server port (overrides config)")
		dbPath     = flag.String("db", "", "Storage path (overrides config)")
		driver     = flag.String("driver", "", "Storage driver: sqlite, pebble or memory (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *driver != "" {
		cfg.Storage.Driver = *driver
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	st, err := openStorage(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to open storage",
			zap.String("driver", cfg.Storage.Driver),
			zap.String("path", cfg.Storage.Path),
			zap.Error(err))
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("failed to close storage", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := notify.NewHub(logger)
	go hub.Run(ctx)

	svc := service.New(st.store, service.Options{
		Logger:   logger,
		Metrics:  m,
		Notifier: hub,
	})

	gin.SetMode(cfg.Server.GinMode)
	router := server.SetupRouter(server.Deps{
		Service:          svc,
		Archive:          st.archive,
		Hub:              hub,
		Logger:           logger,
		Metrics:          m,
		Gatherer:         reg,
		Driver:           cfg.Storage.Driver,
		ArchiveWorkers:   cfg.Archive.Workers,
		ArchiveBatchSize: cfg.Archive.BatchSize,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("checkers server starting",
			zap.String("addr", srv.Addr),
			zap.String("driver", cfg.Storage.Driver),
			zap.String("path", cfg.Storage.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
