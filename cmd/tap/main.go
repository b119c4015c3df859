package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"awin_tap/internal/config"
	"awin_tap/internal/cursor"
	"awin_tap/internal/scheduler"
	"awin_tap/internal/service"
	"awin_tap/internal/sink"
	"awin_tap/internal/source/awin"
	"awin_tap/internal/storage/file"
	"awin_tap/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file (required)")
	statePath := flag.String("state", "", "path to state file, overrides state.path")
	flag.Parse()

	logger := setupLogger("info")

	if *configPath == "" {
		logger.Error("missing required flag", "flag", "config")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *statePath != "" {
		cfg.State.Path = *statePath
	}

	logger = setupLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("tap failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	var db *sqlx.DB
	if cfg.Sink.Driver == config.SinkPostgres || cfg.State.Driver == config.StatePostgres {
		conn, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer conn.Close()
		db = conn
		logger.Info("connected to database")
	}

	recordSink, err := newSink(cfg, db, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := recordSink.Close(); err != nil {
			logger.Error("failed to close sink", "error", err)
		}
	}()

	var states service.StateStore = file.NewStateStore(cfg.State.Path)
	if cfg.State.Driver == config.StatePostgres {
		states = postgres.NewSyncStateStore(db, cfg.State.TapID)
	}

	var txManager service.TransactionManager = service.NoTransaction{}
	if db != nil {
		txManager = postgres.NewTransactionManager(db)
	}

	awinSource := awin.New(awin.Config{
		BaseURL:        cfg.API.BaseURL,
		AccessToken:    cfg.AccessToken,
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.API.Timeout,
		MaxAttempts:    cfg.API.Retry.MaxAttempts,
		InitialBackoff: cfg.API.Retry.InitialBackoff,
		MaxBackoff:     cfg.API.Retry.MaxBackoff,
	}, logger)

	planner := cursor.NewManager(cfg.StartTime(), cfg.Increment, cursor.Extras{
		Transactions:         cfg.Transactions,
		AggregatedByCreative: cfg.AggregatedByCreative,
		AggregatedReport:     cfg.AggregatedReport,
		Programmes:           cfg.Programmes,
	})

	extractor := service.NewExtractor(awinSource, recordSink, logger, cfg.Sync)
	syncService := service.NewSyncService(planner, extractor, recordSink, states, txManager, logger)
	sched := scheduler.NewScheduler(syncService, cfg.Sync.Schedule, cfg.Sync.RunTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting tap",
		"source", awinSource.Name(),
		"sink", cfg.Sink.Driver,
		"state", cfg.State.Driver,
		"schedule", cfg.Sync.Schedule,
	)

	if cfg.Sync.Schedule == "" {
		return sched.RunOnce(ctx)
	}

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newSink(cfg *config.Config, db *sqlx.DB, logger *slog.Logger) (service.RecordSink, error) {
	switch cfg.Sink.Driver {
	case config.SinkRabbitMQ:
		r, err := sink.NewRabbitMQ(sink.RabbitMQConfig{
			URL:       cfg.Sink.RabbitMQ.URL,
			Exchange:  cfg.Sink.RabbitMQ.Exchange,
			QueueName: cfg.Sink.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		return r, nil
	case config.SinkKafka:
		k, err := sink.NewKafka(cfg.Sink.Kafka.Brokers, cfg.Sink.Kafka.TopicPrefix)
		if err != nil {
			return nil, fmt.Errorf("create kafka sink: %w", err)
		}
		return k, nil
	case config.SinkPostgres:
		return postgres.NewRecordStore(db, postgres.NewSyncStateStore(db, cfg.State.TapID)), nil
	default:
		return sink.NewSinger(os.Stdout), nil
	}
}

// setupLogger writes to stderr; stdout carries the singer stream.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}
