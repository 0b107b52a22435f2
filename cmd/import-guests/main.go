package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/port"
	"github.com/lfariabr/wedstack-sub000/internal/infra/config"
	"github.com/lfariabr/wedstack-sub000/internal/infra/database"
	kafkainfra "github.com/lfariabr/wedstack-sub000/internal/infra/kafka"
	"github.com/lfariabr/wedstack-sub000/internal/infra/logger"
	redisinfra "github.com/lfariabr/wedstack-sub000/internal/infra/redis"
	postgresrepo "github.com/lfariabr/wedstack-sub000/internal/repository/postgres"
	redisrepo "github.com/lfariabr/wedstack-sub000/internal/repository/redis"
	"github.com/lfariabr/wedstack-sub000/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	delimiter := flag.String("delimiter", "", "column separator (defaults to config, then comma)")
	resetDedupe := flag.Bool("reset-dedupe", false, "clear the dedupe set before importing")
	resetGuests := flag.Bool("reset-guests", false, "empty the guest table before importing")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <guests.csv>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, zlog)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisinfra.NewClient(cfg.Redis, zlog)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer func() { _ = redisClient.Close() }()

	guestRepo := postgresrepo.NewGuestRepository(pool)
	dedupeStore := redisrepo.NewDedupeSetRepository(redisClient.Client(), cfg.Redis.DedupePrefix, cfg.Postgres.DSN())

	var events port.EventPublisher = kafkainfra.NewStubPublisher(zlog)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, zlog)
		if err != nil {
			zlog.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		} else {
			defer func() { _ = producer.Close() }()
			events = kafkainfra.NewEventPublisher(producer, cfg.App, zlog)
		}
	}

	importer := usecase.NewGuestImporter(guestRepo, dedupeStore, events, zlog)

	opts := usecase.DefaultImportOptions()
	opts.Source = path
	opts.ResetDedupe = *resetDedupe
	opts.ResetGuests = *resetGuests
	if cfg.Import.Delimiter != "" {
		opts.Delimiter = rune(cfg.Import.Delimiter[0])
	}
	opts.Trim = cfg.Import.Trim
	if *delimiter != "" {
		opts.Delimiter = rune((*delimiter)[0])
	}

	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer func() { _ = file.Close() }()

	report, err := importer.Run(ctx, file, opts)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	fmt.Println(report.Summary())
	for _, rowErr := range report.Errors {
		fmt.Printf("  line %d: %s\n", rowErr.Line, rowErr.Error)
	}

	if len(report.Errors) > 0 {
		os.Exit(1)
	}
}
