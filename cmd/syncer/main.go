package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"conference-agenda-sync/internal/config"
	"conference-agenda-sync/internal/logging"
	"conference-agenda-sync/internal/services"
)

func main() {
	userFlag := flag.String("user", "", "user id (uuid) to sync")
	daysFlag := flag.Int("days", 30, "look-ahead window in days")
	flag.Parse()

	// Optional .env for local runs; real deployments inject the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		logger.Fatal("invalid -user flag, expected a uuid", zap.Error(err))
	}

	ctx := context.Background()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	store := services.NewGormStore(db)
	if err := store.AutoMigrate(); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}

	var archiver services.ContentArchiver
	if s3Archiver, err := services.NewS3Archiver(ctx, cfg.Archive); err != nil {
		logger.Fatal("failed to build s3 archiver", zap.Error(err))
	} else if s3Archiver != nil {
		archiver = s3Archiver
	}

	metrics := services.NewEnrichmentMetrics()
	pipeline := services.NewEnrichmentPipeline(
		services.NewPageFetcher(),
		services.NewScheduleExtractor(cfg.OpenAI, logger),
		store,
		archiver,
		metrics,
		cfg.Scraper.FetchTimeout,
		cfg.Scraper.MaxChunkChars,
		logger,
	)

	syncer := services.NewSyncer(
		store,
		services.NewGoogleCalendarClient(logger),
		services.NewGoogleTokenRefresher(cfg.Google),
		pipeline,
		cfg.Google.MaxResults,
		logger,
	)

	timeMin := time.Now()
	timeMax := timeMin.Add(time.Duration(*daysFlag) * 24 * time.Hour)
	result, err := syncer.SyncUserCalendar(ctx, userID, &timeMin, &timeMax)
	if err != nil {
		logger.Fatal("sync failed", zap.Error(err))
	}

	snapshot := metrics.Snapshot()
	fmt.Println(result.Message)
	fmt.Printf("events synced: %d, enrichments run: %d (succeeded: %d, failed: %d, sub-events inserted: %d)\n",
		result.EventsSynced, result.EnrichmentsRun,
		snapshot.SuccessfulEnrichments, snapshot.FailedEnrichments, snapshot.SubEventsInserted)
}
