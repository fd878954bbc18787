package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/superdayz/studio-api/internal/cache"
	"github.com/superdayz/studio-api/internal/config"
	"github.com/superdayz/studio-api/internal/database"
	"github.com/superdayz/studio-api/internal/gemini"
	"github.com/superdayz/studio-api/internal/repository"
	"github.com/superdayz/studio-api/internal/server"
	"github.com/superdayz/studio-api/internal/service"
	"github.com/superdayz/studio-api/internal/storage"
	"github.com/superdayz/studio-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	rdb, err := cache.Connect(cfg)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	markers := cache.NewMarkers(rdb)

	genClient, err := gemini.NewClient(ctx, cfg, logr)
	if err != nil {
		log.Fatalf("gemini client: %v", err)
	}

	uploader, err := storage.NewUploader(storage.Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: cfg.S3PublicBaseURL,
		UsePathStyle:  cfg.S3UsePathStyle,
		Prefix:        cfg.S3Prefix,
	})
	if err != nil {
		log.Fatalf("storage uploader: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	todoRepo := repository.NewTodoRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	sliceRepo := repository.NewSliceRepository(db)

	locks := service.NewLocks()
	progressionService := service.NewProgressionService(logr, userRepo, notificationRepo)
	ledgerService := service.NewLedgerService(cfg, logr, userRepo, billingRepo, progressionService, locks, markers)
	generationService := service.NewGenerationService(cfg, logr, userRepo, historyRepo, sliceRepo, ledgerService, genClient, uploader, locks)
	userService := service.NewUserService(cfg, logr, userRepo, ledgerService, markers)
	todoService := service.NewTodoService(cfg, logr, todoRepo, userRepo, historyRepo, progressionService, locks)
	reminderService := service.NewReminderService(cfg, logr, todoRepo, notificationRepo, markers)
	sliceService := service.NewSliceService(logr, sliceRepo)
	notificationService := service.NewNotificationService(logr, notificationRepo)

	go reminderService.Run(ctx)

	srv := server.NewServer(cfg, logr, userService, generationService, ledgerService, todoService, sliceService, notificationService)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("server stopped", "err", err)
	}
}
