package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mkelleher/invoicehub/internal/application/service"
	"github.com/mkelleher/invoicehub/internal/auth"
	"github.com/mkelleher/invoicehub/internal/config"
	"github.com/mkelleher/invoicehub/internal/infrastructure/export"
	"github.com/mkelleher/invoicehub/internal/infrastructure/external/openai"
	"github.com/mkelleher/invoicehub/internal/infrastructure/pdf"
	"github.com/mkelleher/invoicehub/internal/infrastructure/persistence/repository"
	"github.com/mkelleher/invoicehub/internal/infrastructure/persistence/sqlite"
	"github.com/mkelleher/invoicehub/internal/infrastructure/storage"
	httpserver "github.com/mkelleher/invoicehub/internal/interfaces/http"
	"github.com/mkelleher/invoicehub/pkg/database"
	"github.com/mkelleher/invoicehub/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting invoice intake service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories and transaction manager
	txManager := sqlite.NewDB(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)
	invoiceRepo := repository.NewInvoiceRepository(db.DB, logger)
	itemRepo := repository.NewLineItemRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)

	// Initialize object storage
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	objectStorage, err := storage.NewS3Storage(ctx, cfg.Storage.Bucket, cfg.Storage.Region, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Initialize extraction components
	fieldExtractor := openai.NewExtractor(openai.Config{
		APIKey:      cfg.Extraction.APIKey,
		BaseURL:     cfg.Extraction.BaseURL,
		Model:       cfg.Extraction.Model,
		Temperature: cfg.Extraction.Temperature,
	}, logger)
	textExtractor := pdf.NewTextExtractor(logger)
	exporter := export.NewExcelExporter(logger)

	// Initialize services
	serviceLogger := &zapLoggerAdapter{logger: logger}
	userService := service.NewUserService(userRepo, serviceLogger)
	invoiceService := service.NewInvoiceService(invoiceRepo, itemRepo, historyRepo, txManager, exporter, serviceLogger)
	uploadService := service.NewUploadService(objectStorage, serviceLogger)
	extractionService := service.NewExtractionService(
		&http.Client{Timeout: cfg.Extraction.Timeout},
		textExtractor,
		fieldExtractor,
		serviceLogger,
	)

	// Initialize token manager
	tokens := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.Issuer,
		cfg.Auth.AccessTTL,
		cfg.Auth.RefreshTTL,
	)

	// Initialize HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:          cfg.Server.Host,
			Port:          cfg.Server.Port,
			ReadTimeout:   cfg.Server.ReadTimeout,
			WriteTimeout:  cfg.Server.WriteTimeout,
			AuthPerMinute: cfg.RateLimit.AuthPerMinute,
			AuthBurst:     cfg.RateLimit.AuthBurst,
		},
		userService,
		invoiceService,
		uploadService,
		extractionService,
		tokens,
		serviceLogger,
	)

	// Run until interrupted
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(runCtx); err != nil {
		logger.Fatal("HTTP server error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
