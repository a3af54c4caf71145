package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/coreybb/denima/api"
	"github.com/coreybb/denima/auth"
	"github.com/coreybb/denima/config"
	"github.com/coreybb/denima/datastore"
	"github.com/coreybb/denima/delivery"
	"github.com/coreybb/denima/models"
	rh "github.com/coreybb/denima/route-handlers"
	"github.com/coreybb/denima/sanitize"
	"github.com/coreybb/denima/storage"
)

const (
	dbPingTimeout     = 5 * time.Second
	shutdownTimeout   = 15 * time.Second
	startupTimeout    = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	dbMaxOpenConns    = 25
	dbMaxIdleConns    = 25
	dbConnMaxLifetime = 5 * time.Minute
	uploadsURLPrefix  = "/uploads"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	db, err := setupDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Database setup failed", zap.Error(err))
	}
	defer db.Close()

	if err := datastore.Migrate(db); err != nil {
		logger.Fatal("Database migration failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	userRepo := datastore.NewUserRepository(db)
	serviceRepo := datastore.NewServiceRepository(db)
	offerRepo := datastore.NewOfferRepository(db)
	digitalProductRepo := datastore.NewDigitalProductRepository(db)
	menuSectionRepo := datastore.NewMenuSectionRepository(db)
	productRepo := datastore.NewProductRepository(db)
	productImageRepo := datastore.NewProductImageRepository(db)
	orderRepo := datastore.NewOrderRepository(db)
	statsRepo := datastore.NewStatsRepository(db)

	if err := bootstrapAdmin(ctx, cfg, userRepo); err != nil {
		logger.Fatal("Admin bootstrap failed", zap.Error(err))
	}

	imageStore, err := setupImageStore(ctx, cfg)
	if err != nil {
		logger.Fatal("Image store setup failed", zap.Error(err))
	}
	cancel()

	tokens := auth.NewTokenService(cfg.JWTSecret)
	authService := auth.NewService(userRepo, tokens)
	sanitizer := sanitize.New()
	notifier := delivery.NewNotifier(setupMailProvider(cfg), cfg.MailFromName)
	metrics := api.NewMetrics()

	handlers := api.Handlers{
		Auth:            rh.NewAuthHandler(authService, userRepo),
		Services:        rh.NewServiceHandler(serviceRepo, sanitizer),
		Offer:           rh.NewOfferHandler(offerRepo, serviceRepo),
		DigitalProducts: rh.NewDigitalProductHandler(digitalProductRepo, sanitizer),
		MenuSections:    rh.NewMenuSectionHandler(menuSectionRepo),
		Products:        rh.NewProductHandler(productRepo, sanitizer),
		ProductImages:   rh.NewProductImageHandler(productRepo, productImageRepo, imageStore, metrics),
		Orders:          rh.NewOrderHandler(orderRepo, notifier, sanitizer),
		Uploads:         rh.NewUploadHandler(imageStore, metrics),
		Admin:           rh.NewAdminHandler(userRepo, statsRepo, sanitizer),
		Static:          rh.NewSPAHandler(cfg.StaticDir),
	}

	routerCfg := api.RouterConfig{
		CORSOrigins:  cfg.AllowedOrigins(),
		Gate:         api.NewGate(tokens, userRepo),
		AuthLimiter:  api.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst),
		OrderLimiter: api.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst),
		Metrics:      metrics,
		DB:           db,
	}
	if local, ok := imageStore.(*storage.LocalImageStore); ok {
		routerCfg.UploadDir = local.BasePath()
	}

	startServer(cfg.Port, api.SetupRoutes(handlers, routerCfg))
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func setupDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close() // Close unusable connection pool
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	zap.L().Info("Database connection successful")
	return db, nil
}

// bootstrapAdmin creates or promotes the configured admin account.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, users *datastore.UserRepository) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	if err := auth.ValidateUsername(cfg.AdminUsername); err != nil {
		return err
	}
	if err := auth.ValidatePassword("ADMIN_PASSWORD", cfg.AdminPassword); err != nil {
		return err
	}
	email := cfg.AdminEmail
	if email == "" {
		email = strings.ToLower(cfg.AdminUsername) + "@localhost"
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin := &models.User{
		ID:           uuid.NewString(),
		Username:     cfg.AdminUsername,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.EnsureAdmin(ctx, admin); err != nil {
		return err
	}
	zap.L().Info("Admin account ensured", zap.String("username", admin.Username))
	return nil
}

func setupImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		store, err := storage.NewS3ImageStore(ctx, cfg.S3())
		if err != nil {
			return nil, err
		}
		zap.L().Info("Using S3 image store", zap.String("endpoint", cfg.S3Endpoint), zap.String("bucket", cfg.S3Bucket))
		return store, nil
	default:
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", cfg.UploadDir, err)
		}
		zap.L().Info("Using local image store", zap.String("dir", cfg.UploadDir))
		return storage.NewLocalImageStore(cfg.UploadDir, uploadsURLPrefix), nil
	}
}

// setupMailProvider prefers SendGrid, then SMTP. Without either, order
// notifications are only logged.
func setupMailProvider(cfg *config.Config) delivery.Provider {
	switch {
	case cfg.SendGridAPIKey != "":
		return delivery.NewSendGridProvider(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
	case cfg.SMTPAddr != "":
		return delivery.NewSMTPProvider(cfg.SMTPAddr, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, cfg.MailFromName)
	default:
		zap.L().Warn("No mail provider configured. Order notifications will only be logged.")
		return nil
	}
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zap.L().Info("Server starting", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server error", zap.Error(err))
		}
	}()

	<-shutdownSignal // Block until signal received
	zap.L().Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Graceful shutdown failed", zap.Error(err))
	}

	zap.L().Info("Server gracefully stopped")
}
