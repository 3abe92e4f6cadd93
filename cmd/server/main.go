package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/soiree-app/soiree/internal/api"
	"github.com/soiree-app/soiree/internal/app"
	"github.com/soiree-app/soiree/internal/app/maintenance"
	"github.com/soiree-app/soiree/internal/auth"
	"github.com/soiree-app/soiree/internal/cache"
	"github.com/soiree-app/soiree/internal/database"
	"github.com/soiree-app/soiree/internal/middleware"
	"github.com/soiree-app/soiree/internal/services"
	"github.com/soiree-app/soiree/internal/storage"
	"github.com/soiree-app/soiree/pkg/logger"
	"github.com/soiree-app/soiree/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("soiree-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	store := selectCacheStore(cfg, db, log)
	defer func() {
		if rc, ok := store.(*cache.RedisClient); ok && rc != nil {
			_ = rc.Close()
		}
	}()

	codec, err := auth.NewTokenCodec(cfg.Auth.Session.Secret)
	if err != nil {
		return fmt.Errorf("initialise session codec: %w", err)
	}

	hosts, err := auth.NewHostService(auth.HostConfig{
		Username: cfg.Auth.Host.Username,
		Password: cfg.Auth.Host.Password,
	}, codec)
	if err != nil {
		return fmt.Errorf("initialise host auth: %w", err)
	}

	mailer, err := buildMailer(cfg, log)
	if err != nil {
		return err
	}

	rsvps, err := services.NewRsvpService(db)
	if err != nil {
		return fmt.Errorf("initialise rsvp service: %w", err)
	}

	otp, err := auth.NewOTPService(store, mailer, codec, rsvps, cfg.Email.SMTP.From)
	if err != nil {
		return fmt.Errorf("initialise verification service: %w", err)
	}

	objects, err := storage.NewFilesystemStore(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("initialise photo storage: %w", err)
	}

	signer, err := storage.NewURLSigner(cfg.Auth.Session.Secret)
	if err != nil {
		return fmt.Errorf("initialise media signer: %w", err)
	}

	photos, err := services.NewPhotoService(objects, signer)
	if err != nil {
		return fmt.Errorf("initialise photo service: %w", err)
	}

	albums, err := services.NewAlbumService(db)
	if err != nil {
		return fmt.Errorf("initialise album service: %w", err)
	}

	broadcasts, err := services.NewBroadcastService(mailer, cfg.Email.SMTP.From)
	if err != nil {
		return fmt.Errorf("initialise broadcast service: %w", err)
	}

	cleaner := maintenance.NewCleaner(maintenance.PurgerFor(store))
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		stopCtx := cleaner.Stop()
		if err := cleaner.RunOnce(stopCtx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}()

	router, err := api.NewRouter(api.Deps{
		DB:         db,
		Hosts:      hosts,
		OTP:        otp,
		Rsvps:      rsvps,
		Albums:     albums,
		Photos:     photos,
		Broadcasts: broadcasts,
		RateStore:  rateStoreFor(store),
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

// selectCacheStore prefers Redis when configured, falling back to the
// database-backed store so verification codes survive restarts.
func selectCacheStore(cfg *app.Config, db *gorm.DB, log *zap.Logger) cache.Store {
	if cfg.Cache.Redis.Enabled {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Address:  cfg.Cache.Redis.Address,
			Username: cfg.Cache.Redis.Username,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TLS:      cfg.Cache.Redis.TLS,
			Timeout:  cfg.Cache.Redis.Timeout,
		})
		if err != nil {
			log.Warn("redis unavailable; falling back to database store", zap.Error(err))
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
			return client
		}
	}
	return cache.NewDatabaseStore(db)
}

func rateStoreFor(store cache.Store) middleware.RateStore {
	switch store.(type) {
	case *cache.RedisClient:
		return middleware.NewRedisRateStore(store)
	default:
		return middleware.NewDatabaseRateStore(store)
	}
}

func buildMailer(cfg *app.Config, log *zap.Logger) (mail.Mailer, error) {
	if !cfg.Email.SMTP.Enabled {
		log.Warn("smtp disabled; verification codes and broadcasts will only be logged")
		return mail.NewLogMailer(logger.WithModule("mail")), nil
	}

	mailer, err := mail.NewSMTPMailer(mail.SMTPSettings{
		Enabled:  cfg.Email.SMTP.Enabled,
		Host:     cfg.Email.SMTP.Host,
		Port:     cfg.Email.SMTP.Port,
		Username: cfg.Email.SMTP.Username,
		Password: cfg.Email.SMTP.Password,
		From:     cfg.Email.SMTP.From,
		UseTLS:   cfg.Email.SMTP.UseTLS,
		Timeout:  cfg.Email.SMTP.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise smtp mailer: %w", err)
	}
	return mailer, nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
