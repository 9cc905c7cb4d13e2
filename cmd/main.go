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

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"storefront/internal/api"
	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/migrations"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func connectDB(dsn, dbname string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				logger.Info().Msgf("Connected to DB %s", dbname)
				return db, nil
			}
		}
		logger.Warn().Err(err).Msgf("Retry %d: failed to connect to DB %s", i+1, dbname)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s after retries: %w", dbname, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(cfg.DSN(), cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database unavailable")
	}
	defer db.Close()

	if err := migrations.AutoMigrate(3, db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate tables")
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer rdb.Close()
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, menu cache and duplicate submission guard disabled")
	}

	// Orders are announced on Kafka when brokers are configured, so that every
	// instance relays them to its own admin sessions. Otherwise they go
	// straight to the in-process broker.
	broker := notify.NewBroker()
	var publisher notify.Publisher = broker
	if len(cfg.KafkaBrokers) > 0 {
		writer := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.OrderTopic)
		defer writer.Close()
		publisher = notify.NewKafkaPublisher(writer)

		host, _ := os.Hostname()
		reader := config.NewKafkaReader(cfg.KafkaBrokers, cfg.OrderTopic, "storefront-notify-"+host)
		defer reader.Close()
		go func() {
			if err := notify.NewKafkaRelay(reader, broker).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("Order relay stopped")
			}
		}()
	}

	issuer := auth.NewIssuer([]byte(cfg.JWTSecret), 24*time.Hour)

	menuRepo := repository.NewMenuRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	menuService := service.NewMenuService(menuRepo, rdb)
	orderService := service.NewOrderService(menuRepo, orderRepo, profileRepo, publisher, cfg.Schedule, cfg.Transitions == config.TransitionsStrict)
	profileService := service.NewProfileService(profileRepo)
	adminService := service.NewAdminService(adminRepo, issuer)

	if err := adminService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create admin account")
	}

	e := echo.New()
	e.HideBanner = true

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/notifications")
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(10),
				Burst:     30,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	api.Register(e, issuer, api.Handlers{
		Orders:        api.NewOrderHandler(orderService, rdb, cfg.Schedule, cfg.PublicBaseURL),
		Menu:          api.NewMenuHandler(menuService),
		Profiles:      api.NewProfileHandler(profileService, orderService),
		Admin:         api.NewAdminHandler(adminService, orderService, menuService),
		Notifications: api.NewNotificationHandler(broker),
	})

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown")
	}
	orderService.Drain()
}
