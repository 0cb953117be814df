package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Shine-Infosolutions/eventbackend/internal/config"
	"github.com/Shine-Infosolutions/eventbackend/internal/database"
	"github.com/Shine-Infosolutions/eventbackend/internal/handler"
	"github.com/Shine-Infosolutions/eventbackend/internal/logger"
	"github.com/Shine-Infosolutions/eventbackend/internal/middleware"
	"github.com/Shine-Infosolutions/eventbackend/internal/queue"
	"github.com/Shine-Infosolutions/eventbackend/internal/repository"
	"github.com/Shine-Infosolutions/eventbackend/internal/router"
	"github.com/Shine-Infosolutions/eventbackend/internal/service"
)

func main() {
	// .env is optional; container deployments pass real env vars.
	envLoaded := godotenv.Load() == nil

	cfg := config.Load()
	bookingCfg := config.LoadBookingConfig()
	brokerCfg := config.LoadBrokerConfig()
	log := logger.New(cfg.Env)
	log.Info("configuration loaded", "env", cfg.Env, "dotenv", envLoaded)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Error("database connection failed")
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(migrateCtx, db)
	cancelMigrate()
	if err != nil {
		log.WithError(err).Error("schema migration failed")
		os.Exit(1)
	}

	// Redis is optional: limiter and cache turn into no-ops, QR tokens fail
	// with a dependency error.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting, caching and QR tokens are disabled")
	} else {
		defer rdb.Close()
	}

	// ---- repositories ----
	bookings := repository.NewBookingRepo(db)
	passTypes := repository.NewPassTypeRepo(db)
	entryLogs := repository.NewEntryLogRepo(db)
	gate := repository.NewGateRepo(bookings, entryLogs)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	qrTokens := repository.NewQRTokenStore(rdb, bookingCfg.QRTokenTTL)

	// ---- brokers ----
	publisher := queue.NewPublisher(brokerCfg.RabbitURL, brokerCfg.DispatchQueue)
	stream, err := queue.NewEntryStream(brokerCfg.KafkaBrokers, brokerCfg.KafkaEntryTopic)
	if err != nil {
		log.WithError(err).Warn("kafka unavailable; gate entries will not be streamed")
		stream = queue.NewEntryStreamWithProducer(nil, brokerCfg.KafkaEntryTopic)
	}
	defer stream.Close()

	// ---- services ----
	catalog := service.NewCatalog(passTypes, bookingCfg.EventName)
	ledger := service.NewLedger(bookings, passTypes, qrTokens, service.LedgerOptions{
		UniquePhone:  bookingCfg.UniquePhone,
		MaxAttempts:  bookingCfg.MaxAllocAttempts,
		LegacyPrefix: bookingCfg.LegacyNumberPrefix,
	}, log)
	tracker := service.NewEntryTracker(gate, ledger, entryLogs, qrTokens, stream, log)
	notifier := service.NewNotifier(ledger, qrTokens, publisher, bookingCfg.EventName, bookingCfg.PublicBaseURL, log)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOriginFunc:  allowOrigin(cfg.CORSOrigins),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	loginLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig("LOGIN", 5, 12*time.Second), rdb, log)
	gateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig("GATE", 120, 500*time.Millisecond), rdb, log)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, log), cfg.JWTSecret, loginLimit)
	router.RegisterPassTypes(e, handler.NewPassTypeHandler(catalog, log), cfg.JWTSecret, cache)
	router.RegisterBookings(e, handler.NewBookingHandler(ledger, notifier, bookingCfg.EventName, log), cfg.JWTSecret)
	router.RegisterEntry(e, handler.NewEntryHandler(tracker, log), cfg.JWTSecret, gateLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker := &queue.DispatchWorker{
		URL:       brokerCfg.RabbitURL,
		Queue:     brokerCfg.DispatchQueue,
		LogDir:    brokerCfg.DispatchLogDir,
		OutboxDir: brokerCfg.DispatchOutboxDir,
		Log:       log,
	}
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("dispatch worker stopped")
		}
	}()

	addr := ":" + cfg.Port
	go func() {
		log.Info("server listening", "addr", addr, "env", cfg.Env,
			"redis", rdb != nil, "kafka", stream.Enabled())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// allowOrigin accepts the configured origins plus any *.vercel.app
// preview deployment of the front desk app.
func allowOrigin(allowed []string) func(origin string) (bool, error) {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = true
	}
	return func(origin string) (bool, error) {
		if set["*"] || set[origin] {
			return true, nil
		}
		return strings.HasSuffix(origin, ".vercel.app"), nil
	}
}
