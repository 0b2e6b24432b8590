package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/course-backoffice/internal/auth"
	"github.com/iliyamo/course-backoffice/internal/config"
	"github.com/iliyamo/course-backoffice/internal/database"
	"github.com/iliyamo/course-backoffice/internal/handler"
	"github.com/iliyamo/course-backoffice/internal/metrics"
	"github.com/iliyamo/course-backoffice/internal/middleware"
	"github.com/iliyamo/course-backoffice/internal/queue"
	"github.com/iliyamo/course-backoffice/internal/repository"
	"github.com/iliyamo/course-backoffice/internal/router"
	"github.com/iliyamo/course-backoffice/internal/service"
)

func main() {
	cfg, err := config.Load()
	config.SetupLogger(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	users := repository.NewUserRepo(db)
	admins := repository.NewAdminRepo(db)
	resources := repository.NewResourceRepo(db)

	hasher := auth.PasswordHasher{Cost: cfg.BcryptCost}
	codec := auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	refresh := auth.NewRefreshStore(repository.NewTokenRepo(db), cfg.RefreshTokenTTL)

	var events auth.EventPublisher = auth.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		pub := service.NewQueuePublisher(cfg.RabbitMQURL)
		defer pub.Close()
		events = pub
		if cfg.AuditConsumerEnabled {
			go func() {
				if err := queue.StartAuditConsumer(ctx, cfg.RabbitMQURL, cfg.AuditLogPath); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("audit consumer stopped")
				}
			}()
		}
	} else {
		log.Info().Msg("RABBITMQ_URL not set; auth events are not published")
	}

	sessions := auth.NewSessionIssuer(auth.SessionDeps{
		Users:         users,
		Admins:        admins,
		Codec:         codec,
		Refresh:       refresh,
		Hasher:        hasher,
		Events:        events,
		RotateRefresh: cfg.RotateRefresh,
	})
	accounts := auth.NewAccounts(users, admins, refresh, hasher, events)
	authenticator := auth.NewAuthenticator(codec, sessions.Verifier(), auth.DefaultBypassPolicy(cfg.BasePath))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}))
	e.Use(middleware.Authenticate(authenticator))

	authHandler := handler.NewAuthHandler(sessions, handler.CookieConfig{
		Path:   cfg.BasePath + "/auth",
		MaxAge: int(cfg.RefreshTokenTTL / time.Second),
		Secure: cfg.CookieSecure,
	})
	purge := func(ctx context.Context, kind string) error {
		return middleware.PurgeCache(ctx, cacheCfg, rdb, kind)
	}

	router.RegisterRoutes(e, db, reg)
	router.RegisterAuth(e, cfg.BasePath, authHandler, config.LoadRateLimitConfig(), rdb)
	router.RegisterAccounts(e, cfg.BasePath, handler.NewAccountHandler(accounts))
	router.RegisterResources(e, cfg.BasePath, handler.NewResourceHandler(resources, purge, cfg.DefaultAvatars), cacheCfg, rdb)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("base", cfg.BasePath).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
