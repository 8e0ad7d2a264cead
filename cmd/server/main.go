package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/stepup/internal/config"
	"github.com/Skotchmaster/stepup/internal/db"
	"github.com/Skotchmaster/stepup/internal/es"
	"github.com/Skotchmaster/stepup/internal/logging"
	"github.com/Skotchmaster/stepup/internal/metrics"
	authmw "github.com/Skotchmaster/stepup/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/stepup/internal/middleware/logging"
	"github.com/Skotchmaster/stepup/internal/mykafka"
	"github.com/Skotchmaster/stepup/internal/repo"
	"github.com/Skotchmaster/stepup/internal/search"
	"github.com/Skotchmaster/stepup/internal/service"
	"github.com/Skotchmaster/stepup/internal/transport"
	httpserver "github.com/Skotchmaster/stepup/internal/transport/http"
)

func main() {
	cfg := config.Load()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_open_failed", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		logger.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}
	r := repo.New(gdb)

	var publisher mykafka.Publisher = mykafka.Noop{}
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Error("kafka_init_failed", "error", err)
			os.Exit(1)
		}
		publisher = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var index service.ProductIndex
	if cfg.ESURL != "" {
		client, err := es.NewClient(ctx, es.Options{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword}, logger)
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unreachable", "error", err)
		} else {
			index = search.NewIndex(client, cfg.ESIndex)
		}
	}

	m := metrics.New(cfg.ServiceName)
	shape := transport.Shaper{SiteURL: cfg.SiteURL}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.Secure(), middleware.BodyLimit("1M"), loggingmw.RequestLogger(logger), m.Middleware())

	httpserver.Register(e, &httpserver.Deps{
		DB:       r,
		Metrics:  m,
		Identity: authmw.NewIdentity(cfg.JWTSecret, r),
		CSRF:     cfg.CSRFEnabled,
		CatalogHandler: &httpserver.CatalogHTTP{
			Svc:   &service.CatalogService{Repo: r, Index: index, Publisher: publisher},
			Shape: shape,
		},
		CartHandler: &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}, Shape: shape},
		OrderHandler: &httpserver.OrderHTTP{
			Svc:      &service.OrderService{Repo: r, Publisher: publisher, Metrics: m, AutoTracking: cfg.OrderAutoTracking},
			Tracking: &service.TrackingService{Repo: r, Publisher: publisher},
		},
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Repo:           r,
			Publisher:      publisher,
			JWTSecret:      cfg.JWTSecret,
			AccessTokenTTL: cfg.AccessTokenTTL,
			VerifyTokenTTL: cfg.VerifyTokenTTL,
			SiteURL:        cfg.SiteURL,
		}},
		CheckoutHandler: &httpserver.CheckoutHTTP{Svc: &service.CheckoutDetailService{Repo: r}},
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http_server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	go func() {
		<-quit
		logger.Warn("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
