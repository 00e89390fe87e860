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

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-gestao/internal/api"
	"github.com/celerix-dev/celerix-gestao/internal/app"
	"github.com/celerix-dev/celerix-gestao/internal/config"
	"github.com/celerix-dev/celerix-gestao/internal/logger"
	"github.com/celerix-dev/celerix-gestao/internal/metrics"
	"github.com/celerix-dev/celerix-gestao/internal/server"
	"github.com/celerix-dev/celerix-gestao/internal/session"
	"github.com/celerix-dev/celerix-gestao/internal/vault"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	log.Info("starting celerix-gestao daemon", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg.Storage, cfg.Storage.Driver, log)
	if err != nil {
		log.Error("failed to initialize persistence", slog.Any("error", err))
		os.Exit(1)
	}

	m := metrics.New()
	a, err := app.New(ctx, cfg, store, log,
		app.WithMetrics(m),
		app.WithNavigator(session.NavigatorFunc(func(path string) {
			log.Debug("operator must sign in", slog.String("redirect", path))
		})),
	)
	if err != nil {
		log.Error("failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	if err := a.EnsureAdmin(ctx, cfg.Admin.Login, cfg.Admin.Password); err != nil {
		if !errors.Is(err, app.ErrNoAdmin) {
			log.Error("failed to create the first administrator", slog.Any("error", err))
			os.Exit(1)
		}
		log.Warn("no administrator registered; set GESTAO_ADMIN_PASSWORD or run `gestao users add`")
	}

	router := server.NewRouter(store, log)
	if cfg.Server.DisableTLS {
		log.Warn("TLS encryption disabled (CELERIX_DISABLE_TLS=true)")
	} else {
		cert, err := vault.GenerateSelfSignedCert()
		if err != nil {
			log.Error("failed to generate TLS certificate", slog.Any("error", err))
			os.Exit(1)
		}
		router.SetCertificate(cert)
	}

	if cfg.Env == logger.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	h := &api.Handler{
		Store:    store,
		Services: a.Services,
		Session:  a.Session,
		Backups:  a.Backups,
		Metrics:  m,
		Log:      log,
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go a.Session.Run(ctx)

	go func() {
		log.Info("HTTP API listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", slog.Any("error", err))
			stop()
		}
	}()

	go func() {
		log.Info("engine listening", slog.String("port", cfg.Server.TCPPort), slog.Bool("tls", !cfg.Server.DisableTLS))
		if err := router.Listen(cfg.Server.TCPPort); err != nil {
			log.Error("TCP server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, finalizing disk writes")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown", slog.Any("error", err))
	}
	if err := router.Stop(); err != nil {
		log.Error("TCP shutdown", slog.Any("error", err))
	}
	if err := closeStore(); err != nil {
		log.Error("close persistence", slog.Any("error", err))
	}
	log.Info("persistence complete, exiting")
}
