package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/padraicbc/racetiming/app"
	"github.com/padraicbc/racetiming/config"
	"github.com/padraicbc/racetiming/db"
	"github.com/padraicbc/racetiming/handlers"
	applog "github.com/padraicbc/racetiming/logger"
	"github.com/padraicbc/racetiming/repository"
	"github.com/padraicbc/racetiming/timing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := applog.New(cfg.Debug, "racetiming")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx := context.Background()
	bdb, err := db.Setup(ctx, cfg)
	if err != nil {
		logger.Fatal("database setup failed", zap.Error(err))
	}
	defer bdb.Close()

	if err := db.CreateTables(ctx, bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	configs, closeConfigs, err := openConfigurations(cfg, bdb)
	if err != nil {
		logger.Fatal("open competition configurations failed",
			zap.String("source", cfg.ConfigSource), zap.Error(err))
	}
	defer closeConfigs()
	logger.Info("competition configurations ready", zap.String("source", cfg.ConfigSource))

	svc := app.New(configs, app.WithLogger(logger.Named("app")))
	defer svc.Close()

	h := handlers.New(svc, bdb, cfg.JWTKey(), logger.Named("http"), cfg.SubscriberBuffer)
	h.Admins = cfg.AdminUsers

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"*", "Authorization"},
		AllowCredentials: true,
	}))

	h.Register(e)

	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	// No WriteTimeout: state change streams stay open for the whole event.
	s := &http.Server{
		Addr:              ":443",
		Handler:           e,
		TLSConfig:         autoTLS.TLSConfig(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       15 * time.Second,
	}

	logger.Info("starting server", zap.String("mode", "tls"), zap.Strings("domains", cfg.TLSDomains))
	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}

// openConfigurations picks the competition configuration store named by
// CONFIG_SOURCE. The returned func releases it.
func openConfigurations(cfg *config.Config, bdb *bun.DB) (repository.ConfigurationRepository, func(), error) {
	noop := func() {}
	switch cfg.ConfigSource {
	case config.SourcePostgres:
		return repository.NewSQL(bdb), noop, nil
	case config.SourceYAML:
		y, err := repository.NewYAMLFile(cfg.ConfigFile)
		if err != nil {
			return nil, noop, err
		}
		return y, noop, nil
	case config.SourceBadger:
		b, err := repository.OpenBadger(cfg.BadgerDir)
		if err != nil {
			return nil, noop, err
		}
		return b, func() {
			if err := b.Close(); err != nil {
				zap.L().Error("close badger", zap.Error(err))
			}
		}, nil
	case config.SourceMemory:
		return repository.Fixed{Configuration: timing.CompetitionConfiguration{
			Tracks: map[timing.TrackID]timing.TrackConfiguration{
				"0": {OverlapLimit: cfg.DefaultOverlapLimit},
			},
		}}, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown configuration source %q", cfg.ConfigSource)
}
