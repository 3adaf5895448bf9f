package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/re-earth/re-earth-api/internal/bicycle"
	"github.com/re-earth/re-earth-api/internal/config"
	"github.com/re-earth/re-earth-api/internal/db"
	"github.com/re-earth/re-earth-api/internal/kvstore"
	"github.com/re-earth/re-earth-api/internal/logging"
	"github.com/re-earth/re-earth-api/internal/server"
	"github.com/re-earth/re-earth-api/internal/storage"
	"github.com/sirupsen/logrus"
)

// @title           RE-Earth API
// @version         1.0
// @description     Eco-action points, clothing donations and the point shop.
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

var (
	gitSHA    = "dev"
	buildTime = ""
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config load error")
	}
	logging.Setup(cfg.LogLvl, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := kvstore.New(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("kv store init error")
	}
	defer store.Close()

	var uploader storage.Uploader
	if cfg.StorageBucket != "" {
		gcs, err := storage.NewGCS(ctx, cfg.StorageBucket)
		if err != nil {
			logrus.WithError(err).Fatal("gcs init error")
		}
		defer gcs.Close()
		uploader = gcs
	} else {
		local, err := storage.NewLocal(cfg.UploadDir)
		if err != nil {
			logrus.WithError(err).Fatal("upload dir init error")
		}
		uploader = local
	}

	srv := server.New(cfg, server.Deps{
		Store:    store,
		Uploader: uploader,
		Stations: bicycle.NewClient(cfg.BicycleAPIURL),
		Sha:      gitSHA,
		Build:    buildTime,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("starting server")
		errCh <- srv.Start(addr)
	}()

	// The listener comes up before the database so health checks pass during a slow connect.
	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			logrus.WithError(err).Error("db connect error")
			return
		}
		if err := db.Migrate(conn); err != nil {
			logrus.WithError(err).Error("auto migrate error")
			return
		}
		srv.SetDB(conn)
		logrus.Info("database ready")
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server stopped")
		}
	case <-ctx.Done():
		logrus.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("graceful shutdown failed")
		}
	}
}
