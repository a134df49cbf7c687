package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"hatewatch-dashboard/internal/api"
	"hatewatch-dashboard/internal/config"
	"hatewatch-dashboard/internal/metrics"
	"hatewatch-dashboard/internal/refresh"
	"hatewatch-dashboard/internal/server"
	"hatewatch-dashboard/internal/store"
	"hatewatch-dashboard/internal/view"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	var (
		cfgPath = flag.String("config", "config.yml", "path to YAML config")
		envFile = flag.String("env-file", ".env", "optional dotenv file")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warnf("load %s", *envFile)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if err := setupLogging(cfg.Log); err != nil {
		log.WithError(err).Fatal("configure logging")
	}
	log.WithFields(log.Fields{
		"version":  Version,
		"api":      cfg.API.BaseURL,
		"interval": cfg.Refresh.Interval.String(),
	}).Info("hatewatch-dashboard starting")

	m := metrics.New(prometheus.DefaultRegisterer)

	client := api.NewClient(cfg.API)
	client.Metrics = m

	hub := server.NewHub(m)
	coord := refresh.New(client, refresh.Options{
		Interval:     cfg.Refresh.Interval,
		TimelineDays: cfg.Refresh.TimelineDays,
		Seen:         store.NewSeen(cfg.Refresh.SeenMaxKeys, cfg.Refresh.SeenTTL),
		Metrics:      m,
		Notifier:     hub,
	})

	renderer, err := view.NewRenderer(view.PageOptions{
		Location:  time.Local,
		ExportURL: client.ExportURL,
	})
	if err != nil {
		log.WithError(err).Fatal("build renderer")
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv, err := server.New(coord, server.Options{
		HTTP:        cfg.Server,
		UpstreamURL: cfg.API.BaseURL,
		Renderer:    renderer,
		Hub:         hub,
	})
	if err != nil {
		log.WithError(err).Fatal("build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		coord.Run(ctx)
	}()

	go func() {
		log.Infof("serving dashboard on %s", cfg.Server.ListenAddress)
		if err := srv.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	<-done
	log.Info("bye")
}

func setupLogging(c config.Log) error {
	switch c.Format {
	case "json":
		log.SetHandler(jsonhandler.New(os.Stderr))
	default:
		log.SetHandler(text.New(os.Stderr))
	}
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}
