package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/rjmcnamara10/ticket-tracker/internal/applogger"
	"github.com/rjmcnamara10/ticket-tracker/internal/apps"
	"github.com/rjmcnamara10/ticket-tracker/internal/cache"
	"github.com/rjmcnamara10/ticket-tracker/internal/config"
	"github.com/rjmcnamara10/ticket-tracker/internal/httpapi"
	"github.com/rjmcnamara10/ticket-tracker/internal/ratelimit"
	"github.com/rjmcnamara10/ticket-tracker/internal/refresh"
	"github.com/rjmcnamara10/ticket-tracker/internal/schedule"
	"github.com/rjmcnamara10/ticket-tracker/internal/store"
	"github.com/rjmcnamara10/ticket-tracker/internal/tickets"
)

// sweepTimeout bounds one scheduled sweep; a wedged marketplace must
// not stack sweeps on top of each other.
const sweepTimeout = 30 * time.Minute

func main() {
	logger := applogger.GetLogrus()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("load config")
	}

	gameStore, err := store.NewFileStore(cfg.StorePath)
	if err != nil {
		logger.WithError(err).Fatal("open game store")
	}

	scrapeCache, err := cache.New(cfg.CachePath)
	if err != nil {
		logger.WithError(err).Fatal("open scrape cache")
	}

	appConfig := apps.DefaultConfig()
	appConfig.RequestTimeout = cfg.ScrapeTimeout
	appConfig.EventURLCacheTTL = cfg.EventURLCacheTTL

	limiters := ratelimit.NewAppRateLimiters()
	registry := apps.NewRegistry(
		apps.NewTickpick(appConfig, limiters.Tickpick, scrapeCache, logger),
		apps.NewGametime(appConfig, limiters.Gametime, scrapeCache, logger),
	)

	service := tickets.NewService(logger, registry, gameStore, cfg.ScrapeTimeout)

	team, err := schedule.ForTeam(cfg.Team, cfg.ScheduleFeedURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("resolve team")
	}

	sweeper := refresh.NewSweeper(logger, service, cfg.RefreshQuantities, cfg.SweepWorkers, cfg.SweepRatePerSec)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, err := sweeper.Sweep(ctx); err != nil {
			logger.WithError(err).Warn("scheduled sweep aborted")
		}
	}); err != nil {
		logger.WithError(err).Fatal("schedule refresh sweep")
	}
	scheduler.Start()

	api := httpapi.NewServer(logger, service, team, gameStore)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      cors.Default().Handler(api.Router()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("serve")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	cronCtx := scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown")
	}
	<-cronCtx.Done()
}
