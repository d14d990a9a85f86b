// Package config loads runtime settings from the environment. A .env
// file is honored when present so local runs do not need exported
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	// HTTP server
	ListenAddr string

	// Document store
	StorePath string

	// Scraping
	ScrapeTimeout    time.Duration
	EventURLCacheTTL time.Duration
	CachePath        string

	// Scheduled refresh sweep
	RefreshCron       string
	RefreshQuantities []int
	SweepWorkers      int
	SweepRatePerSec   float64

	// Schedule ingestion
	Team            string
	ScheduleFeedURL string
}

// Load reads the environment (and an optional .env file) into a
// Config. Missing keys fall back to defaults suitable for local use.
func Load() (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":8080"),
		StorePath:        getEnv("STORE_PATH", "data/games.json"),
		ScrapeTimeout:    getDuration("SCRAPE_TIMEOUT", 45*time.Second),
		EventURLCacheTTL: getDuration("EVENT_URL_CACHE_TTL", 6*time.Hour),
		CachePath:        getEnv("CACHE_PATH", "data/scrape_cache.json"),
		RefreshCron:      getEnv("REFRESH_CRON", "0 */4 * * *"),
		SweepWorkers:     getInt("SWEEP_WORKERS", 2),
		SweepRatePerSec:  getFloat("SWEEP_RATE_PER_SEC", 0.5),
		Team:             getEnv("TEAM", "celtics"),
		ScheduleFeedURL: getEnv("SCHEDULE_FEED_URL",
			"https://cdn.nba.com/static/json/staticData/scheduleLeagueV2_1.json"),
	}

	quantities, err := parseQuantities(getEnv("REFRESH_QUANTITIES", "2"))
	if err != nil {
		return nil, fmt.Errorf("parse REFRESH_QUANTITIES: %w", err)
	}
	cfg.RefreshQuantities = quantities

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseQuantities(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad quantity %q", part)
		}
		if n < 1 {
			return nil, fmt.Errorf("quantity must be >= 1, got %d", n)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no quantities configured")
	}
	return out, nil
}
