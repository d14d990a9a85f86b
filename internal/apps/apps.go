// Package apps implements the resale marketplace integrations. Each
// app knows how to discover event pages and scrape the listings on
// one, handing raw seat/price text to the listing normalizer. Apps are
// resolved through a registry built once at startup; nothing branches
// on app-name strings at call sites.
package apps

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/sirupsen/logrus"

	"github.com/rjmcnamara10/ticket-tracker/internal/cache"
	"github.com/rjmcnamara10/ticket-tracker/internal/model"
	"github.com/rjmcnamara10/ticket-tracker/internal/ratelimit"
)

// ScrapeResult is one app's contribution to a refresh: the listings
// that normalized cleanly plus a count of the ones that did not.
type ScrapeResult struct {
	Tickets     []model.Ticket
	FailedCount int
}

// App is the scraping contract consumed by the ticket service.
type App interface {
	// Name returns the app's enum identity.
	Name() model.TicketAppName

	// ScrapeEventURLs returns candidate event page URLs for the tracked
	// team on this app.
	ScrapeEventURLs(ctx context.Context) ([]string, error)

	// ScrapeTickets scrapes the listings on one event page for the
	// given ticket block size.
	ScrapeTickets(ctx context.Context, url string, quantity int) (ScrapeResult, error)
}

// Config holds scraper tuning shared by all apps.
type Config struct {
	RequestTimeout   time.Duration
	MaxRetries       int
	EventURLCacheTTL time.Duration
	UserAgents       []string
	UseRandomUA      bool
}

// DefaultConfig returns conservative scraper settings.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:   45 * time.Second,
		MaxRetries:       3,
		EventURLCacheTTL: 6 * time.Hour,
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		},
		UseRandomUA: true,
	}
}

// crawler is the shared HTTP plumbing behind every app: rate limiting,
// browser-shaped headers, compressed response handling, retry with
// backoff.
type crawler struct {
	client  *http.Client
	limiter *ratelimit.Limiter
	cache   *cache.Cache
	logger  *logrus.Logger
	config  Config
}

func newCrawler(config Config, limiter *ratelimit.Limiter, c *cache.Cache, logger *logrus.Logger) *crawler {
	return &crawler{
		client:  &http.Client{Timeout: config.RequestTimeout},
		limiter: limiter,
		cache:   c,
		logger:  logger,
		config:  config,
	}
}

// fetchDocument GETs a page and parses it, retrying transient failures
// with quadratic backoff.
func (c *crawler) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt*attempt) * time.Second
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		doc, err := c.fetchOnce(ctx, pageURL)
		if err == nil {
			return doc, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, fmt.Errorf("fetch failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *crawler) fetchOnce(ctx context.Context, pageURL string) (*goquery.Document, error) {
	c.limiter.Wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setBrowserHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

func (c *crawler) setBrowserHeaders(req *http.Request) {
	userAgent := c.config.UserAgents[0]
	if c.config.UseRandomUA && len(c.config.UserAgents) > 1 {
		userAgent = c.config.UserAgents[rand.Intn(len(c.config.UserAgents))]
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

func decodeBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// cachedEventURLs serves an app's event URL list through the scrape
// cache so schedule pages are not re-fetched on every refresh.
func (c *crawler) cachedEventURLs(app model.TicketAppName, load func() ([]string, error)) ([]string, error) {
	key := cache.EventURLsKey(string(app))

	if c.cache != nil {
		var urls []string
		if found, _ := c.cache.Get(key, &urls); found {
			return urls, nil
		}
	}

	urls, err := load()
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(key, urls, c.config.EventURLCacheTTL); err != nil {
			c.logger.WithError(err).Warn("caching event urls failed")
		}
	}
	return urls, nil
}

// Registry maps the closed app enum to live App instances. It is
// assembled once in main; lookups at request time cannot miss unless
// wiring is wrong.
type Registry struct {
	order []App
	byApp map[model.TicketAppName]App
}

// NewRegistry builds a registry preserving registration order, which
// is also scrape fan-out order.
func NewRegistry(apps ...App) *Registry {
	r := &Registry{byApp: make(map[model.TicketAppName]App, len(apps))}
	for _, app := range apps {
		if _, dup := r.byApp[app.Name()]; dup {
			panic(fmt.Sprintf("duplicate app registration %q", app.Name()))
		}
		r.order = append(r.order, app)
		r.byApp[app.Name()] = app
	}
	return r
}

// All returns the registered apps in registration order.
func (r *Registry) All() []App {
	return r.order
}

// Get resolves an app by name.
func (r *Registry) Get(name model.TicketAppName) (App, bool) {
	app, ok := r.byApp[name]
	return app, ok
}
