package tickets

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rjmcnamara10/ticket-tracker/internal/apps"
	"github.com/rjmcnamara10/ticket-tracker/internal/model"
)

// Reasons an app contributed nothing to a refresh.
const (
	ReasonMissingURL  = "missing URL"
	ReasonZeroTickets = "zero tickets"
)

// IncompleteApp records an app that contributed nothing to a refresh
// and why. It is result metadata, not an error.
type IncompleteApp struct {
	App    model.TicketAppName `json:"app"`
	Reason string              `json:"reason"`
}

// FailedCount is one app's tally of listings that did not normalize.
type FailedCount struct {
	App   model.TicketAppName `json:"app"`
	Count int                 `json:"failedTicketsCount"`
}

// aggregate is the merged outcome of one scrape fan-out.
type aggregate struct {
	tickets    []model.Ticket
	incomplete []IncompleteApp
	failed     []FailedCount
}

// scrapeOutcome carries one app's result across the goroutine join.
type scrapeOutcome struct {
	app     model.TicketAppName
	result  apps.ScrapeResult
	err     error
	skipped bool
}

// scrapeAll runs every registered app concurrently against its event
// URL for the game and merges the outcomes. Apps without a URL are
// reported incomplete without being scraped; a scrape error or empty
// result is reported as a zero-ticket app. One app failing never stops
// the others: the join waits for all outcomes.
func scrapeAll(ctx context.Context, logger *logrus.Logger, registry *apps.Registry, game model.Game, quantity int, timeout time.Duration) aggregate {
	appList := registry.All()
	outcomes := make([]scrapeOutcome, len(appList))

	var wg sync.WaitGroup
	for i, app := range appList {
		url, ok := game.AppURL(app.Name())
		if !ok {
			outcomes[i] = scrapeOutcome{app: app.Name(), skipped: true}
			continue
		}

		wg.Add(1)
		go func(i int, app apps.App, url string) {
			defer wg.Done()
			defer func() {
				// A panicking scraper counts the same as a zero-ticket
				// scrape; it must not take the refresh down.
				if r := recover(); r != nil {
					logger.WithField("app", app.Name()).Errorf("scrape panic: %v", r)
					outcomes[i] = scrapeOutcome{app: app.Name(), result: apps.ScrapeResult{}}
				}
			}()

			scrapeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			result, err := app.ScrapeTickets(scrapeCtx, url, quantity)
			outcomes[i] = scrapeOutcome{app: app.Name(), result: result, err: err}
		}(i, app, url)
	}
	wg.Wait()

	// Merge in app order; the ranker imposes any meaningful order later.
	var agg aggregate
	for _, outcome := range outcomes {
		if outcome.skipped {
			agg.incomplete = append(agg.incomplete, IncompleteApp{App: outcome.app, Reason: ReasonMissingURL})
			continue
		}

		if outcome.err != nil {
			logger.WithField("app", outcome.app).WithError(outcome.err).Warn("scrape failed")
		}
		agg.failed = append(agg.failed, FailedCount{App: outcome.app, Count: outcome.result.FailedCount})

		if outcome.err != nil || len(outcome.result.Tickets) == 0 {
			agg.incomplete = append(agg.incomplete, IncompleteApp{App: outcome.app, Reason: ReasonZeroTickets})
			continue
		}
		agg.tickets = append(agg.tickets, outcome.result.Tickets...)
	}
	return agg
}
