package apps

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/rjmcnamara10/ticket-tracker/internal/cache"
	"github.com/rjmcnamara10/ticket-tracker/internal/listing"
	"github.com/rjmcnamara10/ticket-tracker/internal/model"
	"github.com/rjmcnamara10/ticket-tracker/internal/ratelimit"
)

const tickpickHomeURL = "https://www.tickpick.com"

// Tickpick scrapes tickpick.com listing pages. Tickpick renders the
// whole listing container server side, so a plain GET with the desired
// quantity in the query string is enough.
type Tickpick struct {
	crawler    *crawler
	normalizer listing.Normalizer
}

// NewTickpick builds the Tickpick integration.
func NewTickpick(config Config, limiter *ratelimit.Limiter, c *cache.Cache, logger *logrus.Logger) *Tickpick {
	return &Tickpick{
		crawler:    newCrawler(config, limiter, c, logger),
		normalizer: listing.ForApp(model.AppTickpick),
	}
}

func (t *Tickpick) Name() model.TicketAppName {
	return model.AppTickpick
}

// ScrapeEventURLs returns Celtics event pages on Tickpick.
// TODO(rjm): scrape the team schedule page instead of the curated list
// once its client-side rendering is worked around.
func (t *Tickpick) ScrapeEventURLs(ctx context.Context) ([]string, error) {
	return t.crawler.cachedEventURLs(model.AppTickpick, func() ([]string, error) {
		return []string{
			tickpickHomeURL + "/buy-boston-celtics-vs-detroit-pistons-tickets-td-garden-12-12-24-7pm/6637544/",
			tickpickHomeURL + "/buy-washington-wizards-vs-boston-celtics-tickets-capital-one-arena-12-15-24-6pm/6637555/",
			tickpickHomeURL + "/buy-boston-celtics-vs-chicago-bulls-tickets-td-garden-12-19-24-7pm/6633509/",
			tickpickHomeURL + "/buy-boston-celtics-vs-philadelphia-76ers-tickets-td-garden-12-25-24-5pm/6620096/",
			tickpickHomeURL + "/buy-boston-celtics-vs-indiana-pacers-tickets-td-garden-12-27-24-7pm/6633517/",
			tickpickHomeURL + "/buy-boston-celtics-vs-indiana-pacers-tickets-td-garden-12-29-24-6pm/6633518/",
			tickpickHomeURL + "/buy-boston-celtics-vs-toronto-raptors-tickets-td-garden-12-31-24-3pm/6633521/",
			tickpickHomeURL + "/buy-boston-celtics-vs-sacramento-kings-tickets-td-garden-1-10-25-7pm/6633524/",
			tickpickHomeURL + "/buy-boston-celtics-vs-new-orleans-pelicans-tickets-td-garden-1-12-25-6pm/6633525/",
			tickpickHomeURL + "/buy-boston-celtics-vs-orlando-magic-tickets-td-garden-1-17-25-7pm/6633527/",
			tickpickHomeURL + "/buy-boston-celtics-vs-atlanta-hawks-tickets-td-garden-1-18-25-7pm/6633529/",
		}, nil
	})
}

// ScrapeTickets pulls every listing on one Tickpick event page.
func (t *Tickpick) ScrapeTickets(ctx context.Context, pageURL string, quantity int) (ScrapeResult, error) {
	// sortType=P keeps the listing order deterministic; qty filters the
	// page to the requested block size.
	doc, err := t.crawler.fetchDocument(ctx, fmt.Sprintf("%s?sortType=P&qty=%d-false", pageURL, quantity))
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("tickpick scrape: %w", err)
	}

	raws := make([]listing.RawListing, 0)
	doc.Find(".listing").Each(func(i int, s *goquery.Selection) {
		raws = append(raws, listing.RawListing{
			SeatText:  s.Find(".sout span").First().Text(),
			PriceText: s.Find("label > b").First().Text(),
			// Tickpick has no per-listing link; the event page is the
			// closest thing.
			Link: pageURL,
		})
	})

	result := t.normalizer.NormalizeAll(raws, quantity)
	return ScrapeResult{Tickets: result.Tickets, FailedCount: result.Failed}, nil
}
