// Package listing normalizes raw scraped listing text into Ticket
// values. Each resale app renders seat and price text differently, so
// the package keeps one Normalizer per app, registered against the
// closed app enum at init.
package listing

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rjmcnamara10/ticket-tracker/internal/model"
)

// ErrUnparsable marks a listing whose seat or price text did not match
// the app's known format. It is tallied, never propagated past
// NormalizeAll.
var ErrUnparsable = errors.New("unparsable listing")

// RawListing is the text a scraper pulled out of one listing element,
// before any validation.
type RawListing struct {
	SeatText  string
	PriceText string
	Link      string
}

// Result is the outcome of normalizing one scrape batch.
type Result struct {
	Tickets []model.Ticket
	Failed  int
}

// Normalizer converts one app's raw listings into Tickets.
type Normalizer struct {
	app          model.TicketAppName
	seatPattern  *regexp.Regexp
	priceTrimmer *regexp.Regexp
}

var normalizers = map[model.TicketAppName]Normalizer{
	// Tickpick renders "Section 305 • Row 12".
	model.AppTickpick: {
		app:          model.AppTickpick,
		seatPattern:  regexp.MustCompile(`Section (\d+) • Row (\d+)`),
		priceTrimmer: regexp.MustCompile(`^\$`),
	},
	// Gametime renders "305, Row 12" and suffixes per-ticket prices
	// with "/ea".
	model.AppGametime: {
		app:          model.AppGametime,
		seatPattern:  regexp.MustCompile(`(\d+), Row (\d+)`),
		priceTrimmer: regexp.MustCompile(`^\$|/ea$`),
	},
}

// ForApp returns the registered Normalizer for an app. It panics on an
// unregistered app: the enum is closed and a miss is a wiring bug.
func ForApp(app model.TicketAppName) Normalizer {
	n, ok := normalizers[app]
	if !ok {
		panic(fmt.Sprintf("no normalizer registered for app %q", app))
	}
	return n
}

// Normalize converts one raw listing scraped under the given block
// size. A ticket is only constructed when section, row, and a
// non-negative whole-dollar price all parse; anything else is
// ErrUnparsable.
func (n Normalizer) Normalize(raw RawListing, quantity int) (model.Ticket, error) {
	match := n.seatPattern.FindStringSubmatch(raw.SeatText)
	if match == nil {
		return model.Ticket{}, fmt.Errorf("%w: seat text %q", ErrUnparsable, raw.SeatText)
	}

	section, err := strconv.Atoi(match[1])
	if err != nil {
		return model.Ticket{}, fmt.Errorf("%w: section %q", ErrUnparsable, match[1])
	}
	row, err := strconv.Atoi(match[2])
	if err != nil {
		return model.Ticket{}, fmt.Errorf("%w: row %q", ErrUnparsable, match[2])
	}

	priceText := n.priceTrimmer.ReplaceAllString(strings.TrimSpace(raw.PriceText), "")
	price, err := strconv.Atoi(priceText)
	if err != nil || price < 0 {
		return model.Ticket{}, fmt.Errorf("%w: price text %q", ErrUnparsable, raw.PriceText)
	}

	return model.Ticket{
		Section:  section,
		Row:      row,
		Price:    price,
		Quantity: quantity,
		App:      n.app,
		Link:     raw.Link,
	}, nil
}

// NormalizeAll folds a batch of raw listings into tickets plus a
// failure count. One bad record never aborts the batch.
func (n Normalizer) NormalizeAll(raws []RawListing, quantity int) Result {
	result := Result{Tickets: make([]model.Ticket, 0, len(raws))}
	for _, raw := range raws {
		ticket, err := n.Normalize(raw, quantity)
		if err != nil {
			result.Failed++
			continue
		}
		result.Tickets = append(result.Tickets, ticket)
	}
	return result
}
