package model

import (
	"fmt"
	"time"
)

// TicketAppName identifies a ticket resale marketplace.
type TicketAppName string

const (
	AppTickpick TicketAppName = "tickpick"
	AppGametime TicketAppName = "gametime"
)

// AllTicketApps lists every supported resale app, in scrape order.
var AllTicketApps = []TicketAppName{AppTickpick, AppGametime}

// ParseTicketAppName validates a raw app identifier. An unknown name is
// a caller bug, not bad marketplace data.
func ParseTicketAppName(s string) (TicketAppName, error) {
	switch TicketAppName(s) {
	case AppTickpick:
		return AppTickpick, nil
	case AppGametime:
		return AppGametime, nil
	default:
		return "", fmt.Errorf("invalid ticket app %q", s)
	}
}

// Ticket is one resale listing, already normalized from scrape output.
// ID is empty until the store assigns one.
type Ticket struct {
	ID       string        `json:"id,omitempty"`
	Section  int           `json:"section"`
	Row      int           `json:"row"`
	Price    int           `json:"price"`
	Quantity int           `json:"quantity"`
	App      TicketAppName `json:"app"`
	Link     string        `json:"link"`
}

// TicketAppURL ties a resale app to the event page for one game.
type TicketAppURL struct {
	App     TicketAppName `json:"app"`
	GameURL string        `json:"gameUrl"`
}

// TicketQuantityGroup holds the listings sold in blocks of one size
// (pairs, singles, ...) for a game. A game has at most one group per
// quantity; a group's tickets are replaced wholesale on every refresh.
type TicketQuantityGroup struct {
	TicketQuantity int       `json:"ticketQuantity"`
	LastUpdated    time.Time `json:"lastUpdated"`
	Tickets        []Ticket  `json:"tickets"`
}

// Game is one home game being tracked. StartDateTime is unique across
// all games and keys idempotent schedule ingestion.
type Game struct {
	ID                   string                `json:"id,omitempty"`
	HomeTeam             string                `json:"homeTeam"`
	AwayTeam             string                `json:"awayTeam"`
	StartDateTime        time.Time             `json:"startDateTime"`
	Venue                string                `json:"venue"`
	City                 string                `json:"city"`
	State                string                `json:"state"`
	TicketAppURLs        []TicketAppURL        `json:"ticketAppUrls"`
	TicketQuantityGroups []TicketQuantityGroup `json:"ticketQuantityGroups"`
}

// QuantityGroup returns the group for the given block size, or nil.
func (g *Game) QuantityGroup(quantity int) *TicketQuantityGroup {
	for i := range g.TicketQuantityGroups {
		if g.TicketQuantityGroups[i].TicketQuantity == quantity {
			return &g.TicketQuantityGroups[i]
		}
	}
	return nil
}

// AppURL returns the event page URL for the given app, if one has been
// recorded for this game.
func (g *Game) AppURL(app TicketAppName) (string, bool) {
	for _, u := range g.TicketAppURLs {
		if u.App == app {
			return u.GameURL, true
		}
	}
	return "", false
}
