// Package ranking produces the display orderings consumers read a
// quantity group through. Only balcony tickets are ranked; floor and
// lower-bowl listings are a different market and are excluded outright.
package ranking

import (
	"sort"

	"github.com/rjmcnamara10/ticket-tracker/internal/model"
	"github.com/rjmcnamara10/ticket-tracker/internal/scoring"
)

// valueShortlistFloor is the minimum location score a ticket needs to
// make the value shortlist.
const valueShortlistFloor = 10

// Balcony returns the tickets located in the balcony ring, preserving
// input order.
func Balcony(tickets []model.Ticket) []model.Ticket {
	out := make([]model.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if scoring.IsBalcony(t.Section) {
			out = append(out, t)
		}
	}
	return out
}

// Cheapest returns balcony tickets ordered by ascending price.
func Cheapest(tickets []model.Ticket) []model.Ticket {
	ranked := Balcony(tickets)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Price < ranked[j].Price
	})
	return ranked
}

// BestValue returns balcony tickets ordered by ascending location
// score. The ascending direction is long-standing observed behavior;
// see DESIGN.md before changing it.
func BestValue(tickets []model.Ticket) []model.Ticket {
	ranked := Balcony(tickets)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, _ := scoring.Score(ranked[i].Section, ranked[i].Row)
		sj, _ := scoring.Score(ranked[j].Section, ranked[j].Row)
		return si < sj
	})
	return ranked
}

// ValueShortlist returns the cheapest-first balcony tickets whose
// location score clears the shortlist floor.
func ValueShortlist(tickets []model.Ticket) []model.Ticket {
	shortlist := make([]model.Ticket, 0)
	for _, t := range Cheapest(tickets) {
		if score, ok := scoring.Score(t.Section, t.Row); ok && score >= valueShortlistFloor {
			shortlist = append(shortlist, t)
		}
	}
	return shortlist
}
