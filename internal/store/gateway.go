// Package store defines the narrow persistence contract the ticket
// tracker relies on, together with a file-backed implementation used
// by the service and its tests.
package store

import (
	"context"
	"errors"

	"github.com/rjmcnamara10/ticket-tracker/internal/model"
)

var (
	// ErrGameNotFound is returned when a game lookup misses.
	ErrGameNotFound = errors.New("game not found")

	// ErrDuplicateGame is returned by CreateGame when a game with the
	// same start time already exists. Schedule ingestion swallows it;
	// it is not a fault.
	ErrDuplicateGame = errors.New("game already exists for start time")
)

// Gateway is the document-store contract consumed by the core. The
// backing engine is interchangeable; only these operations matter.
type Gateway interface {
	// FindGameByID returns the game with its quantity groups populated,
	// or ErrGameNotFound.
	FindGameByID(ctx context.Context, gameID string) (model.Game, error)

	// ListGames returns every stored game in chronological start order.
	ListGames(ctx context.Context) ([]model.Game, error)

	// CreateGame persists a new game and assigns its ID. A start-time
	// collision yields ErrDuplicateGame and no write.
	CreateGame(ctx context.Context, game model.Game) (model.Game, error)

	// InsertTickets persists tickets and returns them with assigned IDs.
	InsertTickets(ctx context.Context, tickets []model.Ticket) ([]model.Ticket, error)

	// DeleteTicketsByIDs hard-deletes tickets. Unknown IDs are ignored.
	DeleteTicketsByIDs(ctx context.Context, ids []string) error

	// SaveGame persists in-memory mutations to a previously fetched game.
	SaveGame(ctx context.Context, game model.Game) (model.Game, error)

	// UpsertTicketAppURL sets the event page URL for one app on a game,
	// replacing any existing entry for that app.
	UpsertTicketAppURL(ctx context.Context, gameID string, app model.TicketAppName, url string) (model.Game, error)
}
