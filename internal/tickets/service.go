package tickets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rjmcnamara10/ticket-tracker/internal/apps"
	"github.com/rjmcnamara10/ticket-tracker/internal/model"
	"github.com/rjmcnamara10/ticket-tracker/internal/ranking"
	"github.com/rjmcnamara10/ticket-tracker/internal/store"
)

var (
	// ErrNoAppURLs means the game has no ticket app URLs to scrape.
	ErrNoAppURLs = errors.New("game has no ticket app URLs")

	// ErrNoTickets means every source came back empty; nothing was
	// persisted and any previously stored group is left as it was.
	ErrNoTickets = errors.New("no tickets found")

	// ErrGroupNotFound means the game has never been refreshed for the
	// requested quantity.
	ErrGroupNotFound = errors.New("no tickets stored for quantity")
)

// Order selects how a quantity group's tickets are ranked on read.
type Order string

const (
	OrderCheapest  Order = "cheapest"
	OrderBestValue Order = "bestValue"
	OrderValue     Order = "value"
)

// ParseOrder validates a ticket ordering name.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case OrderCheapest, OrderBestValue, OrderValue:
		return Order(s), nil
	}
	return "", fmt.Errorf("unknown ticket order %q", s)
}

// RefreshResult reports one completed refresh of a quantity group.
type RefreshResult struct {
	ScrapeDateTime time.Time       `json:"scrapeDateTime"`
	SuccessCount   int             `json:"successTicketsCount"`
	FailedCounts   []FailedCount   `json:"failedCounts"`
	IncompleteApps []IncompleteApp `json:"incompleteApps"`
	Game           model.Game      `json:"game"`
}

// Service owns the ticket lifecycle: refreshing a game's quantity
// groups from the registered apps and serving ranked reads.
type Service struct {
	logger        *logrus.Logger
	registry      *apps.Registry
	gateway       store.Gateway
	scrapeTimeout time.Duration

	mu        sync.Mutex
	gameLocks map[string]*sync.Mutex
}

func NewService(logger *logrus.Logger, registry *apps.Registry, gateway store.Gateway, scrapeTimeout time.Duration) *Service {
	return &Service{
		logger:        logger,
		registry:      registry,
		gateway:       gateway,
		scrapeTimeout: scrapeTimeout,
		gameLocks:     make(map[string]*sync.Mutex),
	}
}

// gameLock returns the mutex serializing refreshes of one game, so
// concurrent refreshes of the same quantity group cannot interleave
// their delete-then-replace windows.
func (s *Service) gameLock(gameID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.gameLocks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		s.gameLocks[gameID] = lock
	}
	return lock
}

// Refresh scrapes every registered app for the game at the given
// quantity and replaces the game's quantity group with the fresh
// tickets. If every source comes back empty the stored group is left
// untouched and ErrNoTickets is returned.
func (s *Service) Refresh(ctx context.Context, gameID string, quantity int) (RefreshResult, error) {
	lock := s.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := s.gateway.FindGameByID(ctx, gameID)
	if err != nil {
		return RefreshResult{}, err
	}
	if len(game.TicketAppURLs) == 0 {
		return RefreshResult{}, ErrNoAppURLs
	}

	scrapeDateTime := time.Now().UTC()
	agg := scrapeAll(ctx, s.logger, s.registry, game, quantity, s.scrapeTimeout)
	if len(agg.tickets) == 0 {
		return RefreshResult{}, ErrNoTickets
	}

	inserted, err := s.gateway.InsertTickets(ctx, agg.tickets)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("insert tickets: %w", err)
	}

	if err := s.reconcileGroup(ctx, &game, quantity, inserted, scrapeDateTime); err != nil {
		return RefreshResult{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"gameId":   gameID,
		"quantity": quantity,
		"tickets":  len(inserted),
	}).Info("refreshed quantity group")

	return RefreshResult{
		ScrapeDateTime: scrapeDateTime,
		SuccessCount:   len(inserted),
		FailedCounts:   agg.failed,
		IncompleteApps: agg.incomplete,
		Game:           game,
	}, nil
}

// reconcileGroup swaps the fresh tickets into the game's quantity
// group: new quantities get a new group, existing groups have their
// old tickets deleted before the list is replaced. Groups for other
// quantities are never touched. The groups slice is rebuilt rather
// than mutated in place so a game fetched earlier never sees this
// refresh through a shared backing array.
func (s *Service) reconcileGroup(ctx context.Context, game *model.Game, quantity int, fresh []model.Ticket, scrapedAt time.Time) error {
	groups := make([]model.TicketQuantityGroup, 0, len(game.TicketQuantityGroups)+1)
	replaced := false
	for _, group := range game.TicketQuantityGroups {
		if group.TicketQuantity == quantity {
			oldIDs := make([]string, len(group.Tickets))
			for i, t := range group.Tickets {
				oldIDs[i] = t.ID
			}
			if err := s.gateway.DeleteTicketsByIDs(ctx, oldIDs); err != nil {
				return fmt.Errorf("delete stale tickets: %w", err)
			}
			group.Tickets = fresh
			group.LastUpdated = scrapedAt
			replaced = true
		}
		groups = append(groups, group)
	}
	if !replaced {
		groups = append(groups, model.TicketQuantityGroup{
			TicketQuantity: quantity,
			LastUpdated:    scrapedAt,
			Tickets:        fresh,
		})
	}
	game.TicketQuantityGroups = groups

	saved, err := s.gateway.SaveGame(ctx, *game)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	*game = saved
	return nil
}

// TicketsByOrder returns the game's stored tickets for a quantity,
// ranked by the requested order.
func (s *Service) TicketsByOrder(ctx context.Context, gameID string, quantity int, order Order) ([]model.Ticket, error) {
	game, err := s.gateway.FindGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	group := game.QuantityGroup(quantity)
	if group == nil {
		return nil, ErrGroupNotFound
	}

	switch order {
	case OrderCheapest:
		return ranking.Cheapest(group.Tickets), nil
	case OrderBestValue:
		return ranking.BestValue(group.Tickets), nil
	case OrderValue:
		return ranking.ValueShortlist(group.Tickets), nil
	}
	return nil, fmt.Errorf("unknown ticket order %q", order)
}

// AddTicketAppURL sets the game's event page URL for one app,
// replacing any URL previously stored for that app.
func (s *Service) AddTicketAppURL(ctx context.Context, gameID string, app model.TicketAppName, url string) (model.Game, error) {
	return s.gateway.UpsertTicketAppURL(ctx, gameID, app, url)
}

// GamesChronological lists every stored game ordered by start time.
func (s *Service) GamesChronological(ctx context.Context) ([]model.Game, error) {
	return s.gateway.ListGames(ctx)
}
