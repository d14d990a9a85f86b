// Package schedule ingests a team's home schedule from its public
// JSON feed and seeds the game store. Ingestion is idempotent: games
// already present (same start time) are skipped, not duplicated.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rjmcnamara10/ticket-tracker/internal/model"
	"github.com/rjmcnamara10/ticket-tracker/internal/store"
)

// Team produces the remaining home games to track for one franchise.
type Team interface {
	Name() string
	RemainingHomeGames(ctx context.Context) ([]model.Game, error)
}

// ForTeam resolves a team handle to its integration. The set is closed;
// an unknown handle is a caller bug.
func ForTeam(handle string, feedURL string, logger *logrus.Logger) (Team, error) {
	switch handle {
	case "celtics":
		return NewCeltics(feedURL, logger), nil
	default:
		return nil, fmt.Errorf("invalid team %q", handle)
	}
}

// scheduleFeed mirrors the NBA CDN schedule JSON: data.gscd.g is the
// season's game list.
type scheduleFeed struct {
	Data struct {
		Gscd struct {
			Games []feedGame `json:"g"`
		} `json:"gscd"`
	} `json:"data"`
}

type feedGame struct {
	GameDate   string   `json:"gdte"` // "2024-12-12"
	StartTime  string   `json:"etm"`  // "2024-12-12T19:00:00", arena-local
	ArenaName  string   `json:"an"`
	ArenaCity  string   `json:"ac"`
	ArenaState string   `json:"as"`
	Visitor    feedTeam `json:"v"`
}

type feedTeam struct {
	City string `json:"tc"`
	Name string `json:"tn"`
}

// Celtics tracks Boston home games at TD Garden.
type Celtics struct {
	client      *http.Client
	scheduleURL string
	logger      *logrus.Logger

	// now is swappable for tests.
	now func() time.Time
}

const (
	celticsName  = "Boston Celtics"
	celticsVenue = "TD Garden"
	celticsCity  = "Boston"
	celticsState = "MA"
)

// NewCeltics builds the Celtics schedule integration against the given
// feed URL.
func NewCeltics(feedURL string, logger *logrus.Logger) *Celtics {
	return &Celtics{
		client:      &http.Client{Timeout: 30 * time.Second},
		scheduleURL: feedURL,
		logger:      logger,
		now:         time.Now,
	}
}

func (c *Celtics) Name() string {
	return celticsName
}

// RemainingHomeGames fetches the season feed and keeps future games at
// the home arena.
func (c *Celtics) RemainingHomeGames(ctx context.Context) ([]model.Game, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.scheduleURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create schedule request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schedule feed HTTP %d", resp.StatusCode)
	}

	var feed scheduleFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode schedule feed: %w", err)
	}

	now := c.now()
	var games []model.Game
	for _, game := range feed.Data.Gscd.Games {
		// A game still counts as upcoming until its day is over.
		gameDay, err := time.Parse("2006-01-02T15:04:05", game.GameDate+"T23:59:59")
		if err != nil {
			c.logger.WithField("gdte", game.GameDate).Warn("skipping game with bad date")
			continue
		}
		isFuture := gameDay.After(now)
		isHome := game.ArenaName == celticsVenue && game.ArenaCity == celticsCity && game.ArenaState == celticsState
		if !isFuture || !isHome {
			continue
		}

		start, err := time.Parse("2006-01-02T15:04:05", game.StartTime)
		if err != nil {
			c.logger.WithField("etm", game.StartTime).Warn("skipping game with bad start time")
			continue
		}

		games = append(games, model.Game{
			HomeTeam:      celticsName,
			AwayTeam:      game.Visitor.City + " " + game.Visitor.Name,
			StartDateTime: start,
			Venue:         celticsVenue,
			City:          celticsCity,
			State:         celticsState,
		})
	}
	return games, nil
}

// SaveGames persists games, swallowing start-time duplicates, and
// returns only the games actually created.
func SaveGames(ctx context.Context, gw store.Gateway, games []model.Game) ([]model.Game, error) {
	saved := make([]model.Game, 0, len(games))
	for _, game := range games {
		created, err := gw.CreateGame(ctx, game)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateGame) {
				continue
			}
			return nil, fmt.Errorf("save game: %w", err)
		}
		saved = append(saved, created)
	}
	return saved, nil
}
