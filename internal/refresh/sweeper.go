// Package refresh runs the periodic background sweep that keeps every
// tracked game's quantity groups current without hammering the
// marketplaces.
package refresh

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rjmcnamara10/ticket-tracker/internal/model"
	"github.com/rjmcnamara10/ticket-tracker/internal/tickets"
)

// TicketService is the slice of the ticket service the sweeper needs.
type TicketService interface {
	GamesChronological(ctx context.Context) ([]model.Game, error)
	Refresh(ctx context.Context, gameID string, quantity int) (tickets.RefreshResult, error)
}

// Report tallies one sweep.
type Report struct {
	Refreshed int
	Skipped   int
	Failed    int
}

// job is one (game, quantity) refresh unit.
type job struct {
	gameID   string
	quantity int
}

// Sweeper refreshes every tracked game for every configured block size
// through a bounded worker pool. A global rate limiter spaces the
// refreshes out on top of the per-app scrape limiters.
type Sweeper struct {
	logger     *logrus.Logger
	service    TicketService
	quantities []int
	workers    int
	limiter    *rate.Limiter
}

func NewSweeper(logger *logrus.Logger, service TicketService, quantities []int, workers int, ratePerSec float64) *Sweeper {
	if workers < 1 {
		workers = 1
	}
	return &Sweeper{
		logger:     logger,
		service:    service,
		quantities: quantities,
		workers:    workers,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

// Sweep refreshes every (game, quantity) pair once. Games that cannot
// be refreshed are skipped, not fatal: a game with no app URLs or an
// empty market is normal between setup and tip-off. The sweep stops
// early only when ctx is cancelled.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	games, err := s.service.GamesChronological(ctx)
	if err != nil {
		return Report{}, err
	}

	jobs := make(chan job)
	var (
		mu     sync.Mutex
		report Report
	)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := s.limiter.Wait(ctx); err != nil {
					return
				}
				outcome := s.refreshOne(ctx, j)

				mu.Lock()
				switch outcome {
				case sweepRefreshed:
					report.Refreshed++
				case sweepSkipped:
					report.Skipped++
				default:
					report.Failed++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, game := range games {
		for _, quantity := range s.quantities {
			select {
			case jobs <- job{gameID: game.ID, quantity: quantity}:
			case <-ctx.Done():
				break feed
			}
		}
	}
	close(jobs)
	wg.Wait()

	s.logger.WithFields(logrus.Fields{
		"refreshed": report.Refreshed,
		"skipped":   report.Skipped,
		"failed":    report.Failed,
	}).Info("sweep complete")

	return report, ctx.Err()
}

type sweepOutcome int

const (
	sweepRefreshed sweepOutcome = iota
	sweepSkipped
	sweepFailed
)

func (s *Sweeper) refreshOne(ctx context.Context, j job) sweepOutcome {
	_, err := s.service.Refresh(ctx, j.gameID, j.quantity)
	switch {
	case err == nil:
		return sweepRefreshed
	case errors.Is(err, tickets.ErrNoAppURLs), errors.Is(err, tickets.ErrNoTickets):
		s.logger.WithFields(logrus.Fields{
			"gameId":   j.gameID,
			"quantity": j.quantity,
		}).WithError(err).Debug("sweep skipped game")
		return sweepSkipped
	default:
		s.logger.WithFields(logrus.Fields{
			"gameId":   j.gameID,
			"quantity": j.quantity,
		}).WithError(err).Warn("sweep refresh failed")
		return sweepFailed
	}
}
