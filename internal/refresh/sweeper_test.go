package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/rjmcnamara10/ticket-tracker/internal/model"
	"github.com/rjmcnamara10/ticket-tracker/internal/tickets"
)

type fakeService struct {
	mu       sync.Mutex
	games    []model.Game
	errs     map[string]error
	attempts []job
}

func (f *fakeService) GamesChronological(ctx context.Context) ([]model.Game, error) {
	return f.games, nil
}

func (f *fakeService) Refresh(ctx context.Context, gameID string, quantity int) (tickets.RefreshResult, error) {
	f.mu.Lock()
	f.attempts = append(f.attempts, job{gameID: gameID, quantity: quantity})
	f.mu.Unlock()
	if err := f.errs[gameID]; err != nil {
		return tickets.RefreshResult{}, err
	}
	return tickets.RefreshResult{SuccessCount: 1}, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestSweepCoversEveryGameQuantityPair(t *testing.T) {
	svc := &fakeService{
		games: []model.Game{{ID: "g1"}, {ID: "g2"}},
	}
	sweeper := NewSweeper(quietLogger(), svc, []int{1, 2}, 3, 1000)

	report, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Refreshed != 4 || report.Skipped != 0 || report.Failed != 0 {
		t.Errorf("report = %+v, want 4 refreshed", report)
	}

	seen := make(map[job]bool)
	for _, a := range svc.attempts {
		seen[a] = true
	}
	for _, g := range []string{"g1", "g2"} {
		for _, q := range []int{1, 2} {
			if !seen[job{gameID: g, quantity: q}] {
				t.Errorf("pair (%s, %d) never refreshed", g, q)
			}
		}
	}
}

func TestSweepTalliesSkipsAndFailures(t *testing.T) {
	svc := &fakeService{
		games: []model.Game{{ID: "g1"}, {ID: "g2"}, {ID: "g3"}},
		errs: map[string]error{
			"g2": tickets.ErrNoAppURLs,
			"g3": errors.New("store unavailable"),
		},
	}
	sweeper := NewSweeper(quietLogger(), svc, []int{2}, 2, 1000)

	report, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Refreshed != 1 || report.Skipped != 1 || report.Failed != 1 {
		t.Errorf("report = %+v, want 1/1/1", report)
	}
}

func TestSweepStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &fakeService{games: []model.Game{{ID: "g1"}, {ID: "g2"}}}
	sweeper := NewSweeper(quietLogger(), svc, []int{2}, 1, 1000)

	_, err := sweeper.Sweep(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
