package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rjmcnamara10/ticket-tracker/internal/model"
)

// document is the on-disk layout: a game collection and a ticket
// collection, mirroring the two-collection shape the service expects
// from any backing engine.
type document struct {
	Games   map[string]model.Game   `json:"games"`
	Tickets map[string]model.Ticket `json:"tickets"`
}

// FileStore is a Gateway backed by a single JSON file. Suitable for a
// single-process deployment; everything is guarded by one RWMutex and
// flushed to disk after each mutation.
type FileStore struct {
	path string
	doc  document
	mu   sync.RWMutex
}

// NewFileStore opens (or creates) the store file at path. A corrupt
// file is an error rather than silent data loss.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path: path,
		doc: document{
			Games:   make(map[string]model.Game),
			Tickets: make(map[string]model.Ticket),
		},
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read store: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &fs.doc); err != nil {
				return nil, fmt.Errorf("decode store: %w", err)
			}
		}
		if fs.doc.Games == nil {
			fs.doc.Games = make(map[string]model.Game)
		}
		if fs.doc.Tickets == nil {
			fs.doc.Tickets = make(map[string]model.Ticket)
		}
	}

	return fs, nil
}

func (fs *FileStore) FindGameByID(ctx context.Context, gameID string) (model.Game, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	game, ok := fs.doc.Games[gameID]
	if !ok {
		return model.Game{}, ErrGameNotFound
	}
	return fs.populateLocked(game), nil
}

func (fs *FileStore) ListGames(ctx context.Context) ([]model.Game, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	games := make([]model.Game, 0, len(fs.doc.Games))
	for _, game := range fs.doc.Games {
		games = append(games, fs.populateLocked(game))
	}
	sort.Slice(games, func(i, j int) bool {
		return games[i].StartDateTime.Before(games[j].StartDateTime)
	})
	return games, nil
}

func (fs *FileStore) CreateGame(ctx context.Context, game model.Game) (model.Game, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	// startDateTime is the uniqueness key, matching the schedule feed's
	// one-game-per-tipoff guarantee.
	for _, existing := range fs.doc.Games {
		if existing.StartDateTime.Equal(game.StartDateTime) {
			return model.Game{}, ErrDuplicateGame
		}
	}

	game.ID = uuid.NewString()
	fs.doc.Games[game.ID] = game

	if err := fs.saveLocked(); err != nil {
		delete(fs.doc.Games, game.ID)
		return model.Game{}, err
	}
	return game, nil
}

func (fs *FileStore) InsertTickets(ctx context.Context, tickets []model.Ticket) ([]model.Ticket, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	inserted := make([]model.Ticket, len(tickets))
	for i, ticket := range tickets {
		ticket.ID = uuid.NewString()
		fs.doc.Tickets[ticket.ID] = ticket
		inserted[i] = ticket
	}

	if err := fs.saveLocked(); err != nil {
		for _, ticket := range inserted {
			delete(fs.doc.Tickets, ticket.ID)
		}
		return nil, err
	}
	return inserted, nil
}

func (fs *FileStore) DeleteTicketsByIDs(ctx context.Context, ids []string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for _, id := range ids {
		delete(fs.doc.Tickets, id)
	}
	return fs.saveLocked()
}

func (fs *FileStore) SaveGame(ctx context.Context, game model.Game) (model.Game, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.doc.Games[game.ID]; !ok {
		return model.Game{}, ErrGameNotFound
	}
	fs.doc.Games[game.ID] = game

	if err := fs.saveLocked(); err != nil {
		return model.Game{}, err
	}
	return fs.populateLocked(game), nil
}

func (fs *FileStore) UpsertTicketAppURL(ctx context.Context, gameID string, app model.TicketAppName, url string) (model.Game, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	game, ok := fs.doc.Games[gameID]
	if !ok {
		return model.Game{}, ErrGameNotFound
	}

	replaced := false
	for i := range game.TicketAppURLs {
		if game.TicketAppURLs[i].App == app {
			game.TicketAppURLs[i].GameURL = url
			replaced = true
			break
		}
	}
	if !replaced {
		game.TicketAppURLs = append(game.TicketAppURLs, model.TicketAppURL{App: app, GameURL: url})
	}
	fs.doc.Games[gameID] = game

	if err := fs.saveLocked(); err != nil {
		return model.Game{}, err
	}
	return fs.populateLocked(game), nil
}

// populateLocked resolves a game's group ticket references against the
// ticket collection, dropping tickets that have been hard-deleted.
// Must be called with at least a read lock held.
func (fs *FileStore) populateLocked(game model.Game) model.Game {
	populated := game
	populated.TicketAppURLs = append([]model.TicketAppURL(nil), game.TicketAppURLs...)
	populated.TicketQuantityGroups = make([]model.TicketQuantityGroup, len(game.TicketQuantityGroups))
	for i, group := range game.TicketQuantityGroups {
		tickets := make([]model.Ticket, 0, len(group.Tickets))
		for _, ticket := range group.Tickets {
			if live, ok := fs.doc.Tickets[ticket.ID]; ok {
				tickets = append(tickets, live)
			}
		}
		populated.TicketQuantityGroups[i] = model.TicketQuantityGroup{
			TicketQuantity: group.TicketQuantity,
			LastUpdated:    group.LastUpdated,
			Tickets:        tickets,
		}
	}
	return populated
}

// saveLocked flushes the document to disk. Must be called with the
// write lock held.
func (fs *FileStore) saveLocked() error {
	if dir := filepath.Dir(fs.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(fs.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	return os.WriteFile(fs.path, data, 0644)
}
