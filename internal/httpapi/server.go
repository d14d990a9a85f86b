// Package httpapi exposes the tracker over HTTP. Handlers are thin
// shims: decode, call the service, map errors to status codes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/rjmcnamara10/ticket-tracker/internal/model"
	"github.com/rjmcnamara10/ticket-tracker/internal/schedule"
	"github.com/rjmcnamara10/ticket-tracker/internal/store"
	"github.com/rjmcnamara10/ticket-tracker/internal/tickets"
)

// TicketService is the use-case surface the handlers call into.
type TicketService interface {
	Refresh(ctx context.Context, gameID string, quantity int) (tickets.RefreshResult, error)
	TicketsByOrder(ctx context.Context, gameID string, quantity int, order tickets.Order) ([]model.Ticket, error)
	AddTicketAppURL(ctx context.Context, gameID string, app model.TicketAppName, url string) (model.Game, error)
	GamesChronological(ctx context.Context) ([]model.Game, error)
}

// Server holds the handler dependencies.
type Server struct {
	logger  *logrus.Logger
	service TicketService
	team    schedule.Team
	gateway store.Gateway
}

func NewServer(logger *logrus.Logger, service TicketService, team schedule.Team, gateway store.Gateway) *Server {
	return &Server{logger: logger, service: service, team: team, gateway: gateway}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/games/homeGames", s.handleAddHomeGames).Methods(http.MethodPost)
	r.HandleFunc("/games/ticketAppUrl", s.handleAddTicketAppURL).Methods(http.MethodPost)
	r.HandleFunc("/games/refreshTickets", s.handleRefreshTickets).Methods(http.MethodPost)
	r.HandleFunc("/games", s.handleListGames).Methods(http.MethodGet)
	r.HandleFunc("/games/{gameId}/tickets", s.handleListTickets).Methods(http.MethodGet)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// serviceError maps a service failure to a response.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrGameNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tickets.ErrGroupNotFound),
		errors.Is(err, tickets.ErrNoAppURLs),
		errors.Is(err, tickets.ErrNoTickets):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.WithError(err).Error("request failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleAddHomeGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.team.RemainingHomeGames(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	created, err := schedule.SaveGames(r.Context(), s.gateway, games)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

type addTicketAppURLRequest struct {
	GameID  string `json:"gameId"`
	App     string `json:"app"`
	GameURL string `json:"gameUrl"`
}

func (s *Server) handleAddTicketAppURL(w http.ResponseWriter, r *http.Request) {
	var req addTicketAppURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GameID == "" || req.GameURL == "" {
		s.writeError(w, http.StatusBadRequest, "gameId and gameUrl are required")
		return
	}
	app, err := model.ParseTicketAppName(req.App)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	game, err := s.service.AddTicketAppURL(r.Context(), req.GameID, app, req.GameURL)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, game)
}

type refreshTicketsRequest struct {
	GameID         string `json:"gameId"`
	TicketQuantity int    `json:"ticketQuantity"`
}

func (s *Server) handleRefreshTickets(w http.ResponseWriter, r *http.Request) {
	var req refreshTicketsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GameID == "" {
		s.writeError(w, http.StatusBadRequest, "gameId is required")
		return
	}
	if req.TicketQuantity < 1 {
		s.writeError(w, http.StatusBadRequest, "ticketQuantity must be positive")
		return
	}

	result, err := s.service.Refresh(r.Context(), req.GameID, req.TicketQuantity)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	if order := r.URL.Query().Get("order"); order != "" && order != "chronological" {
		s.writeError(w, http.StatusBadRequest, "unknown game order")
		return
	}
	games, err := s.service.GamesChronological(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameId"]

	quantity := 2
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil || q < 1 {
			s.writeError(w, http.StatusBadRequest, "quantity must be a positive integer")
			return
		}
		quantity = q
	}

	order := tickets.OrderCheapest
	if raw := r.URL.Query().Get("order"); raw != "" {
		parsed, err := tickets.ParseOrder(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		order = parsed
	}

	ranked, err := s.service.TicketsByOrder(r.Context(), gameID, quantity, order)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ranked)
}
