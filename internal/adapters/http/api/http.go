// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "github.com/bozoleague/propline/internal/app"
	"github.com/bozoleague/propline/internal/domain/match"
	"github.com/bozoleague/propline/internal/domain/model"
	"github.com/bozoleague/propline/internal/domain/resolve"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SubmitBet(ctx context.Context, req service.SubmitRequest) (service.SubmitResult, error)
	PreviewMatch(ctx context.Context, cycle model.Cycle, text string) (match.Result, error)
	RecordOutcome(ctx context.Context, lineID string, outcome model.Outcome, observedAt time.Time) error
	ResolveCycle(ctx context.Context, cycle model.Cycle, force bool) (resolve.Report, error)
	Standings(ctx context.Context, cohortID, sortBy string) ([]model.StandingEntry, error)
	WorstMiss(ctx context.Context, cycle model.Cycle) (model.Bet, error)
	GetBet(ctx context.Context, id string) (model.Bet, error)
	ListBets(ctx context.Context, cycle model.Cycle) ([]model.Bet, error)
	AddMember(ctx context.Context, cohortID, memberID string) error
	SetPolicy(ctx context.Context, cohortID string, policy model.Policy) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	betsHandler      *BetsHandler
	matchHandler     *MatchHandler
	resolveHandler   *ResolveHandler
	outcomesHandler  *OutcomesHandler
	standingsHandler *StandingsHandler
	worstMissHandler *WorstMissHandler
	cohortsHandler   *CohortsHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxStandingsLimit int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		betsHandler:      NewBetsHandler(deps),
		matchHandler:     NewMatchHandler(deps),
		resolveHandler:   NewResolveHandler(deps),
		outcomesHandler:  NewOutcomesHandler(deps),
		standingsHandler: NewStandingsHandler(deps, maxStandingsLimit),
		worstMissHandler: NewWorstMissHandler(deps),
		cohortsHandler:   NewCohortsHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/bets", MetricsMiddleware(s.betsHandler.HandleBets, "bets"))
	mux.HandleFunc("/bets/", MetricsMiddleware(s.betsHandler.HandleGetBet, "bet"))
	mux.HandleFunc("/match", MetricsMiddleware(s.matchHandler.HandleMatch, "match"))
	mux.HandleFunc("/resolve", MetricsMiddleware(s.resolveHandler.HandleResolve, "resolve"))
	mux.HandleFunc("/outcomes", MetricsMiddleware(s.outcomesHandler.HandlePostOutcome, "outcomes"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandleGetStandings, "standings"))
	mux.HandleFunc("/worst-miss", MetricsMiddleware(s.worstMissHandler.HandleGetWorstMiss, "worst_miss"))
	mux.HandleFunc("/cohorts/", MetricsMiddleware(s.cohortsHandler.HandleCohorts, "cohorts"))
}

// betResponse mirrors the wire shape of a bet.
type betResponse struct {
	ID         string  `json:"id"`
	MemberID   string  `json:"member_id"`
	CohortID   string  `json:"cohort_id"`
	Cycle      string  `json:"cycle"`
	RawText    string  `json:"raw_text"`
	LineID     *string `json:"line_id,omitempty"`
	Price      *int    `json:"price,omitempty"`
	Direction  string  `json:"direction,omitempty"`
	Category   string  `json:"category"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	CreatedAt  string  `json:"created_at"`
	ResolvedAt *string `json:"resolved_at,omitempty"`
}

func toBetResponse(b model.Bet) betResponse {
	resp := betResponse{
		ID:         b.ID,
		MemberID:   b.MemberID,
		CohortID:   b.CohortID,
		Cycle:      b.Cycle.Key(),
		RawText:    b.RawText,
		LineID:     b.LineID,
		Price:      b.Price,
		Direction:  string(b.Direction),
		Category:   string(b.Category),
		Status:     string(b.Status),
		Confidence: b.Confidence,
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
	}
	if b.ResolvedAt != nil {
		s := b.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &s
	}
	return resp
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// parseCycle reads a cycle either as a "2025-w14" key or as separate
// season/week values.
func parseCycleQuery(r *http.Request) (model.Cycle, error) {
	if key := r.URL.Query().Get("cycle"); key != "" {
		return model.ParseCycleKey(key)
	}
	return model.Cycle{}, ErrMissingCycle
}
