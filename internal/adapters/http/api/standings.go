// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bozoleague/propline/internal/adapters/repository"
	"github.com/bozoleague/propline/internal/domain/model"
	"github.com/bozoleague/propline/internal/domain/standings"
)

// StandingsHandler handles standings reads.
type StandingsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps Dependencies, maxLimit int) *StandingsHandler {
	if maxLimit < 1 {
		maxLimit = 100
	}
	return &StandingsHandler{deps: deps, maxLimit: maxLimit}
}

// standingResponse mirrors the wire shape of one standings row.
type standingResponse struct {
	MemberID   string  `json:"member_id"`
	CohortID   string  `json:"cohort_id"`
	Hits       int     `json:"hits"`
	Misses     int     `json:"misses"`
	Pushes     int     `json:"pushes"`
	Voids      int     `json:"voids"`
	RiskMisses int     `json:"risk_misses"`
	SafeMisses int     `json:"safe_misses"`
	MissRate   float64 `json:"miss_rate"`
}

func toStandingResponse(e model.StandingEntry) standingResponse {
	return standingResponse{
		MemberID:   e.MemberID,
		CohortID:   e.CohortID,
		Hits:       e.Hits,
		Misses:     e.Misses,
		Pushes:     e.Pushes,
		Voids:      e.Voids,
		RiskMisses: e.RiskMisses,
		SafeMisses: e.SafeMisses,
		MissRate:   e.MissRate(),
	}
}

// HandleGetStandings handles GET /standings?cohort=&sort=&limit= requests.
func (h *StandingsHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standings"

	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	entries, err := h.deps.Standings(r.Context(), r.URL.Query().Get("cohort"), r.URL.Query().Get("sort"))
	if err != nil {
		if errors.Is(err, repository.ErrBadSortKey) {
			writeError(w, http.StatusBadRequest, "bad_sort_key", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]standingResponse, len(entries))
	for i, e := range entries {
		out[i] = toStandingResponse(e)
	}
	writeJSON(w, http.StatusOK, out)
}

// WorstMissHandler handles worst-miss reads.
type WorstMissHandler struct {
	deps Dependencies
}

// NewWorstMissHandler creates a new worst-miss handler.
func NewWorstMissHandler(deps Dependencies) *WorstMissHandler {
	return &WorstMissHandler{deps: deps}
}

// HandleGetWorstMiss handles GET /worst-miss?cycle= requests.
func (h *WorstMissHandler) HandleGetWorstMiss(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_worst_miss"

	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	cycle, err := parseCycleQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	bet, err := h.deps.WorstMiss(r.Context(), cycle)
	if err != nil {
		if errors.Is(err, standings.ErrNoWorstMiss) || errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toBetResponse(bet))
}
