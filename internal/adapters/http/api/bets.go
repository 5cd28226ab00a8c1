// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bozoleague/propline/internal/adapters/repository"
	service "github.com/bozoleague/propline/internal/app"
	"github.com/bozoleague/propline/internal/domain/model"
)

// BetsHandler handles bet submission and reads.
type BetsHandler struct {
	deps Dependencies
}

// NewBetsHandler creates a new bets handler.
func NewBetsHandler(deps Dependencies) *BetsHandler {
	return &BetsHandler{deps: deps}
}

// betRequest mirrors the wire schema for POST /bets.
type betRequest struct {
	MemberID  string `json:"member_id"`
	CohortID  string `json:"cohort_id"`
	Cycle     string `json:"cycle"`
	Text      string `json:"text"`
	Direction string `json:"direction"`
	Category  string `json:"category"`
}

func (b betRequest) validate() error {
	switch {
	case strings.TrimSpace(b.MemberID) == "":
		return errors.New("missing member_id")
	case strings.TrimSpace(b.CohortID) == "":
		return errors.New("missing cohort_id")
	case strings.TrimSpace(b.Cycle) == "":
		return errors.New("missing cycle")
	case strings.TrimSpace(b.Text) == "":
		return errors.New("missing text")
	}
	return nil
}

// submitResponse is the acknowledgment for POST /bets.
type submitResponse struct {
	Status      string      `json:"status"`
	Duplicate   bool        `json:"duplicate"`
	Bet         betResponse `json:"bet"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

// rejectionResponse reports a refused submission.
type rejectionResponse struct {
	Status      string   `json:"status"`
	Reason      string   `json:"reason"`
	Detail      string   `json:"detail,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// HandleBets handles POST /bets and GET /bets?cycle= requests.
func (h *BetsHandler) HandleBets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *BetsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_bet"

	var req betRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	cycle, err := model.ParseCycleKey(req.Cycle)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	direction, err := model.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	category := model.CategoryRisk
	if strings.TrimSpace(req.Category) != "" {
		if category, err = model.ParseCategory(req.Category); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	res, err := h.deps.SubmitBet(r.Context(), service.SubmitRequest{
		MemberID:  req.MemberID,
		CohortID:  req.CohortID,
		Cycle:     cycle,
		Text:      req.Text,
		Direction: direction,
		Category:  category,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	if !res.Accepted {
		writeJSON(w, http.StatusUnprocessableEntity, rejectionResponse{
			Status:      "rejected",
			Reason:      res.Reason,
			Detail:      res.Detail,
			Suggestions: res.Suggestions,
		})
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, submitResponse{
			Status:    "duplicate",
			Duplicate: true,
			Bet:       toBetResponse(res.Bet),
		})
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{
		Status:      "accepted",
		Bet:         toBetResponse(res.Bet),
		Suggestions: res.Suggestions,
	})
}

func (h *BetsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_bets"

	cycle, err := parseCycleQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	bets, err := h.deps.ListBets(r.Context(), cycle)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	out := make([]betResponse, len(bets))
	for i, b := range bets {
		out[i] = toBetResponse(b)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetBet handles GET /bets/{id} requests.
func (h *BetsHandler) HandleGetBet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_bet"

	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/bets/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	bet, err := h.deps.GetBet(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toBetResponse(bet))
}
