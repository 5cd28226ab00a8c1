// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	service "github.com/bozoleague/propline/internal/app"
	"github.com/bozoleague/propline/internal/domain/model"
)

// ResolveHandler triggers resolution passes.
type ResolveHandler struct {
	deps Dependencies
}

// NewResolveHandler creates a new resolve handler.
func NewResolveHandler(deps Dependencies) *ResolveHandler {
	return &ResolveHandler{deps: deps}
}

// resolveRequest mirrors the wire schema for POST /resolve.
type resolveRequest struct {
	Cycle string `json:"cycle"`
	Force bool   `json:"force"`
}

// resolveResponse reports a finished pass.
type resolveResponse struct {
	Cycle    string        `json:"cycle"`
	Resolved int           `json:"resolved"`
	Pending  int           `json:"pending"`
	Skipped  int           `json:"skipped"`
	Failures []failureItem `json:"failures,omitempty"`
}

type failureItem struct {
	BetID string `json:"bet_id"`
	Error string `json:"error"`
}

// HandleResolve handles POST /resolve requests.
func (h *ResolveHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.resolve"

	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	cycle, err := model.ParseCycleKey(req.Cycle)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	report, err := h.deps.ResolveCycle(r.Context(), cycle, req.Force)
	if err != nil {
		if errors.Is(err, service.ErrScheduleClosed) {
			writeError(w, http.StatusConflict, "schedule_closed", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	resp := resolveResponse{
		Cycle:    cycle.Key(),
		Resolved: report.Resolved,
		Pending:  report.Pending,
		Skipped:  report.Skipped,
	}
	for _, f := range report.Failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		resp.Failures = append(resp.Failures, failureItem{BetID: f.BetID, Error: msg})
	}
	writeJSON(w, http.StatusOK, resp)
}

// OutcomesHandler records settled line outcomes.
type OutcomesHandler struct {
	deps Dependencies
}

// NewOutcomesHandler creates a new outcomes handler.
func NewOutcomesHandler(deps Dependencies) *OutcomesHandler {
	return &OutcomesHandler{deps: deps}
}

// outcomeRequest mirrors the wire schema for POST /outcomes.
type outcomeRequest struct {
	LineID     string `json:"line_id"`
	Outcome    string `json:"outcome"`
	ObservedAt string `json:"observed_at"`
}

// HandlePostOutcome handles POST /outcomes requests.
func (h *OutcomesHandler) HandlePostOutcome(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_outcome"

	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.LineID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	outcome, err := model.ParseOutcome(req.Outcome)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	observedAt := time.Now().UTC()
	if strings.TrimSpace(req.ObservedAt) != "" {
		if observedAt, err = time.Parse(time.RFC3339, req.ObservedAt); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	if err := h.deps.RecordOutcome(r.Context(), req.LineID, outcome, observedAt); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}
