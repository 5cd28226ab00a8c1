// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bozoleague/propline/internal/domain/model"
)

// CohortsHandler handles cohort membership and policy administration.
type CohortsHandler struct {
	deps Dependencies
}

// NewCohortsHandler creates a new cohorts handler.
func NewCohortsHandler(deps Dependencies) *CohortsHandler {
	return &CohortsHandler{deps: deps}
}

// memberRequest mirrors the wire schema for POST /cohorts/{id}/members.
type memberRequest struct {
	MemberID string `json:"member_id"`
}

// policyRequest mirrors the wire schema for PUT /cohorts/{id}/policy.
type policyRequest struct {
	MinPrice int `json:"min_price"`
	MaxPrice int `json:"max_price"`
}

// HandleCohorts routes /cohorts/{id}/members and /cohorts/{id}/policy.
func (h *CohortsHandler) HandleCohorts(w http.ResponseWriter, r *http.Request) {
	const op = "api.cohorts"

	rest := strings.TrimPrefix(r.URL.Path, "/cohorts/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	cohortID := parts[0]

	switch {
	case parts[1] == "members" && r.Method == http.MethodPost:
		var req memberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if strings.TrimSpace(req.MemberID) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing member_id")))
			return
		}
		if err := h.deps.AddMember(r.Context(), cohortID, req.MemberID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})

	case parts[1] == "policy" && r.Method == http.MethodPut:
		var req policyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if req.MinPrice > req.MaxPrice {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("min_price exceeds max_price")))
			return
		}
		if err := h.deps.SetPolicy(r.Context(), cohortID, model.Policy{MinPrice: req.MinPrice, MaxPrice: req.MaxPrice}); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "set"})

	default:
		http.NotFound(w, r)
	}
}
