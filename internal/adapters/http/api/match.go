// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bozoleague/propline/internal/domain/match"
)

// MatchHandler handles catalog match previews.
type MatchHandler struct {
	deps Dependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps Dependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// matchResponse mirrors the wire shape of a match preview.
type matchResponse struct {
	Found       bool     `json:"found"`
	LineID      string   `json:"line_id,omitempty"`
	Subject     string   `json:"subject,omitempty"`
	Category    string   `json:"category,omitempty"`
	Price       int      `json:"price,omitempty"`
	Confidence  float64  `json:"confidence"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// HandleMatch handles GET /match?cycle=&text= requests.
func (h *MatchHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.match"

	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	cycle, err := parseCycleQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	text := r.URL.Query().Get("text")
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	res, err := h.deps.PreviewMatch(r.Context(), cycle, text)
	if err != nil {
		if errors.Is(err, match.ErrCatalogUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "catalog_unavailable", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	resp := matchResponse{
		Found:       res.Found,
		Confidence:  res.Confidence,
		Suggestions: res.Suggestions,
	}
	if res.Found {
		resp.LineID = res.Line.SourceID
		resp.Subject = res.Line.Subject
		resp.Category = res.Line.Category
		resp.Price = res.Line.Price
	}
	writeJSON(w, http.StatusOK, resp)
}
