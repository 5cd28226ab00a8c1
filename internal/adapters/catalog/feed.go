package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bozoleague/propline/internal/domain/model"
)

// feedLine mirrors one entry of the external ingestion feed. Thresholds
// arrive as strings so half-point lines survive the wire exactly.
type feedLine struct {
	SourceID  string `json:"source_id"`
	Subject   string `json:"subject"`
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
	Price     int    `json:"price"`
	ValidFrom string `json:"valid_from"`
	ValidTo   string `json:"valid_to"`
	Season    int    `json:"season"`
	Week      int    `json:"week"`
}

// LoadFeed decodes an ingestion feed into catalog lines. A decode or
// field error fails the whole batch; ingestion is all-or-nothing so a
// half-applied refresh never reaches the matcher.
func LoadFeed(r io.Reader) ([]model.Line, error) {
	var raw []feedLine
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFeed, err)
	}

	lines := make([]model.Line, 0, len(raw))
	for i, fl := range raw {
		if fl.SourceID == "" || fl.Subject == "" || fl.Category == "" {
			return nil, fmt.Errorf("%w: entry %d missing source_id, subject or category", ErrBadFeed, i)
		}

		threshold := 0.0
		if fl.Threshold != "" {
			d, err := decimal.NewFromString(fl.Threshold)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d threshold %q: %w", ErrBadFeed, i, fl.Threshold, err)
			}
			threshold, _ = d.Float64()
		}

		var from, to time.Time
		var err error
		if fl.ValidFrom != "" {
			if from, err = time.Parse(time.RFC3339, fl.ValidFrom); err != nil {
				return nil, fmt.Errorf("%w: entry %d valid_from: %w", ErrBadFeed, i, err)
			}
		}
		if fl.ValidTo != "" {
			if to, err = time.Parse(time.RFC3339, fl.ValidTo); err != nil {
				return nil, fmt.Errorf("%w: entry %d valid_to: %w", ErrBadFeed, i, err)
			}
		}

		lines = append(lines, model.Line{
			SourceID:  fl.SourceID,
			Subject:   fl.Subject,
			Category:  fl.Category,
			Threshold: threshold,
			Price:     fl.Price,
			ValidFrom: from,
			ValidTo:   to,
			Cycle:     model.Cycle{Season: fl.Season, Week: fl.Week},
		})
	}
	return lines, nil
}

// LoadFeedFile reads an ingestion feed from disk.
func LoadFeedFile(path string) ([]model.Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open line feed: %w", err)
	}
	defer f.Close()
	return LoadFeed(f)
}
