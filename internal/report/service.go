package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/raysh454/a11yscan/internal/enricher"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/store"
)

// Service generates reports for stored scan requests.
type Service struct {
	scans  store.ScanStore
	agg    *Aggregator
	logger logging.Logger
}

func NewService(scans store.ScanStore, agg *Aggregator, logger logging.Logger) (*Service, error) {
	if scans == nil || agg == nil {
		return nil, errors.New("report: scan store and aggregator are required")
	}
	if logger == nil {
		return nil, errors.New("report: nil logger provided")
	}
	return &Service{scans: scans, agg: agg, logger: logger.With(logging.Field{Key: "component", Value: "report"})}, nil
}

// Generate aggregates every result stored for requestID. Custom descriptions
// are looked up for requesterID, or for the request's author when empty.
func (s *Service) Generate(ctx context.Context, requestID, requesterID string) (*Report, error) {
	req, err := s.scans.GetScanRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	results, err := s.scans.ListScanResults(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no scan results found for scan request %s", model.ErrNotFound, requestID)
	}
	if requesterID == "" {
		requesterID = req.AuthorID
	}

	s.logger.Info("generating report",
		logging.Field{Key: "scan_request_id", Value: requestID},
		logging.Field{Key: "results", Value: len(results)})
	return s.agg.Aggregate(ctx, results, requesterID)
}

// WarmSummary counts the outcome of a catalogue warm-up.
type WarmSummary struct {
	Created int      `json:"created"`
	Cached  int      `json:"cached"`
	Failed  []string `json:"failed"`
}

// Warm makes sure every rule in ruleIDs is catalogued, scraping its page
// under base when missing. Enrichment failures are collected, not fatal.
func (a *Aggregator) Warm(ctx context.Context, base string, ruleIDs []string) (WarmSummary, error) {
	sum := WarmSummary{Failed: []string{}}
	for _, id := range ruleIDs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		_, created, err := a.ensureRule(ctx, id, enricher.RuleURL(base, id))
		switch {
		case err == nil && created:
			sum.Created++
		case err == nil:
			sum.Cached++
		case errors.Is(err, model.ErrEnrichment):
			a.logger.Warn("could not enrich rule",
				logging.Field{Key: "rule", Value: id},
				logging.Field{Key: "error", Value: err})
			sum.Failed = append(sum.Failed, id)
		default:
			return sum, err
		}
	}
	return sum, nil
}
