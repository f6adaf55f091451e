package report

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/raysh454/a11yscan/internal/enricher"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/score"
	"github.com/raysh454/a11yscan/internal/store"
	"github.com/raysh454/a11yscan/internal/utils"
)

// Aggregator builds reports. One Aggregator is shared by the whole process so
// that concurrent reports never enrich the same rule twice.
type Aggregator struct {
	catalogue    store.RuleCatalogue
	descriptions store.DescriptionStore
	enricher     enricher.Enricher
	logger       logging.Logger

	group singleflight.Group
}

func NewAggregator(catalogue store.RuleCatalogue, descriptions store.DescriptionStore, en enricher.Enricher, logger logging.Logger) (*Aggregator, error) {
	if catalogue == nil {
		return nil, errors.New("report: nil rule catalogue provided")
	}
	if en == nil {
		return nil, errors.New("report: nil enricher provided")
	}
	if logger == nil {
		return nil, errors.New("report: nil logger provided")
	}
	return &Aggregator{
		catalogue:    catalogue,
		descriptions: descriptions,
		enricher:     en,
		logger:       logger.With(logging.Field{Key: "component", Value: "report"}),
	}, nil
}

// Aggregate reduces raw to the latest row per URL and builds the report.
// Rules missing from the catalogue are enriched and stored on the way.
func (a *Aggregator) Aggregate(ctx context.Context, raw []model.ScanResult, requesterID string) (*Report, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no scan results to aggregate", model.ErrNotFound)
	}

	latest := latestPerURL(raw)
	base, err := baseURL(latest[0].URL)
	if err != nil {
		return nil, fmt.Errorf("%w: result url %q: %v", model.ErrValidation, latest[0].URL, err)
	}
	var sum float64
	for i := range latest {
		latest[i].URL = relativeTo(base, latest[i].URL)
		sum += latest[i].Score
	}

	violations, err := a.catalogueViolations(ctx, latest)
	if err != nil {
		return nil, err
	}
	a.applyDescriptions(ctx, requesterID, violations)

	disabilities, impact := violationStats(violations)
	return &Report{
		AverageScore:      score.Round(sum/float64(len(latest)), 2),
		Violations:        violations,
		ScanResults:       latest,
		DisabilitiesStats: disabilities,
		ImpactStats:       impact,
		TableData:         tableData(latest),
		BaseURL:           base,
	}, nil
}

// latestPerURL keeps the newest row of every URL, in order of first
// appearance. Rows with equal timestamps resolve to the later one.
func latestPerURL(raw []model.ScanResult) []model.ScanResult {
	index := make(map[string]int, len(raw))
	out := make([]model.ScanResult, 0, len(raw))
	for _, r := range raw {
		i, seen := index[r.URL]
		if !seen {
			index[r.URL] = len(out)
			out = append(out, r)
			continue
		}
		if !r.Timestamp.Before(out[i].Timestamp) {
			out[i] = r
		}
	}
	return out
}

func baseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New("not an absolute url")
	}
	return utils.Origin(u), nil
}

func relativeTo(base, u string) string {
	if u == base {
		return u
	}
	if rel := strings.TrimPrefix(u, base); rel != u {
		return rel
	}
	return u
}

// catalogueViolations returns one Violation per distinct rule id, taken
// from its first occurrence and documented from the rule catalogue.
func (a *Aggregator) catalogueViolations(ctx context.Context, results []model.ScanResult) ([]Violation, error) {
	seen := make(map[string]bool)
	out := []Violation{}
	for _, res := range results {
		for _, v := range res.Violations {
			if seen[v.ID] {
				continue
			}
			seen[v.ID] = true

			entry := Violation{RuleOutcome: v, Disabilities: []string{}, SuccessCriteria: []string{}}
			rule, _, err := a.ensureRule(ctx, v.ID, v.HelpURL)
			switch {
			case err == nil:
				entry.Disabilities = nonNil(rule.DisabilitiesAffected)
				entry.WhyItMatters = rule.WhyItMatters
				entry.HowToFix = rule.HowToFix
				entry.SuccessCriteria = nonNil(rule.SuccessCriteria)
			case errors.Is(err, model.ErrEnrichment):
				a.logger.Warn("could not enrich violation",
					logging.Field{Key: "rule", Value: v.ID},
					logging.Field{Key: "help_url", Value: v.HelpURL},
					logging.Field{Key: "error", Value: err})
				entry.EnrichmentError = EnrichmentFailed
			default:
				return nil, err
			}
			out = append(out, entry)
		}
	}
	return out, nil
}

// ruleLookupTimeout bounds one shared catalogue lookup and enrichment.
const ruleLookupTimeout = 30 * time.Second

type ensured struct {
	rule    *model.Rule
	created bool
}

// ensureRule returns the catalogued rule, enriching and storing it first when
// absent. Callers asking for the same id at the same time share one lookup,
// which runs detached from any single caller's cancellation; each caller
// stops waiting when its own ctx is done.
func (a *Aggregator) ensureRule(ctx context.Context, ruleID, helpURL string) (*model.Rule, bool, error) {
	ch := a.group.DoChan(ruleID, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ruleLookupTimeout)
		defer cancel()

		rule, err := a.catalogue.GetRule(ctx, ruleID)
		if err == nil {
			return ensured{rule: rule}, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}

		details, err := a.enricher.Fetch(ctx, helpURL)
		if err != nil {
			if !errors.Is(err, model.ErrEnrichment) {
				err = fmt.Errorf("%w: %w", model.ErrEnrichment, err)
			}
			return nil, err
		}
		rule, err = a.catalogue.CreateRule(ctx, &model.Rule{
			RuleID:               ruleID,
			DisabilitiesAffected: details.DisabilitiesAffected,
			WhyItMatters:         details.WhyItMatters,
			HowToFix:             details.HowToFix,
			SuccessCriteria:      details.SuccessCriteria,
		})
		if err != nil {
			return nil, err
		}
		a.logger.Info("rule catalogued", logging.Field{Key: "rule", Value: ruleID})
		return ensured{rule: rule, created: true}, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		e := res.Val.(ensured)
		return e.rule, e.created, nil
	}
}

func (a *Aggregator) applyDescriptions(ctx context.Context, requesterID string, violations []Violation) {
	if a.descriptions == nil || requesterID == "" || len(violations) == 0 {
		return
	}
	custom, err := a.descriptions.GetDescriptions(ctx, requesterID)
	if err != nil {
		a.logger.Warn("could not load custom descriptions",
			logging.Field{Key: "requester", Value: requesterID},
			logging.Field{Key: "error", Value: err})
		return
	}
	for i := range violations {
		if d, ok := custom[violations[i].ID]; ok && d != "" {
			violations[i].Description = d
		}
	}
}

func violationStats(violations []Violation) (map[string]int, []ImpactBucket) {
	disabilities := make(map[string]int)
	critical := ImpactBucket{Category: CategoryCritical, IDs: []string{}}
	serious := ImpactBucket{Category: CategorySerious, IDs: []string{}}
	review := ImpactBucket{Category: CategoryNeedsReview, IDs: []string{}}

	for _, v := range violations {
		for _, d := range v.Disabilities {
			disabilities[d]++
		}
		b := &review
		switch v.Impact {
		case "critical":
			b = &critical
		case "serious":
			b = &serious
		}
		b.Value++
		b.IDs = append(b.IDs, v.ID)
	}
	return disabilities, []ImpactBucket{critical, serious, review}
}

func tableData(results []model.ScanResult) TableData {
	td := TableData{
		UniqueRuleIDs: []string{},
		URLs:          make([]string, 0, len(results)),
		RuleToURLs:    make(map[string][]string),
		Scores:        make(map[string]int),
		URLScores:     make([]URLScore, 0, len(results)),
	}
	for _, r := range results {
		td.URLs = append(td.URLs, r.URL)
		td.URLScores = append(td.URLScores, URLScore{URL: r.URL, Score: r.Score})

		counted := make(map[string]bool)
		for _, v := range r.Violations {
			if counted[v.ID] {
				continue
			}
			counted[v.ID] = true
			if _, ok := td.RuleToURLs[v.ID]; !ok {
				td.UniqueRuleIDs = append(td.UniqueRuleIDs, v.ID)
			}
			td.RuleToURLs[v.ID] = append(td.RuleToURLs[v.ID], r.URL)
		}
	}
	sort.Strings(td.UniqueRuleIDs)

	total := len(results)
	for id, urls := range td.RuleToURLs {
		td.Scores[id] = int(score.Round(float64(total-len(urls))*100/float64(total), 0))
	}
	return td
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
