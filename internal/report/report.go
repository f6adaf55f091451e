// Package report aggregates persisted scan results into an enriched,
// per-site accessibility report.
package report

import "github.com/raysh454/a11yscan/internal/model"

// EnrichmentFailed is set on a violation whose documentation could not be
// fetched.
const EnrichmentFailed = "enrichment failed"

// Impact categories, in report order.
const (
	CategoryCritical    = "Critical"
	CategorySerious     = "Serious"
	CategoryNeedsReview = "Needs review"
)

// Violation is an engine violation decorated with its rule documentation.
type Violation struct {
	model.RuleOutcome

	Disabilities    []string `json:"disabilities"`
	WhyItMatters    string   `json:"why_it_matters"`
	HowToFix        string   `json:"how_to_fix"`
	SuccessCriteria []string `json:"success_criteria"`
	EnrichmentError string   `json:"enrichment_error,omitempty"`
}

// ImpactBucket counts the distinct violated rules of one impact category.
type ImpactBucket struct {
	Category string   `json:"category"`
	Value    int      `json:"value"`
	IDs      []string `json:"ids"`
}

type URLScore struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// TableData is the rule-by-URL matrix rendered by report front ends.
type TableData struct {
	UniqueRuleIDs []string            `json:"unique_rule_ids"`
	URLs          []string            `json:"urls"`
	RuleToURLs    map[string][]string `json:"rule_to_urls"`

	// Scores holds, per rule, the share of URLs not violating it (0–100).
	Scores    map[string]int `json:"scores"`
	URLScores []URLScore     `json:"url_scores"`
}

// Report is the aggregate over the latest result of every scanned URL.
type Report struct {
	AverageScore      float64            `json:"average_score"`
	Violations        []Violation        `json:"violations"`
	ScanResults       []model.ScanResult `json:"scan_results"`
	DisabilitiesStats map[string]int     `json:"disabilities_stats"`
	ImpactStats       []ImpactBucket     `json:"impact_stats"`
	TableData         TableData          `json:"table_data"`
	BaseURL           string             `json:"base_url"`
}
