package model

import "time"

type ScanStatus string

const (
	ScanIncomplete ScanStatus = "Incomplete"
	ScanComplete   ScanStatus = "Complete"
)

// ScanRequest is the persisted description of a site audit: the seed URL,
// the pages discovered from it and how they should be scanned.
type ScanRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// URL is the seed the crawl started from.
	URL string `json:"url"`

	// Guidance holds the rule-engine tags to evaluate (e.g. "wcag2aa").
	Guidance []string `json:"guidance"`

	Depth  int    `json:"depth"`
	Device string `json:"device,omitempty"`
	Steps  []Step `json:"steps,omitempty"`

	ProjectID string     `json:"project_id"`
	AuthorID  string     `json:"author_id"`
	Status    ScanStatus `json:"status"`

	// URLs is the discovered page set, in acceptance order.
	URLs []string `json:"urls"`

	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Score         *float64   `json:"score,omitempty"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
}

// ScanRequestFilter narrows ListScanRequests. Empty fields match everything.
// Results are newest first; Limit caps the page (zero means all) and Offset
// skips that many matches.
type ScanRequestFilter struct {
	ProjectID string
	AuthorID  string
	Status    ScanStatus
	Limit     int
	Offset    int
}

// ScanRequestUpdate carries the editable fields of a ScanRequest. Nil fields
// are left untouched.
type ScanRequestUpdate struct {
	Name      *string   `json:"name,omitempty"`
	Device    *string   `json:"device,omitempty"`
	Depth     *int      `json:"depth,omitempty"`
	Guidance  *[]string `json:"guidance,omitempty"`
	Steps     *[]Step   `json:"steps,omitempty"`
	ProjectID *string   `json:"project_id,omitempty"`
}

// NodeResult is one DOM node an engine rule matched.
type NodeResult struct {
	HTML           string `json:"html"`
	Target         []any  `json:"target"`
	FailureSummary string `json:"failureSummary,omitempty"`
	Impact         string `json:"impact,omitempty"`
}

// RuleOutcome is one rule's outcome on a page as reported by the engine.
// When it appears in a violations list it is a violation.
type RuleOutcome struct {
	ID          string       `json:"id"`
	Impact      string       `json:"impact,omitempty"`
	Tags        []string     `json:"tags"`
	Description string       `json:"description"`
	Help        string       `json:"help"`
	HelpURL     string       `json:"helpUrl"`
	Nodes       []NodeResult `json:"nodes"`
}

// EngineResult is the decoded output of one engine run on one page.
type EngineResult struct {
	URL          string         `json:"url"`
	Timestamp    string         `json:"timestamp,omitempty"`
	TestEngine   map[string]any `json:"testEngine,omitempty"`
	TestRunner   map[string]any `json:"testRunner,omitempty"`
	Environment  map[string]any `json:"testEnvironment,omitempty"`
	Passes       []RuleOutcome  `json:"passes"`
	Violations   []RuleOutcome  `json:"violations"`
	Incomplete   []RuleOutcome  `json:"incomplete"`
	Inapplicable []RuleOutcome  `json:"inapplicable"`
}

// ScanResult is the append-only record of one page evaluation.
type ScanResult struct {
	ID            string    `json:"id"`
	ScanRequestID string    `json:"scan_request_id"`
	URL           string    `json:"url"`
	Timestamp     time.Time `json:"timestamp"`
	Score         float64   `json:"score"`

	Violations   []RuleOutcome `json:"violations"`
	Passes       []RuleOutcome `json:"passes"`
	Incomplete   []RuleOutcome `json:"incomplete"`
	Inapplicable []RuleOutcome `json:"inapplicable"`

	TestEngine  map[string]any `json:"test_engine,omitempty"`
	Environment map[string]any `json:"environment,omitempty"`

	AuthorID  string `json:"author_id"`
	ProjectID string `json:"project_id"`
}

// Rule is a cached documentation entry for an engine rule.
type Rule struct {
	RuleID               string    `json:"rule_id"`
	DisabilitiesAffected []string  `json:"disabilities_affected"`
	WhyItMatters         string    `json:"why_it_matters"`
	HowToFix             string    `json:"how_to_fix"`
	SuccessCriteria      []string  `json:"success_criteria"`
	CreatedAt            time.Time `json:"created_at"`
}

// RuleDetails is what an enricher extracts from a rule's documentation page.
type RuleDetails struct {
	DisabilitiesAffected []string
	WhyItMatters         string
	HowToFix             string
	SuccessCriteria      []string
}

// ScheduledScan is a pending future run of a ScanRequest. A request has at
// most one.
type ScheduledScan struct {
	ID            string    `json:"id"`
	ScanRequestID string    `json:"scan_request_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	AuthorID      string    `json:"author_id"`
}

// DeviceProfile describes the viewport and user agent to emulate.
type DeviceProfile struct {
	Name      string  `json:"name"`
	Width     int64   `json:"width"`
	Height    int64   `json:"height"`
	Scale     float64 `json:"scale"`
	Landscape bool    `json:"landscape"`
	Mobile    bool    `json:"mobile"`
	Touch     bool    `json:"touch"`
	UserAgent string  `json:"user_agent,omitempty"`
}

// GuidanceLevels are the engine tags offered to clients.
var GuidanceLevels = []string{
	"wcag2a",
	"wcag2aa",
	"wcag2aaa",
	"wcag21a",
	"wcag21aa",
	"wcag22aa",
	"best-practice",
	"section508",
}
