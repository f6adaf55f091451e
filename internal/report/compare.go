package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
)

// Rule change kinds.
const (
	ChangeNew     = "new"
	ChangeFixed   = "fixed"
	ChangeChanged = "changed"
)

// RuleDelta is the change in one rule's violating node count between two runs.
type RuleDelta struct {
	RuleID string `json:"rule_id"`
	Impact string `json:"impact,omitempty"`
	Base   int    `json:"base"`
	Head   int    `json:"head"`
	Delta  int    `json:"delta"`
	Change string `json:"change"`
}

// MarkupChunk is a run of offending markup that appeared or went away.
type MarkupChunk struct {
	Type    string `json:"type"` // "added" or "removed"
	Content string `json:"content"`
}

// PageDelta compares the two newest results of one URL.
type PageDelta struct {
	URL        string        `json:"url"`
	BaseID     string        `json:"base_id,omitempty"`
	HeadID     string        `json:"head_id"`
	BaseScore  float64       `json:"base_score"`
	HeadScore  float64       `json:"head_score"`
	Delta      float64       `json:"delta"`
	RuleDeltas []RuleDelta   `json:"rule_deltas"`
	Markup     []MarkupChunk `json:"markup"`
}

// Comparison is the run-over-run view of a scan request. URLs evaluated only
// once have no base and count every violation as new.
type Comparison struct {
	ScanRequestID string      `json:"scan_request_id"`
	Pages         []PageDelta `json:"pages"`
	Improved      int         `json:"improved"`
	Regressed     int         `json:"regressed"`
}

// Compare diffs the latest result of every URL against the one before it.
func (s *Service) Compare(ctx context.Context, requestID string) (*Comparison, error) {
	if _, err := s.scans.GetScanRequest(ctx, requestID); err != nil {
		return nil, err
	}
	results, err := s.scans.ListScanResults(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no scan results found for scan request %s", model.ErrNotFound, requestID)
	}

	cmp := &Comparison{ScanRequestID: requestID, Pages: []PageDelta{}}
	for _, pair := range lastTwoPerURL(results) {
		d := DiffResults(pair[0], pair[1])
		switch {
		case d.Delta > 0:
			cmp.Improved++
		case d.Delta < 0:
			cmp.Regressed++
		}
		cmp.Pages = append(cmp.Pages, *d)
	}
	s.logger.Info("compared runs",
		logging.Field{Key: "scan_request_id", Value: requestID},
		logging.Field{Key: "pages", Value: len(cmp.Pages)},
		logging.Field{Key: "regressed", Value: cmp.Regressed})
	return cmp, nil
}

// lastTwoPerURL returns [previous, latest] per URL in order of first
// appearance. previous is nil for URLs with a single result.
func lastTwoPerURL(raw []model.ScanResult) [][2]*model.ScanResult {
	index := make(map[string]int, len(raw))
	var out [][2]*model.ScanResult
	for i := range raw {
		r := &raw[i]
		j, seen := index[r.URL]
		if !seen {
			index[r.URL] = len(out)
			out = append(out, [2]*model.ScanResult{nil, r})
			continue
		}
		if !r.Timestamp.Before(out[j][1].Timestamp) {
			out[j] = [2]*model.ScanResult{out[j][1], r}
		} else if out[j][0] == nil || !r.Timestamp.Before(out[j][0].Timestamp) {
			out[j][0] = r
		}
	}
	return out
}

// DiffResults computes the delta from base to head. base may be nil.
func DiffResults(base, head *model.ScanResult) *PageDelta {
	d := &PageDelta{
		URL:        head.URL,
		HeadID:     head.ID,
		HeadScore:  head.Score,
		RuleDeltas: []RuleDelta{},
		Markup:     []MarkupChunk{},
	}
	var baseViolations []model.RuleOutcome
	if base != nil {
		d.BaseID = base.ID
		d.BaseScore = base.Score
		baseViolations = base.Violations
	}
	d.Delta = head.Score - d.BaseScore

	baseCounts, impacts := nodeCounts(baseViolations)
	headCounts, headImpacts := nodeCounts(head.Violations)
	for id, imp := range headImpacts {
		impacts[id] = imp
	}

	seen := make(map[string]struct{})
	for id := range baseCounts {
		seen[id] = struct{}{}
	}
	for id := range headCounts {
		seen[id] = struct{}{}
	}

	for id := range seen {
		b, h := baseCounts[id], headCounts[id]
		if b == h {
			continue
		}
		rd := RuleDelta{RuleID: id, Impact: impacts[id], Base: b, Head: h, Delta: h - b, Change: ChangeChanged}
		switch {
		case b == 0:
			rd.Change = ChangeNew
		case h == 0:
			rd.Change = ChangeFixed
		}
		d.RuleDeltas = append(d.RuleDeltas, rd)
	}

	// Most changed rules first
	sort.Slice(d.RuleDeltas, func(i, j int) bool {
		ai, aj := math.Abs(float64(d.RuleDeltas[i].Delta)), math.Abs(float64(d.RuleDeltas[j].Delta))
		if ai != aj {
			return ai > aj
		}
		return d.RuleDeltas[i].RuleID < d.RuleDeltas[j].RuleID
	})

	d.Markup = diffMarkup(offendingMarkup(baseViolations), offendingMarkup(head.Violations))
	return d
}

func nodeCounts(violations []model.RuleOutcome) (map[string]int, map[string]string) {
	counts := make(map[string]int)
	impacts := make(map[string]string)
	for _, v := range violations {
		counts[v.ID] += len(v.Nodes)
		if v.Impact != "" {
			impacts[v.ID] = v.Impact
		}
	}
	return counts, impacts
}

// offendingMarkup lists every violating node as "rule-id: html", one per line,
// sorted so unrelated reordering does not show up as a change.
func offendingMarkup(violations []model.RuleOutcome) string {
	var lines []string
	for _, v := range violations {
		for _, n := range v.Nodes {
			lines = append(lines, v.ID+": "+strings.TrimSpace(n.HTML))
		}
	}
	sort.Strings(lines)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// diffMarkup runs a line-level diff and keeps the inserted and deleted runs.
func diffMarkup(base, head string) []MarkupChunk {
	chunks := []MarkupChunk{}
	if base == head {
		return chunks
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(base, head)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	for _, d := range diffs {
		var kind string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = "added"
		case diffmatchpatch.DiffDelete:
			kind = "removed"
		case diffmatchpatch.DiffEqual:
			continue
		}
		if strings.TrimSpace(d.Text) != "" {
			chunks = append(chunks, MarkupChunk{Type: kind, Content: d.Text})
		}
	}
	return chunks
}
