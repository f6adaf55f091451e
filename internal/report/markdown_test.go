package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/report"
)

func TestWriteMarkdown(t *testing.T) {
	t.Parallel()
	rep := &report.Report{
		AverageScore: 62.5,
		BaseURL:      site,
		Violations: []report.Violation{{
			RuleOutcome:     model.RuleOutcome{ID: "image-alt", Impact: "critical", Description: "Images need alt text"},
			Disabilities:    []string{"Blind"},
			WhyItMatters:    "Screen readers announce nothing.",
			HowToFix:        "Add an alt attribute.",
			SuccessCriteria: []string{"1.1.1"},
		}},
		ScanResults:       []model.ScanResult{{URL: site + "/"}, {URL: site + "/about"}},
		DisabilitiesStats: map[string]int{"Blind": 1},
		ImpactStats: []report.ImpactBucket{
			{Category: report.CategoryCritical, Value: 1, IDs: []string{"image-alt"}},
			{Category: report.CategorySerious},
			{Category: report.CategoryNeedsReview},
		},
		TableData: report.TableData{
			RuleToURLs: map[string][]string{"image-alt": {"/about"}},
			URLScores:  []report.URLScore{{URL: "/", Score: 100}, {URL: "/about", Score: 25}},
		},
	}

	var buf bytes.Buffer
	if err := report.WriteMarkdown(&buf, rep); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Accessibility Report",
		site,
		"62.5",
		"image-alt",
		"mermaid",
		"[!CAUTION]",
		"Blind: 1 rule(s)",
		"Add an alt attribute.",
		"/about",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
}

func TestWriteMarkdown_NoViolations(t *testing.T) {
	t.Parallel()
	rep := &report.Report{
		AverageScore: 100,
		BaseURL:      site,
		ImpactStats: []report.ImpactBucket{
			{Category: report.CategoryCritical},
			{Category: report.CategorySerious},
			{Category: report.CategoryNeedsReview},
		},
	}
	var buf bytes.Buffer
	if err := report.WriteMarkdown(&buf, rep); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "No violations found.") || !strings.Contains(out, "[!TIP]") {
		t.Errorf("unexpected markdown:\n%s", out)
	}
	if strings.Contains(out, "mermaid") {
		t.Error("empty report should not draw a chart")
	}
}
