package report_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/report"
	"github.com/raysh454/a11yscan/internal/testutil"
)

func withNodes(v model.RuleOutcome, html ...string) model.RuleOutcome {
	for _, h := range html {
		v.Nodes = append(v.Nodes, model.NodeResult{HTML: h})
	}
	return v
}

// ─── DiffResults ───────────────────────────────────────────────────────

func TestDiffResults_RuleChanges(t *testing.T) {
	t.Parallel()
	base := result("/", t0, 50,
		withNodes(violation("image-alt", "critical"), `<img src="a.png">`, `<img src="b.png">`),
		withNodes(violation("label", "critical"), `<input name="q">`),
	)
	head := result("/", t0.Add(time.Hour), 80,
		withNodes(violation("image-alt", "critical"), `<img src="b.png">`),
		withNodes(violation("color-contrast", "serious"), `<span>$10</span>`),
	)

	d := report.DiffResults(&base, &head)
	if d.Delta != 30 {
		t.Errorf("delta = %v, want 30", d.Delta)
	}

	byRule := make(map[string]report.RuleDelta)
	for _, rd := range d.RuleDeltas {
		byRule[rd.RuleID] = rd
	}
	if len(byRule) != 3 {
		t.Fatalf("rule deltas = %+v", d.RuleDeltas)
	}
	if rd := byRule["label"]; rd.Change != report.ChangeFixed || rd.Delta != -1 {
		t.Errorf("label = %+v", rd)
	}
	if rd := byRule["color-contrast"]; rd.Change != report.ChangeNew || rd.Impact != "serious" {
		t.Errorf("color-contrast = %+v", rd)
	}
	if rd := byRule["image-alt"]; rd.Change != report.ChangeChanged || rd.Base != 2 || rd.Head != 1 {
		t.Errorf("image-alt = %+v", rd)
	}

	var added, removed string
	for _, c := range d.Markup {
		switch c.Type {
		case "added":
			added += c.Content
		case "removed":
			removed += c.Content
		}
	}
	if !strings.Contains(added, "color-contrast: <span>$10</span>") {
		t.Errorf("added markup = %q", added)
	}
	if !strings.Contains(removed, `image-alt: <img src="a.png">`) || !strings.Contains(removed, "label: ") {
		t.Errorf("removed markup = %q", removed)
	}
	if strings.Contains(removed+added, "b.png") {
		t.Errorf("unchanged node reported: +%q -%q", added, removed)
	}
}

func TestDiffResults_NoBase(t *testing.T) {
	t.Parallel()
	head := result("/a", t0, 0, withNodes(violation("label", "critical"), `<input>`))

	d := report.DiffResults(nil, &head)
	if d.BaseID != "" || d.Delta != 0 {
		t.Errorf("delta = %+v", d)
	}
	if len(d.RuleDeltas) != 1 || d.RuleDeltas[0].Change != report.ChangeNew {
		t.Errorf("rule deltas = %+v", d.RuleDeltas)
	}
	if len(d.Markup) != 1 || d.Markup[0].Type != "added" {
		t.Errorf("markup = %+v", d.Markup)
	}
}

func TestDiffResults_IdenticalRuns(t *testing.T) {
	t.Parallel()
	v := withNodes(violation("label", "critical"), `<input>`)
	a := result("/", t0, 40, v)
	b := result("/", t0.Add(time.Minute), 40, v)

	d := report.DiffResults(&a, &b)
	if len(d.RuleDeltas) != 0 || len(d.Markup) != 0 {
		t.Errorf("expected no change, got %+v", d)
	}
}

// ─── Service.Compare ───────────────────────────────────────────────────

func TestService_Compare(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	svc, err := report.NewService(s, newAggregator(t, s, &testutil.DummyEnricher{}), &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	req := &model.ScanRequest{URL: site + "/", Guidance: []string{"wcag2aa"}, ProjectID: "p1", AuthorID: "owner", URLs: []string{site + "/"}}
	if err := s.CreateScanRequest(ctx, req); err != nil {
		t.Fatalf("CreateScanRequest: %v", err)
	}
	if _, err := svc.Compare(ctx, req.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without results, got %v", err)
	}

	rows := []model.ScanResult{
		result("/", t0, 50, withNodes(violation("image-alt", "critical"), `<img>`)),
		result("/b", t0, 100),
		result("/", t0.Add(2*time.Hour), 100),
		result("/b", t0.Add(time.Hour), 60, withNodes(violation("label", "critical"), `<input>`)),
		// older than both "/" rows above, must not become the base
		result("/", t0.Add(-time.Hour), 10),
	}
	for i := range rows {
		rows[i].ScanRequestID = req.ID
		if err := s.SaveScanResult(ctx, &rows[i]); err != nil {
			t.Fatalf("SaveScanResult: %v", err)
		}
	}

	cmp, err := svc.Compare(ctx, req.ID)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.Improved != 1 || cmp.Regressed != 1 || len(cmp.Pages) != 2 {
		t.Fatalf("comparison = %+v", cmp)
	}
	for _, p := range cmp.Pages {
		switch p.URL {
		case site + "/":
			if p.BaseScore != 50 || p.HeadScore != 100 {
				t.Errorf("/ = %+v", p)
			}
		case site + "/b":
			if p.Delta != -40 || len(p.RuleDeltas) != 1 || p.RuleDeltas[0].RuleID != "label" {
				t.Errorf("/b = %+v", p)
			}
		default:
			t.Errorf("unexpected page %s", p.URL)
		}
	}

	if _, err := svc.Compare(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown request, got %v", err)
	}
}
