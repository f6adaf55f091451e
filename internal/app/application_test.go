package app_test

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/raysh454/a11yscan/internal/app"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/scan"
	"github.com/raysh454/a11yscan/internal/testutil"
)

const site = "https://site.test"

func newTestApp(t *testing.T) *app.Application {
	t.Helper()
	engine := &testutil.DummyEngine{Results: map[string]*model.EngineResult{
		site + "/": {Violations: []model.RuleOutcome{{
			ID:      "image-alt",
			Impact:  "critical",
			HelpURL: "https://dequeuniversity.com/rules/axe/4.8/image-alt?application=axeAPI",
			Nodes:   []model.NodeResult{{HTML: "<img>"}},
		}}},
	}}
	return newTestAppWith(t, app.Components{
		WebClient: &testutil.DummyWebClient{},
		Crawler:   &testutil.DummyWebClient{Pages: map[string]string{site + "/": "<html><body>home</body></html>"}},
		Launcher:  &testutil.FakeLauncher{},
		Engine:    engine,
		Enricher:  &testutil.DummyEnricher{},
	})
}

func newTestAppWith(t *testing.T, comps app.Components) *app.Application {
	t.Helper()
	cfg := app.DefaultConfig()
	cfg.StoragePath = filepath.Join(t.TempDir(), "data", "a11yscan.db")
	cfg.ScheduleInterval = 0

	a, err := app.New(cfg, &testutil.DummyLogger{}, comps)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})
	return a
}

func TestApplication_CreateRunReport(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	ctx := context.Background()
	a.Start(ctx)

	id, err := a.Runner.CreateScan(ctx, scan.CreateScanInput{
		URL:       site,
		Guidance:  []string{"wcag2aa"},
		ProjectID: "p1",
		AuthorID:  "u1",
	})
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}

	job, err := a.Orch.StartRunJob(ctx, id, scan.RunOptions{})
	if err != nil {
		t.Fatalf("StartRunJob: %v", err)
	}
	for range job.Events {
	}
	if final := a.Orch.GetJob(job.ID); final.Status != app.JobDone {
		t.Fatalf("job = %+v", final)
	}

	rep, err := a.Reports.Generate(ctx, id, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(rep.Violations) != 1 || rep.Violations[0].ID != "image-alt" {
		t.Errorf("violations = %+v", rep.Violations)
	}
	if rep.BaseURL != site {
		t.Errorf("BaseURL = %q", rep.BaseURL)
	}
}

func TestApplication_CrawlUsesCrawlerClient(t *testing.T) {
	t.Parallel()
	docs := &testutil.DummyWebClient{}
	pages := &testutil.DummyWebClient{Pages: map[string]string{
		site + "/":      `<html><body><a href="/about">About</a></body></html>`,
		site + "/about": `<html><body>about</body></html>`,
	}}
	a := newTestAppWith(t, app.Components{
		WebClient: docs,
		Crawler:   pages,
		Launcher:  &testutil.FakeLauncher{},
		Engine:    &testutil.DummyEngine{},
		Enricher:  &testutil.DummyEnricher{},
	})
	ctx := context.Background()

	id, err := a.Runner.CreateScan(ctx, scan.CreateScanInput{
		URL:       site,
		Guidance:  []string{"wcag2aa"},
		Depth:     1,
		ProjectID: "p1",
		AuthorID:  "u1",
	})
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	req, err := a.Store.GetScanRequest(ctx, id)
	if err != nil {
		t.Fatalf("GetScanRequest: %v", err)
	}
	if len(req.URLs) != 2 {
		t.Errorf("URLs = %v", req.URLs)
	}

	if got := pages.Fetched(); !slices.Contains(got, site+"/about") {
		t.Errorf("crawler fetched %v, want the linked page", got)
	}
	if got := docs.Fetched(); len(got) != 0 {
		t.Errorf("documentation client used for crawling: %v", got)
	}
	if a.Crawler != pages {
		t.Errorf("Crawler = %T, want the supplied client", a.Crawler)
	}
}

func TestApplication_DefaultCrawlerIsLazy(t *testing.T) {
	t.Parallel()
	// No Crawler component: the chromedp crawler from the default config
	// must not need a browser until a crawl happens.
	a := newTestAppWith(t, app.Components{
		WebClient: &testutil.DummyWebClient{},
		Launcher:  &testutil.FakeLauncher{},
		Engine:    &testutil.DummyEngine{},
		Enricher:  &testutil.DummyEnricher{},
	})
	if a.Crawler == nil || a.Crawler == a.WebClient {
		t.Fatalf("Crawler = %v, want a separate client", a.Crawler)
	}
}

func TestApplication_NilLogger(t *testing.T) {
	t.Parallel()
	if _, err := app.New(nil, nil, app.Components{}); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
