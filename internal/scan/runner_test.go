package scan_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/scan"
	"github.com/raysh454/a11yscan/internal/store"
	"github.com/raysh454/a11yscan/internal/testutil"
)

const site = "https://site.test"

type fixture struct {
	store    *store.SQLiteStore
	launcher *testutil.FakeLauncher
	page     *testutil.FakePage
	engine   *testutil.DummyEngine
	logger   *testutil.DummyLogger
	runner   *scan.Runner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "a11yscan.db"), &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	f := &fixture{
		store:  s,
		page:   &testutil.FakePage{},
		engine: &testutil.DummyEngine{},
		logger: &testutil.DummyLogger{},
	}
	f.launcher = &testutil.FakeLauncher{Page: f.page}
	f.runner, err = scan.NewRunner(scan.DefaultConfig(), scan.Deps{
		Scans:    s,
		Devices:  scan.NewDeviceResolver(s),
		Launcher: f.launcher,
		Engine:   f.engine,
		Crawl:    &testutil.DummyWebClient{Pages: map[string]string{site + "/": "<html><body>home</body></html>"}},
	}, f.logger)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return f
}

// seed stores a request without crawling.
func (f *fixture) seed(t *testing.T, req *model.ScanRequest) *model.ScanRequest {
	t.Helper()
	if req.Guidance == nil {
		req.Guidance = []string{"wcag2aa"}
	}
	if req.ProjectID == "" {
		req.ProjectID = "p1"
	}
	if req.AuthorID == "" {
		req.AuthorID = "u1"
	}
	if err := f.store.CreateScanRequest(context.Background(), req); err != nil {
		t.Fatalf("CreateScanRequest: %v", err)
	}
	return req
}

func (f *fixture) results(t *testing.T, id string) []model.ScanResult {
	t.Helper()
	res, err := f.store.ListScanResults(context.Background(), id)
	if err != nil {
		t.Fatalf("ListScanResults: %v", err)
	}
	return res
}

func urlsOf(rs []model.ScanResult) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.URL)
	}
	return out
}

// ─── Create + run ──────────────────────────────────────────────────────

func TestCreateAndRun_SinglePageSite(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.runner.CreateScan(ctx, scan.CreateScanInput{
		URL: site, Guidance: []string{"wcag2a", "wcag2aa"}, Depth: 0,
		Name: "home", ProjectID: "p1", AuthorID: "u1",
	})
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	req, err := f.store.GetScanRequest(ctx, id)
	if err != nil {
		t.Fatalf("GetScanRequest: %v", err)
	}
	if !reflect.DeepEqual(req.URLs, []string{site + "/"}) || req.Status != model.ScanIncomplete {
		t.Fatalf("request = %+v", req)
	}

	msg, err := f.runner.RunScan(ctx, id, scan.RunOptions{})
	if err != nil {
		t.Fatalf("RunScan: %v", err)
	}
	if msg != "scan request "+id+" completed successfully" {
		t.Errorf("message = %q", msg)
	}

	rs := f.results(t, id)
	if len(rs) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(rs))
	}
	if rs[0].ScanRequestID != id || rs[0].ProjectID != "p1" || rs[0].AuthorID != "u1" {
		t.Errorf("result ids = %+v", rs[0])
	}
	if rs[0].Score != 100 {
		t.Errorf("page score = %v", rs[0].Score)
	}
	if !reflect.DeepEqual(f.engine.Tags[0], []string{"wcag2a", "wcag2aa"}) {
		t.Errorf("engine tags = %v", f.engine.Tags)
	}

	req, _ = f.store.GetScanRequest(ctx, id)
	if req.Status != model.ScanComplete || req.Score == nil || *req.Score != 100 {
		t.Errorf("request after run = %+v", req)
	}
	if len(f.launcher.Sessions) != 1 || !f.launcher.AllClosed() {
		t.Errorf("expected one closed session, got %d (closed=%v)", len(f.launcher.Sessions), f.launcher.AllClosed())
	}
	if got := f.page.ActionLog(); got[0] != "emulate:Desktop" {
		t.Errorf("first action = %q", got[0])
	}
}

func TestRunScan_AggregateScoreFromTotals(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	pass := model.RuleOutcome{ID: "document-title"}
	fail := model.RuleOutcome{ID: "image-alt", Impact: "critical"}
	f.engine.Results = map[string]*model.EngineResult{
		site + "/a": {Passes: []model.RuleOutcome{pass, pass, pass}, Violations: []model.RuleOutcome{fail}},
		site + "/b": {Passes: []model.RuleOutcome{pass}},
	}
	req := f.seed(t, &model.ScanRequest{URL: site + "/", URLs: []string{site + "/a", site + "/b"}})

	if _, err := f.runner.RunScan(context.Background(), req.ID, scan.RunOptions{}); err != nil {
		t.Fatalf("RunScan: %v", err)
	}
	rs := f.results(t, req.ID)
	if len(rs) != 2 || rs[0].Score != 75 || rs[1].Score != 100 {
		t.Fatalf("results = %+v", rs)
	}
	got, _ := f.store.GetScanRequest(context.Background(), req.ID)
	if got.Score == nil || *got.Score != 80 {
		t.Errorf("aggregate score = %v, want 80", got.Score)
	}
}

func TestRunScan_OptionsOverrideRequest(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	req := f.seed(t, &model.ScanRequest{URL: site + "/", URLs: []string{site + "/a", site + "/b"}})

	var progress []scan.Progress
	_, err := f.runner.RunScan(context.Background(), req.ID, scan.RunOptions{
		URLs:     []string{site + "/c"},
		Device:   "iphone x",
		AuthorID: "u9",
		Progress: func(p scan.Progress) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("RunScan: %v", err)
	}
	rs := f.results(t, req.ID)
	if !reflect.DeepEqual(urlsOf(rs), []string{site + "/c"}) || rs[0].AuthorID != "u9" {
		t.Fatalf("results = %+v", rs)
	}
	if f.page.ActionLog()[0] != "emulate:iPhone X" {
		t.Errorf("device not applied: %v", f.page.ActionLog())
	}
	if len(progress) != 1 || progress[0].Processed != 1 || progress[0].Total != 1 {
		t.Errorf("progress = %+v", progress)
	}
}

// ─── Steps ─────────────────────────────────────────────────────────────

func loginSteps() []model.Step {
	return []model.Step{
		{URL: site + "/login", Strategy: model.StrategyID, Selector: "user", Action: model.ActionInputText, Input: "ada", Active: true},
		{Strategy: model.StrategyCSS, Selector: "form button", Action: model.ActionClick, Active: true},
	}
}

func TestRunScan_StepsPrependLandingPage(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.page.Forms = map[string]bool{"form button": true}
	f.page.SubmitTo = map[string]string{"form button": site + "/dashboard"}
	req := f.seed(t, &model.ScanRequest{
		URL:   site + "/login",
		URLs:  []string{site + "/", site + "/about"},
		Steps: loginSteps(),
	})

	if _, err := f.runner.RunScan(context.Background(), req.ID, scan.RunOptions{}); err != nil {
		t.Fatalf("RunScan: %v", err)
	}
	want := []string{site + "/dashboard", site + "/", site + "/about"}
	if got := urlsOf(f.results(t, req.ID)); !reflect.DeepEqual(got, want) {
		t.Errorf("scanned %v, want %v", got, want)
	}
	if len(f.launcher.Sessions) != 1 {
		t.Errorf("steps and scan must share one session, got %d", len(f.launcher.Sessions))
	}
}

func TestRunScan_LandingPageAlreadyListed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.page.Forms = map[string]bool{"form button": true}
	f.page.SubmitTo = map[string]string{"form button": site + "/"}
	req := f.seed(t, &model.ScanRequest{URL: site + "/login", URLs: []string{site, site + "/about"}, Steps: loginSteps()})

	if _, err := f.runner.RunScan(context.Background(), req.ID, scan.RunOptions{}); err != nil {
		t.Fatalf("RunScan: %v", err)
	}
	if got := urlsOf(f.results(t, req.ID)); !reflect.DeepEqual(got, []string{site, site + "/about"}) {
		t.Errorf("scanned %v", got)
	}
}

func TestRunScan_StepFailureIsFatal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.page.Missing = map[string]bool{"#user": true}
	req := f.seed(t, &model.ScanRequest{URL: site + "/login", URLs: []string{site + "/"}, Steps: loginSteps()})

	_, err := f.runner.RunScan(context.Background(), req.ID, scan.RunOptions{})
	if !errors.Is(err, model.ErrStepExecution) {
		t.Fatalf("expected ErrStepExecution, got %v", err)
	}
	if !strings.Contains(err.Error(), req.ID) {
		t.Errorf("error should name the request: %v", err)
	}
	if len(f.results(t, req.ID)) != 0 {
		t.Error("no page should be scanned after a step failure")
	}
	if !f.launcher.AllClosed() {
		t.Error("session leaked")
	}
}

// ─── Failures ──────────────────────────────────────────────────────────

func TestRunScan_NavigationFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.page.NavigateErr = map[string]error{site + "/broken": errors.New("net::ERR_ABORTED")}
	req := f.seed(t, &model.ScanRequest{URL: site + "/", URLs: []string{site + "/", site + "/broken"}})

	if _, err := f.runner.RunScan(context.Background(), req.ID, scan.RunOptions{}); err != nil {
		t.Fatalf("RunScan: %v", err)
	}
	if got := urlsOf(f.results(t, req.ID)); !reflect.DeepEqual(got, []string{site + "/", site + "/broken"}) {
		t.Errorf("scanned %v", got)
	}
	if f.logger.WarnCount() != 1 {
		t.Errorf("expected one navigation warning, got %d", f.logger.WarnCount())
	}
}

func TestRunScan_EngineFailureKeepsEarlierRows(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	boom := errors.New("axe crashed")
	f.engine.FailURL = map[string]error{site + "/b": boom}
	req := f.seed(t, &model.ScanRequest{URL: site + "/", URLs: []string{site + "/a", site + "/b", site + "/c"}})

	if _, err := f.runner.RunScan(context.Background(), req.ID, scan.RunOptions{}); !errors.Is(err, boom) {
		t.Fatalf("expected engine error, got %v", err)
	}
	if got := urlsOf(f.results(t, req.ID)); !reflect.DeepEqual(got, []string{site + "/a"}) {
		t.Errorf("persisted %v", got)
	}
	got, _ := f.store.GetScanRequest(context.Background(), req.ID)
	if got.Status != model.ScanIncomplete {
		t.Errorf("status = %s", got.Status)
	}
	if !f.launcher.AllClosed() {
		t.Error("session leaked")
	}
}

func TestRunScan_UnknownDeviceFailsBeforeLaunch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	req := f.seed(t, &model.ScanRequest{URL: site + "/", URLs: []string{site + "/"}, Device: "Nokia 3310"})

	if _, err := f.runner.RunScan(context.Background(), req.ID, scan.RunOptions{}); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(f.launcher.Sessions) != 0 {
		t.Error("browser launched for an invalid device")
	}
}

func TestRunScan_UnknownRequest(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	if _, err := f.runner.RunScan(context.Background(), "missing", scan.RunOptions{}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunScan_LaunchFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.launcher.LaunchErr = errors.New("chrome not found")
	req := f.seed(t, &model.ScanRequest{URL: site + "/", URLs: []string{site + "/"}})
	if _, err := f.runner.RunScan(context.Background(), req.ID, scan.RunOptions{}); err == nil {
		t.Fatal("expected launch error")
	}
}

// ─── Create validation ─────────────────────────────────────────────────

func TestCreateScan_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	valid := scan.CreateScanInput{URL: site, Guidance: []string{"wcag2aa"}, ProjectID: "p1"}
	tests := []struct {
		name   string
		mutate func(*scan.CreateScanInput)
	}{
		{"missing url", func(in *scan.CreateScanInput) { in.URL = "" }},
		{"relative url", func(in *scan.CreateScanInput) { in.URL = "/about" }},
		{"ftp url", func(in *scan.CreateScanInput) { in.URL = "ftp://site.test" }},
		{"no guidance", func(in *scan.CreateScanInput) { in.Guidance = nil }},
		{"no project", func(in *scan.CreateScanInput) { in.ProjectID = " " }},
		{"unknown device", func(in *scan.CreateScanInput) { in.Device = "toaster" }},
		{"bad step", func(in *scan.CreateScanInput) {
			in.Steps = []model.Step{{Strategy: "shadow", Selector: "x", Action: model.ActionClick, Active: true}}
		}},
	}
	for _, tt := range tests {
		in := valid
		tt.mutate(&in)
		if _, err := f.runner.CreateScan(context.Background(), in); !errors.Is(err, model.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tt.name, err)
		}
	}
}

func TestCreateScan_NegativeDepthClamped(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id, err := f.runner.CreateScan(context.Background(), scan.CreateScanInput{
		URL: site, Guidance: []string{"wcag2aa"}, ProjectID: "p1", Depth: -3,
	})
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	req, _ := f.store.GetScanRequest(context.Background(), id)
	if req.Depth != 0 {
		t.Errorf("depth = %d", req.Depth)
	}
}

// ─── Scheduling ────────────────────────────────────────────────────────

func TestScheduleAndRunExpired(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	due := f.seed(t, &model.ScanRequest{URL: site + "/", URLs: []string{site + "/"}})
	later := f.seed(t, &model.ScanRequest{URL: site + "/", URLs: []string{site + "/later"}})

	msg, err := f.runner.ScheduleScan(ctx, time.Now().Add(-time.Minute), due.ID, "u1")
	if err != nil {
		t.Fatalf("ScheduleScan: %v", err)
	}
	if msg != "scan request "+due.ID+" scheduled successfully" {
		t.Errorf("message = %q", msg)
	}
	if _, err := f.runner.ScheduleScan(ctx, time.Now().Add(time.Hour), later.ID, "u1"); err != nil {
		t.Fatalf("ScheduleScan: %v", err)
	}

	if err := f.runner.RunExpiredScans(ctx); err != nil {
		t.Fatalf("RunExpiredScans: %v", err)
	}
	if len(f.results(t, due.ID)) != 1 {
		t.Error("due scan did not run")
	}
	if len(f.results(t, later.ID)) != 0 {
		t.Error("future scan ran early")
	}
	got, _ := f.store.GetScanRequest(ctx, due.ID)
	if got.ScheduledTime != nil {
		t.Errorf("schedule not cleared: %v", got.ScheduledTime)
	}

	if err := f.runner.RunExpiredScans(ctx); err != nil {
		t.Fatalf("second RunExpiredScans: %v", err)
	}
	if len(f.results(t, due.ID)) != 1 {
		t.Error("cleared schedule fired twice")
	}
}

func TestRunExpiredScans_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	bad := f.seed(t, &model.ScanRequest{URL: site + "/", URLs: []string{site + "/"}, Device: "toaster"})
	good := f.seed(t, &model.ScanRequest{URL: site + "/", URLs: []string{site + "/ok"}})
	for i, id := range []string{bad.ID, good.ID} {
		if _, err := f.runner.ScheduleScan(ctx, time.Now().Add(-time.Duration(10-i)*time.Minute), id, "u1"); err != nil {
			t.Fatalf("ScheduleScan: %v", err)
		}
	}

	if err := f.runner.RunExpiredScans(ctx); err != nil {
		t.Fatalf("RunExpiredScans: %v", err)
	}
	if len(f.results(t, good.ID)) != 1 {
		t.Error("a failing schedule blocked the next one")
	}
	if len(f.logger.Errors) != 1 {
		t.Errorf("expected one logged failure, got %v", f.logger.Errors)
	}
}

func TestScheduleScan_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	if _, err := f.runner.ScheduleScan(context.Background(), time.Time{}, "x", "u1"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for zero time, got %v", err)
	}
	if _, err := f.runner.ScheduleScan(context.Background(), time.Now(), "missing", "u1"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateScan(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	req := f.seed(t, &model.ScanRequest{URL: site, URLs: []string{site + "/"}})
	ctx := context.Background()

	name, device, depth := "renamed", "iphone x", -1
	got, err := f.runner.UpdateScan(ctx, req.ID, model.ScanRequestUpdate{Name: &name, Device: &device, Depth: &depth})
	if err != nil {
		t.Fatalf("UpdateScan: %v", err)
	}
	if got.Name != "renamed" || got.Device != "iphone x" || got.Depth != 0 {
		t.Errorf("updated = %+v", got)
	}
	if !reflect.DeepEqual(got.URLs, []string{site + "/"}) {
		t.Errorf("page set changed: %v", got.URLs)
	}

	bad := []model.Step{{Action: "Hover"}}
	if _, err := f.runner.UpdateScan(ctx, req.ID, model.ScanRequestUpdate{Steps: &bad}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("bad steps: expected ErrValidation, got %v", err)
	}
	unknown := "gameboy"
	if _, err := f.runner.UpdateScan(ctx, req.ID, model.ScanRequestUpdate{Device: &unknown}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("unknown device: expected ErrValidation, got %v", err)
	}
	if _, err := f.runner.UpdateScan(ctx, "missing", model.ScanRequestUpdate{Name: &name}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
}
