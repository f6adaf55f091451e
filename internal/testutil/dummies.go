// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/webclient"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnCount returns how many warnings were logged so far.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// ─── WebClient ─────────────────────────────────────────────────────────

// DummyWebClient implements webclient.WebClient.
// Pages maps a URL to the HTML served for it; unknown URLs get a 404.
// Set FailURLs[url] = true to force an error for a specific URL.
type DummyWebClient struct {
	Pages    map[string]string
	FailURLs map[string]bool

	mu       sync.Mutex
	Requests []string
}

func (d *DummyWebClient) Do(ctx context.Context, req *webclient.Request) (*webclient.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.Requests = append(d.Requests, req.URL)
	d.mu.Unlock()

	if d.FailURLs[req.URL] {
		return nil, fmt.Errorf("dummy fetch fail for %s", req.URL)
	}

	body, ok := d.Pages[req.URL]
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	return &webclient.Response{
		Request:    req,
		Headers:    http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:       []byte(body),
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

func (d *DummyWebClient) Get(ctx context.Context, url string) (*webclient.Response, error) {
	return d.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: url})
}

func (d *DummyWebClient) Close() error { return nil }

// Fetched returns a copy of the URLs requested so far, in order.
func (d *DummyWebClient) Fetched() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.Requests...)
}

// ─── Browser ───────────────────────────────────────────────────────────

// FakeLauncher implements webclient.Launcher and hands out sessions backed
// by a shared FakePage.
type FakeLauncher struct {
	Page      *FakePage
	LaunchErr error

	mu       sync.Mutex
	Sessions []*FakeSession
}

func (l *FakeLauncher) Launch(ctx context.Context) (webclient.Session, error) {
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	if l.Page == nil {
		l.Page = &FakePage{}
	}
	s := &FakeSession{page: l.Page}
	l.mu.Lock()
	l.Sessions = append(l.Sessions, s)
	l.mu.Unlock()
	return s, nil
}

// AllClosed reports whether every launched session was closed.
func (l *FakeLauncher) AllClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.Sessions {
		if !s.Closed() {
			return false
		}
	}
	return true
}

type FakeSession struct {
	page   *FakePage
	mu     sync.Mutex
	closed bool
}

func (s *FakeSession) NewPage(ctx context.Context) (webclient.Page, error) {
	return s.page, nil
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FakePage implements webclient.Page by recording every call in Actions.
//
// Missing selectors time out, selectors listed in Forms sit inside a form,
// SubmitTo/ClickTo move the page to a new URL and NavigateErr fails
// navigation to a URL.
type FakePage struct {
	Missing     map[string]bool
	Forms       map[string]bool
	SubmitTo    map[string]string
	ClickTo     map[string]string
	NavigateErr map[string]error

	// EvaluateFunc answers Evaluate calls; nil makes Evaluate a no-op.
	EvaluateFunc func(location, expr string, out any) error

	mu       sync.Mutex
	location string
	pending  bool
	Actions  []string
}

func (p *FakePage) record(format string, args ...any) {
	p.Actions = append(p.Actions, fmt.Sprintf(format, args...))
}

// ActionLog returns a copy of the recorded calls.
func (p *FakePage) ActionLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Actions...)
}

// SetLocation places the page at url without recording a navigation.
func (p *FakePage) SetLocation(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.location = url
}

func (p *FakePage) Emulate(ctx context.Context, d model.DeviceProfile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("emulate:%s", d.Name)
	return nil
}

func (p *FakePage) Navigate(ctx context.Context, url string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("navigate:%s", url)
	if err := p.NavigateErr[url]; err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrNavigation, url, err)
	}
	p.location = url
	return nil
}

func (p *FakePage) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location, nil
}

func (p *FakePage) Content(ctx context.Context) (string, error) {
	return "<html></html>", nil
}

func (p *FakePage) WaitReady(ctx context.Context, sel webclient.Selector, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("wait:%s", sel.Query)
	if p.Missing[sel.Query] {
		return fmt.Errorf("timeout waiting for selector: %s", sel.Query)
	}
	return nil
}

func (p *FakePage) Click(ctx context.Context, sel webclient.Selector) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("click:%s", sel.Query)
	if to, ok := p.ClickTo[sel.Query]; ok {
		p.location = to
		p.pending = true
	}
	return nil
}

func (p *FakePage) InForm(ctx context.Context, sel webclient.Selector) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Forms[sel.Query], nil
}

func (p *FakePage) SubmitForm(ctx context.Context, sel webclient.Selector) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.Forms[sel.Query] {
		return errors.New("element is not inside a form")
	}
	p.record("submit:%s", sel.Query)
	if to, ok := p.SubmitTo[sel.Query]; ok {
		p.location = to
		p.pending = true
	}
	return nil
}

func (p *FakePage) Type(ctx context.Context, sel webclient.Selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("type:%s=%s", sel.Query, text)
	return nil
}

func (p *FakePage) SelectOption(ctx context.Context, sel webclient.Selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("select:%s=%s", sel.Query, value)
	return nil
}

func (p *FakePage) SetValue(ctx context.Context, sel webclient.Selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("setvalue:%s=%s", sel.Query, value)
	return nil
}

func (p *FakePage) ExpectNavigation(ctx context.Context) func(time.Duration) error {
	p.mu.Lock()
	p.pending = false
	p.mu.Unlock()
	return func(timeout time.Duration) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		if !p.pending {
			return fmt.Errorf("no navigation within %s", timeout)
		}
		p.pending = false
		return nil
	}
}

func (p *FakePage) Evaluate(ctx context.Context, expr string, out any) error {
	p.mu.Lock()
	loc := p.location
	fn := p.EvaluateFunc
	p.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(loc, expr, out)
}

func (p *FakePage) Close() error { return nil }

// Navigations returns the URLs navigated to, in order.
func (p *FakePage) Navigations() []string {
	var out []string
	for _, a := range p.ActionLog() {
		if url, ok := strings.CutPrefix(a, "navigate:"); ok {
			out = append(out, url)
		}
	}
	return out
}

// ─── Engine ────────────────────────────────────────────────────────────

// DummyEngine returns canned results per page URL. Pages not listed get one
// passing rule and no violations.
type DummyEngine struct {
	Results map[string]*model.EngineResult
	FailURL map[string]error

	mu    sync.Mutex
	Calls []string
	Tags  [][]string
}

func (e *DummyEngine) Analyze(ctx context.Context, page webclient.Page, tags []string) (*model.EngineResult, error) {
	loc, err := page.Location(ctx)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.Calls = append(e.Calls, loc)
	e.Tags = append(e.Tags, append([]string(nil), tags...))
	e.mu.Unlock()

	if err := e.FailURL[loc]; err != nil {
		return nil, err
	}
	if r, ok := e.Results[loc]; ok {
		cp := *r
		cp.URL = loc
		return &cp, nil
	}
	return &model.EngineResult{
		URL:    loc,
		Passes: []model.RuleOutcome{{ID: "document-title", Impact: "", Tags: tags}},
	}, nil
}

// ─── Enricher ──────────────────────────────────────────────────────────

// DummyEnricher returns Details for every help URL unless it is listed in
// Fail.
type DummyEnricher struct {
	Details *model.RuleDetails
	Fail    map[string]bool
	Delay   time.Duration

	mu    sync.Mutex
	Calls []string
}

func (e *DummyEnricher) Fetch(ctx context.Context, helpURL string) (*model.RuleDetails, error) {
	if e.Delay > 0 {
		select {
		case <-time.After(e.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e.mu.Lock()
	e.Calls = append(e.Calls, helpURL)
	e.mu.Unlock()

	if e.Fail[helpURL] {
		return nil, fmt.Errorf("%w: dummy failure for %s", model.ErrEnrichment, helpURL)
	}
	if e.Details != nil {
		cp := *e.Details
		return &cp, nil
	}
	return &model.RuleDetails{
		DisabilitiesAffected: []string{"Blind"},
		WhyItMatters:         "why",
		HowToFix:             "fix",
		SuccessCriteria:      []string{"1.1.1"},
	}, nil
}

// CallCount returns how many fetches were made.
func (e *DummyEnricher) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Calls)
}
