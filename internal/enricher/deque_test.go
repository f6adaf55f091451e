package enricher_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/raysh454/a11yscan/internal/enricher"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/testutil"
	"github.com/raysh454/a11yscan/internal/webclient"
)

const imageAltPage = `<html><body>
<div class="m-card-body next-card"><ul><li>ignored</li></ul></div>
<div class="m-card-body next-card">
  <ul><li>Rule ID: image-alt</li></ul>
  <ul><li>User Impact: Critical</li></ul>
  <ul><li>WCAG 2.1 (A): 1.1.1 Non-text Content</li><li>Section 508</li></ul>
</div>
<section class="whyImportant"><div class="howToFixData">
  <p>Screen readers have no way of
     translating an image into words.</p>
  <p>second paragraph</p>
</div></section>
<div class="disabilityTypesAffectedData"><ul>
  <li> Blind </li><li>Deafblind</li><li></li>
</ul></div>
<section class="howToFix"><div class="howToFixData">
  <p>Add an alt attribute.</p><p>Keep it short.</p><p>Third is dropped.</p>
</div></section>
</body></html>`

func newDeque(t *testing.T, pages map[string]string) (*enricher.Deque, *testutil.DummyWebClient) {
	t.Helper()
	wc := &testutil.DummyWebClient{Pages: pages}
	d, err := enricher.NewDeque(wc, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewDeque: %v", err)
	}
	return d, wc
}

func TestDeque_ParsesRulePage(t *testing.T) {
	t.Parallel()
	url := enricher.RuleURL("", "image-alt")
	d, _ := newDeque(t, map[string]string{url: imageAltPage})

	got, err := d.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := &model.RuleDetails{
		DisabilitiesAffected: []string{"Blind", "Deafblind"},
		WhyItMatters:         "Screen readers have no way of translating an image into words.",
		HowToFix:             "Add an alt attribute.\n\nKeep it short.",
		SuccessCriteria:      []string{"WCAG 2.1 (A): 1.1.1 Non-text Content"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got  %#v\nwant %#v", got, want)
	}
}

func TestDeque_OptionalSectionsMissing(t *testing.T) {
	t.Parallel()
	url := enricher.RuleURL("https://docs.test/rules/", "blink")
	d, _ := newDeque(t, map[string]string{
		url: `<div class="disabilityTypesAffectedData"><li>Attention deficit</li></div>`,
	})

	got, err := d.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.HowToFix != "" || got.WhyItMatters != "" {
		t.Errorf("expected empty optional fields, got %+v", got)
	}
	if got.SuccessCriteria == nil || len(got.SuccessCriteria) != 0 {
		t.Errorf("success criteria = %#v", got.SuccessCriteria)
	}
}

func TestDeque_Failures(t *testing.T) {
	t.Parallel()
	ok := "https://docs.test/rules/ok"
	broken := "https://docs.test/rules/broken"
	down := "https://docs.test/rules/down"
	d, wc := newDeque(t, map[string]string{
		ok:     imageAltPage,
		broken: `<html><body>redesigned page</body></html>`,
	})
	wc.FailURLs = map[string]bool{down: true}

	for _, u := range []string{broken, down, "https://docs.test/rules/missing", " "} {
		if _, err := d.Fetch(context.Background(), u); !errors.Is(err, model.ErrEnrichment) {
			t.Errorf("Fetch(%q): expected ErrEnrichment, got %v", u, err)
		}
	}
}

func TestDeque_OverHTTP(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rules/axe/4.8/image-alt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, imageAltPage)
	}))
	defer srv.Close()

	logger := &testutil.DummyLogger{}
	wc, err := webclient.NewNetHTTPClient(webclient.Config{Timeout: 5 * time.Second}, logger, nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	defer wc.Close()
	d, err := enricher.NewDeque(wc, logger)
	if err != nil {
		t.Fatalf("NewDeque: %v", err)
	}

	got, err := d.Fetch(context.Background(), srv.URL+"/rules/axe/4.8/image-alt?application=axeAPI")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got.DisabilitiesAffected) != 2 {
		t.Errorf("disabilities = %v", got.DisabilitiesAffected)
	}
	if _, err := d.Fetch(context.Background(), srv.URL+"/rules/axe/4.8/nope"); !errors.Is(err, model.ErrEnrichment) {
		t.Errorf("expected ErrEnrichment for 404, got %v", err)
	}
}

func TestRuleURL(t *testing.T) {
	t.Parallel()
	if got := enricher.RuleURL("", "label"); got != "https://dequeuniversity.com/rules/axe/4.8/label" {
		t.Errorf("RuleURL default = %q", got)
	}
	if got := enricher.RuleURL("https://docs.test/x//", "label"); got != "https://docs.test/x/label" {
		t.Errorf("RuleURL custom = %q", got)
	}
}

func TestNewDeque_Validation(t *testing.T) {
	t.Parallel()
	if _, err := enricher.NewDeque(nil, &testutil.DummyLogger{}); err == nil {
		t.Error("expected error for nil web client")
	}
	if _, err := enricher.NewDeque(&testutil.DummyWebClient{}, nil); err == nil {
		t.Error("expected error for nil logger")
	}
}
