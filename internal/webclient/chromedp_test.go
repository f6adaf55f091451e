package webclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/a11yscan/internal/testutil"
	"github.com/raysh454/a11yscan/internal/webclient"
)

func chromeConfig() webclient.Config {
	cfg := webclient.DefaultConfig()
	cfg.Client = webclient.ClientChromedp
	cfg.Timeout = 20 * time.Second
	cfg.IdleAfter = 200 * time.Millisecond
	return cfg
}

func TestChromedpClient_DoRejectsNonGET(t *testing.T) {
	t.Parallel()
	client, err := webclient.NewChromedpClient(chromeConfig(), &testutil.DummyLogger{})
	if err != nil {
		t.Skipf("Skipping chromedp test (environment does not support chromedp): %v", err)
	}
	defer client.Close()

	_, err = client.Do(context.Background(), &webclient.Request{Method: "POST", URL: "http://example.com"})
	if err == nil || !strings.Contains(err.Error(), "GET only") {
		t.Fatalf("expected GET-only error, got %v", err)
	}
}

func TestChromedpClient_RendersScriptLinks(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><body><script>
			const a = document.createElement('a'); a.href = '/rendered'; document.body.appendChild(a);
		</script></body></html>`)
	}))
	defer ts.Close()

	client, err := webclient.NewChromedpClient(chromeConfig(), &testutil.DummyLogger{})
	if err != nil {
		t.Skipf("Skipping chromedp test (environment does not support chromedp): %v", err)
	}
	defer client.Close()

	resp, err := client.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(string(resp.Body), `href="/rendered"`) {
		t.Errorf("expected script-inserted link in rendered DOM: %s", resp.Body)
	}
}

const loginFixture = `<html><body>
<form id="login" action="/welcome" method="get">
  <input id="user" name="user">
  <select name="role"><option value="viewer">Viewer</option><option value="admin">Admin</option></select>
  <button id="go" type="submit">Sign in</button>
</form>
<a id="plain" href="#" onclick="document.body.dataset.clicked='yes'; return false;">plain</a>
</body></html>`

func TestChromedpPage_FormInteraction(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, loginFixture)
	})
	mux.HandleFunc("/welcome", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html><body>hi "+r.URL.Query().Get("user")+" as "+r.URL.Query().Get("role")+"</body></html>")
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	ctx := context.Background()
	launcher := webclient.NewChromedpLauncher(chromeConfig(), &testutil.DummyLogger{})
	session, err := launcher.Launch(ctx)
	if err != nil {
		t.Skipf("Skipping chromedp test (environment does not support chromedp): %v", err)
	}
	defer session.Close()

	page, err := session.NewPage(ctx)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	desktop, _ := webclient.DevicePreset("Desktop")
	if err := page.Emulate(ctx, desktop); err != nil {
		t.Fatalf("Emulate: %v", err)
	}
	if err := page.Navigate(ctx, ts.URL+"/login", 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	user := webclient.Selector{Query: "#user"}
	if err := page.WaitReady(ctx, user, time.Second); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	if err := page.Type(ctx, user, "ada"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if err := page.SelectOption(ctx, webclient.Selector{Query: `[name="role"]`}, "admin"); err != nil {
		t.Fatalf("SelectOption: %v", err)
	}

	button := webclient.Selector{Query: "//button[@id='go']", XPath: true}
	inForm, err := page.InForm(ctx, button)
	if err != nil || !inForm {
		t.Fatalf("InForm = %v, %v", inForm, err)
	}

	wait := page.ExpectNavigation(ctx)
	if err := page.SubmitForm(ctx, button); err != nil {
		t.Fatalf("SubmitForm: %v", err)
	}
	if err := wait(5 * time.Second); err != nil {
		t.Fatalf("navigation: %v", err)
	}

	loc, err := page.Location(ctx)
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if !strings.Contains(loc, "/welcome?user=ada&role=admin") {
		t.Errorf("unexpected location %q", loc)
	}

	if err := page.WaitReady(ctx, webclient.Selector{Query: "#missing"}, 200*time.Millisecond); err == nil ||
		!strings.Contains(err.Error(), "timeout waiting for selector: #missing") {
		t.Errorf("expected selector timeout, got %v", err)
	}
}
