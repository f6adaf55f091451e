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

func newNetHTTP(t *testing.T, cfg webclient.Config, hc *http.Client) *webclient.NetHTTPClient {
	t.Helper()
	client, err := webclient.NewNetHTTPClient(cfg, &testutil.DummyLogger{}, hc)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// ─── Do: real HTTP round-trip via httptest ──────────────────────────────

func TestNetHTTPClient_Get_ReturnsBodyAndHeaders(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>hello</html>")
	}))
	defer ts.Close()

	client := newNetHTTP(t, webclient.Config{}, ts.Client())
	resp, err := client.Get(context.Background(), ts.URL+"/page")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "<html>hello</html>" {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if resp.Headers.Get("Content-Type") != "text/html" {
		t.Errorf("expected content type header, got %q", resp.Headers.Get("Content-Type"))
	}
	if resp.Request == nil || resp.Request.URL != ts.URL+"/page" {
		t.Errorf("response should reference its request")
	}
}

func TestNetHTTPClient_Do_SendsBodyAndHeaders(t *testing.T) {
	t.Parallel()
	var gotBody, gotAuth, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	client := newNetHTTP(t, webclient.Config{UserAgent: "a11yscan-test"}, ts.Client())
	hdrs := http.Header{}
	hdrs.Set("Authorization", "Bearer token")

	resp, err := client.Do(context.Background(), &webclient.Request{
		Method:  "post",
		URL:     ts.URL,
		Headers: hdrs,
		Body:    []byte("payload"),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
	if gotBody != "payload" || gotAuth != "Bearer token" {
		t.Errorf("body/header not forwarded: body=%q auth=%q", gotBody, gotAuth)
	}
	if gotUA != "a11yscan-test" {
		t.Errorf("expected configured user agent, got %q", gotUA)
	}
}

func TestNetHTTPClient_Do_PropagatesStatusCode(t *testing.T) {
	t.Parallel()
	for _, code := range []int{200, 404, 500} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			t.Parallel()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
			}))
			defer ts.Close()

			client := newNetHTTP(t, webclient.Config{}, ts.Client())
			resp, err := client.Get(context.Background(), ts.URL)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if resp.StatusCode != code {
				t.Errorf("expected %d, got %d", code, resp.StatusCode)
			}
		})
	}
}

func TestNetHTTPClient_Do_Errors(t *testing.T) {
	t.Parallel()
	client := newNetHTTP(t, webclient.Config{}, &http.Client{Timeout: time.Second})

	if _, err := client.Do(context.Background(), nil); err == nil {
		t.Error("expected error for nil request")
	}
	if _, err := client.Get(context.Background(), "http://127.0.0.1:1"); err == nil {
		t.Error("expected error for refused connection")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Get(ctx, "http://127.0.0.1:1"); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestNewNetHTTPClient_NilLogger(t *testing.T) {
	t.Parallel()
	if _, err := webclient.NewNetHTTPClient(webclient.Config{}, nil, nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestNetHTTPClient_Do_LargeBody(t *testing.T) {
	t.Parallel()
	large := strings.Repeat("X", 1<<20)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, large)
	}))
	defer ts.Close()

	client := newNetHTTP(t, webclient.Config{}, ts.Client())
	resp, err := client.Get(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(resp.Body) != 1<<20 {
		t.Errorf("expected 1MiB body, got %d bytes", len(resp.Body))
	}
}
