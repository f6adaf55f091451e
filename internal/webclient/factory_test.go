package webclient_test

import (
	"slices"
	"testing"

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/testutil"
	"github.com/raysh454/a11yscan/internal/webclient"
)

func TestNewWebClient_DefaultBackend(t *testing.T) {
	t.Parallel()
	client, err := webclient.NewWebClient(webclient.Config{}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewWebClient: %v", err)
	}
	defer client.Close()

	if _, ok := client.(*webclient.NetHTTPClient); !ok {
		t.Errorf("expected nethttp client, got %T", client)
	}
}

func TestNewWebClient_UnknownBackend(t *testing.T) {
	t.Parallel()
	client, err := webclient.NewWebClient(webclient.Config{Client: "carrier-pigeon"}, &testutil.DummyLogger{})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if client != nil {
		t.Fatal("expected nil client for unknown backend")
	}
}

func TestNewWebClient_ChromeDP(t *testing.T) {
	t.Parallel()
	client, err := webclient.NewWebClient(webclient.Config{Client: webclient.ClientChromedp}, &testutil.DummyLogger{})
	if err != nil {
		t.Skipf("Skipping chromedp test (environment does not support chromedp): %v", err)
	}
	defer client.Close()
}

func TestRegisterBackend_CustomBackend(t *testing.T) {
	t.Parallel()
	webclient.RegisterBackend("Dummy-Test", func(_ webclient.Config, _ logging.Logger) (webclient.WebClient, error) {
		return &testutil.DummyWebClient{}, nil
	})

	if !slices.Contains(webclient.ListBackends(), "dummy-test") {
		t.Fatalf("expected lower-cased backend in %v", webclient.ListBackends())
	}
	client, err := webclient.NewWebClient(webclient.Config{Client: "DUMMY-TEST"}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewWebClient: %v", err)
	}
	if _, ok := client.(*testutil.DummyWebClient); !ok {
		t.Errorf("expected dummy client, got %T", client)
	}
}
