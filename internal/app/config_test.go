package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/a11yscan/internal/webclient"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a11yscan.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if strings.HasPrefix(cfg.StoragePath, "~") {
		t.Errorf("storage path not expanded: %q", cfg.StoragePath)
	}
	if cfg.Browser.Client != webclient.ClientChromedp {
		t.Errorf("browser client = %q", cfg.Browser.Client)
	}
	if cfg.Crawler.Client != webclient.ClientChromedp {
		t.Errorf("crawler client = %q, want rendered pages", cfg.Crawler.Client)
	}
	if cfg.WebClient.Client != webclient.ClientNetHTTP {
		t.Errorf("web client = %q", cfg.WebClient.Client)
	}
}

func TestLoadConfig_CrawlClient(t *testing.T) {
	path := writeConfig(t, `
storage_path: "`+filepath.Join(t.TempDir(), "scan.db")+`"
crawler:
  client: nethttp
  timeout: 5s
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Crawler.Client != webclient.ClientNetHTTP || cfg.Crawler.Timeout != 5*time.Second {
		t.Errorf("crawler = %+v", cfg.Crawler)
	}

	t.Setenv("A11YSCAN_CRAWL_CLIENT", "chromedp")
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Crawler.Client != webclient.ClientChromedp {
		t.Errorf("env should win over yaml, got %q", cfg.Crawler.Client)
	}
	if cfg.WebClient.Client != webclient.ClientNetHTTP {
		t.Errorf("crawl override leaked into web_client: %q", cfg.WebClient.Client)
	}
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
listen_addr: ":9090"
storage_path: "`+filepath.Join(dir, "scan.db")+`"
schedule_interval: 5m
scan:
  run_timeout: 10m
log:
  level: debug
`)
	t.Setenv("A11YSCAN_LISTEN_ADDR", ":7070")
	t.Setenv("A11YSCAN_NAVIGATION_TIMEOUT", "15s")
	t.Setenv("A11YSCAN_HEADLESS", "false")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ListenAddr != ":7070" {
		t.Errorf("env should win over yaml, got %q", cfg.ListenAddr)
	}
	if cfg.ScheduleInterval != 5*time.Minute {
		t.Errorf("ScheduleInterval = %v", cfg.ScheduleInterval)
	}
	if cfg.Scan.RunTimeout != 10*time.Minute || cfg.Scan.NavigationTimeout != 15*time.Second {
		t.Errorf("scan config = %+v", cfg.Scan)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Browser.Headless {
		t.Error("expected headless disabled")
	}
	// Unset sections keep their defaults.
	if cfg.JobRetentionTime != 30*time.Minute {
		t.Errorf("JobRetentionTime = %v", cfg.JobRetentionTime)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfig(writeConfig(t, "listen_addr: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := LoadConfig(writeConfig(t, "web_client:\n  client: gopher\n")); err == nil {
		t.Error("expected unknown client error")
	}
	if _, err := LoadConfig(writeConfig(t, "crawler:\n  client: gopher\n")); err == nil {
		t.Error("expected unknown crawler client error")
	}

	t.Setenv("A11YSCAN_RUN_TIMEOUT", "soon")
	if _, err := LoadConfig(""); err == nil {
		t.Error("expected bad duration error")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := expandPath("~/data/a.db")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if got != filepath.Join(home, "data/a.db") {
		t.Errorf("expandPath = %q", got)
	}
	if got, _ := expandPath("/abs/a.db"); got != "/abs/a.db" {
		t.Errorf("absolute path changed: %q", got)
	}
}
