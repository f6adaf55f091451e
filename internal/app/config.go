package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/raysh454/a11yscan/internal/engine"
	"github.com/raysh454/a11yscan/internal/enricher"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/scan"
	"github.com/raysh454/a11yscan/internal/webclient"
)

// Config holds every runtime option. Each component keeps its own section.
type Config struct {
	// ListenAddr is where the HTTP API listens.
	ListenAddr string `yaml:"listen_addr"`

	// StoragePath is the SQLite database file.
	StoragePath string `yaml:"storage_path"`

	// WebClient fetches rule documentation and the axe script.
	WebClient webclient.Config `yaml:"web_client"`

	// Crawler fetches pages while discovering a site. It renders pages by
	// default so links added by scripts are followed.
	Crawler webclient.Config `yaml:"crawler"`

	// Browser drives scan runs.
	Browser webclient.Config `yaml:"browser"`

	Engine      engine.Config `yaml:"engine"`
	RuleDocsURL string        `yaml:"rule_docs_url"`
	Scan        scan.Config   `yaml:"scan"`

	// ScheduleInterval is how often due schedules are checked. Zero disables
	// the scheduler.
	ScheduleInterval time.Duration `yaml:"schedule_interval"`

	// JobRetentionTime is how long finished jobs stay queryable.
	JobRetentionTime time.Duration `yaml:"job_retention_time"`

	Log logging.Config `yaml:"log"`
}

const AppName = "a11yscan"

// DefaultConfigPath is the config file used when none is given, if it exists.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

func DefaultConfig() *Config {
	browser := webclient.DefaultConfig()
	browser.Client = webclient.ClientChromedp
	browser.Timeout = 60 * time.Second

	crawler := webclient.DefaultConfig()
	crawler.Client = webclient.ClientChromedp

	return &Config{
		ListenAddr:       ":8080",
		StoragePath:      filepath.Join(xdg.DataHome, AppName, AppName+".db"),
		WebClient:        webclient.DefaultConfig(),
		Crawler:          crawler,
		Browser:          browser,
		Engine:           engine.DefaultConfig(),
		RuleDocsURL:      enricher.DefaultBaseURL,
		Scan:             scan.DefaultConfig(),
		ScheduleInterval: time.Hour,
		JobRetentionTime: 30 * time.Minute,
		Log:              logging.DefaultConfig(),
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (when not empty), then .env files and A11YSCAN_* variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	p, err := expandPath(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("expanding storage path: %w", err)
	}
	cfg.StoragePath = p
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	setString("A11YSCAN_LISTEN_ADDR", &c.ListenAddr)
	setString("A11YSCAN_STORAGE_PATH", &c.StoragePath)
	setString("A11YSCAN_AXE_SCRIPT_PATH", &c.Engine.ScriptPath)
	setString("A11YSCAN_AXE_SCRIPT_URL", &c.Engine.ScriptURL)
	setString("A11YSCAN_RULE_DOCS_URL", &c.RuleDocsURL)
	setString("A11YSCAN_CHROME_PATH", &c.Browser.ExecPath)
	setString("A11YSCAN_CHROME_PATH", &c.Crawler.ExecPath)
	setString("A11YSCAN_LOG_LEVEL", &c.Log.Level)
	setString("A11YSCAN_LOG_FILE", &c.Log.File)

	var crawlClient string
	setString("A11YSCAN_CRAWL_CLIENT", &crawlClient)
	if crawlClient != "" {
		c.Crawler.Client = webclient.Client(crawlClient)
	}
	if v, ok := os.LookupEnv("A11YSCAN_HEADLESS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("A11YSCAN_HEADLESS: %w", err)
		}
		c.Browser.Headless = b
		c.Crawler.Headless = b
	}

	for key, dst := range map[string]*time.Duration{
		"A11YSCAN_RUN_TIMEOUT":        &c.Scan.RunTimeout,
		"A11YSCAN_NAVIGATION_TIMEOUT": &c.Scan.NavigationTimeout,
		"A11YSCAN_SCHEDULE_INTERVAL":  &c.ScheduleInterval,
		"A11YSCAN_JOB_RETENTION":      &c.JobRetentionTime,
	} {
		if err := setDuration(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports settings no component can work with.
func (c *Config) Validate() error {
	if c.StoragePath == "" {
		return errors.New("config: storage_path is required")
	}
	for name, wc := range map[string]webclient.Config{"web_client": c.WebClient, "crawler": c.Crawler} {
		switch wc.Client {
		case webclient.ClientNetHTTP, webclient.ClientChromedp:
		default:
			return fmt.Errorf("config: unknown %s client %q", name, wc.Client)
		}
	}
	if c.ScheduleInterval < 0 || c.JobRetentionTime < 0 {
		return errors.New("config: intervals must not be negative")
	}
	return nil
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
