package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientChromedp Client = "chromedp"
)

// Config configures both the document fetchers and the scan browser.
type Config struct {
	Client Client `yaml:"client"`

	// Timeout bounds one fetch or one page navigation.
	Timeout time.Duration `yaml:"timeout"`

	// IdleAfter is how long the network must stay quiet before a rendered
	// page counts as settled.
	IdleAfter time.Duration `yaml:"idle_after"`

	Headless  bool   `yaml:"headless"`
	ExecPath  string `yaml:"exec_path"`
	UserAgent string `yaml:"user_agent"`
}

func DefaultConfig() Config {
	return Config{
		Client:    ClientNetHTTP,
		Timeout:   30 * time.Second,
		IdleAfter: 500 * time.Millisecond,
		Headless:  true,
	}
}
