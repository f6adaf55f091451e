package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raysh454/a11yscan/internal/engine"
	"github.com/raysh454/a11yscan/internal/enricher"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/report"
	"github.com/raysh454/a11yscan/internal/scan"
	"github.com/raysh454/a11yscan/internal/store"
	"github.com/raysh454/a11yscan/internal/webclient"
)

// Components lets callers swap the I/O heavy parts. Nil fields are built
// from the configuration.
type Components struct {
	WebClient webclient.WebClient
	Crawler   webclient.WebClient
	Launcher  webclient.Launcher
	Engine    engine.Engine
	Enricher  enricher.Enricher
}

// Application is the runtime state shared by the HTTP server and the CLI.
type Application struct {
	Config *Config
	Logger logging.Logger

	Store     *store.SQLiteStore
	WebClient webclient.WebClient
	Crawler   webclient.WebClient
	Devices   *scan.DeviceResolver
	Runner    *scan.Runner
	Reports   *report.Service
	Rules     *report.Aggregator
	Orch      *Orchestrator
	Scheduler *Scheduler
}

// New opens the store and wires every component.
func New(cfg *Config, logger logging.Logger, comps Components) (*Application, error) {
	if logger == nil {
		return nil, errors.New("app: nil logger provided")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if dir := filepath.Dir(cfg.StoragePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	st, err := store.Open(cfg.StoragePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &Application{Config: cfg, Logger: logger, Store: st}
	if err := a.wire(comps); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *Application) wire(comps Components) error {
	cfg, logger := a.Config, a.Logger

	wc := comps.WebClient
	if wc == nil {
		var err error
		if wc, err = webclient.NewWebClient(cfg.WebClient, logger); err != nil {
			return fmt.Errorf("new webclient: %w", err)
		}
	}
	a.WebClient = wc

	crawl := comps.Crawler
	if crawl == nil {
		crawl = webclient.NewLazyWebClient(cfg.Crawler, logger)
	}
	a.Crawler = crawl

	launcher := comps.Launcher
	if launcher == nil {
		launcher = webclient.NewChromedpLauncher(cfg.Browser, logger)
	}

	eng := comps.Engine
	if eng == nil {
		axe, err := engine.NewAxe(cfg.Engine, wc, logger)
		if err != nil {
			return fmt.Errorf("new engine: %w", err)
		}
		eng = axe
	}

	en := comps.Enricher
	if en == nil {
		dq, err := enricher.NewDeque(wc, logger)
		if err != nil {
			return fmt.Errorf("new enricher: %w", err)
		}
		en = dq
	}

	agg, err := report.NewAggregator(a.Store, a.Store, en, logger)
	if err != nil {
		return fmt.Errorf("new aggregator: %w", err)
	}
	a.Rules = agg

	if a.Reports, err = report.NewService(a.Store, agg, logger); err != nil {
		return fmt.Errorf("new report service: %w", err)
	}

	a.Devices = scan.NewDeviceResolver(a.Store)
	a.Runner, err = scan.NewRunner(cfg.Scan, scan.Deps{
		Scans:    a.Store,
		Devices:  a.Devices,
		Launcher: launcher,
		Engine:   eng,
		Crawl:    crawl,
	}, logger)
	if err != nil {
		return fmt.Errorf("new runner: %w", err)
	}

	a.Orch = NewOrchestrator(cfg, a.Runner, logger)
	a.Scheduler = NewScheduler(a.Runner, cfg.ScheduleInterval, logger)
	return nil
}

// Start begins background work.
func (a *Application) Start(ctx context.Context) {
	a.Logger.Info("application starting",
		logging.Field{Key: "storage", Value: a.Config.StoragePath})
	a.Scheduler.Start(ctx)
}

// Shutdown stops the scheduler and running jobs, then releases resources.
func (a *Application) Shutdown(ctx context.Context) error {
	a.Logger.Info("application shutdown initiated")

	done := make(chan struct{})
	go func() {
		if a.Scheduler != nil {
			a.Scheduler.Stop()
		}
		if a.Orch != nil {
			a.Orch.Close()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.Logger.Warn("shutdown deadline reached before jobs stopped")
	}
	return a.Close()
}

// Close releases the web clients and the store.
func (a *Application) Close() error {
	var errs []error
	if a.WebClient != nil {
		errs = append(errs, a.WebClient.Close())
	}
	if a.Crawler != nil && a.Crawler != a.WebClient {
		errs = append(errs, a.Crawler.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
