// Package scan creates scan requests, runs them in a headless browser and
// schedules reruns.
package scan

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/a11yscan/internal/automaton"
	"github.com/raysh454/a11yscan/internal/crawler"
	"github.com/raysh454/a11yscan/internal/engine"
	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/score"
	"github.com/raysh454/a11yscan/internal/store"
	"github.com/raysh454/a11yscan/internal/utils"
	"github.com/raysh454/a11yscan/internal/webclient"
)

// Config bounds a run. Zero values mean no limit beyond the caller's ctx.
type Config struct {
	// RunTimeout caps a whole runScan call.
	RunTimeout time.Duration `yaml:"run_timeout"`

	// NavigationTimeout caps each page load.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
}

func DefaultConfig() Config {
	return Config{
		RunTimeout:        30 * time.Minute,
		NavigationTimeout: 60 * time.Second,
	}
}

// EnumeratorFactory builds the crawler used for a request of the given depth.
type EnumeratorFactory func(maxDepth int) crawler.Enumerator

// Deps are the collaborators of a Runner.
type Deps struct {
	Scans    store.ScanStore
	Devices  *DeviceResolver
	Launcher webclient.Launcher
	Engine   engine.Engine

	// Crawl fetches pages while discovering a site. Ignored when
	// NewEnumerator is set.
	Crawl         webclient.WebClient
	NewEnumerator EnumeratorFactory
}

type Runner struct {
	cfg    Config
	deps   Deps
	logger logging.Logger
}

func NewRunner(cfg Config, deps Deps, logger logging.Logger) (*Runner, error) {
	if logger == nil {
		return nil, errors.New("scan: nil logger provided")
	}
	if deps.Scans == nil {
		return nil, errors.New("scan: nil scan store provided")
	}
	if deps.Launcher == nil || deps.Engine == nil {
		return nil, errors.New("scan: a browser launcher and a rule engine are required")
	}
	logger = logger.With(logging.Field{Key: "component", Value: "scan"})
	if deps.NewEnumerator == nil {
		if deps.Crawl == nil {
			return nil, errors.New("scan: a crawl web client or enumerator factory is required")
		}
		wc := deps.Crawl
		deps.NewEnumerator = func(maxDepth int) crawler.Enumerator {
			return crawler.NewSpider(maxDepth, wc, logger)
		}
	}
	if deps.Devices == nil {
		deps.Devices = NewDeviceResolver(nil)
	}
	return &Runner{cfg: cfg, deps: deps, logger: logger}, nil
}

// CreateScanInput is what a client submits to register a scan.
type CreateScanInput struct {
	URL       string       `json:"url"`
	Guidance  []string     `json:"guidance"`
	Depth     int          `json:"depth"`
	Device    string       `json:"device,omitempty"`
	Steps     []model.Step `json:"steps,omitempty"`
	Name      string       `json:"name"`
	ProjectID string       `json:"project_id"`
	AuthorID  string       `json:"author_id"`
}

func (in *CreateScanInput) validate() error {
	in.URL = strings.TrimSpace(in.URL)
	if in.URL == "" {
		return fmt.Errorf("%w: url is required", model.ErrValidation)
	}
	u, err := url.Parse(in.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url %q must be an absolute http(s) url", model.ErrValidation, in.URL)
	}
	if len(in.Guidance) == 0 {
		return fmt.Errorf("%w: at least one guidance tag is required", model.ErrValidation)
	}
	if strings.TrimSpace(in.ProjectID) == "" {
		return fmt.Errorf("%w: project id is required", model.ErrValidation)
	}
	if in.Depth < 0 {
		in.Depth = 0
	}
	return model.ValidateSteps(in.Steps)
}

// CreateScan crawls the site from in.URL and stores the request with the
// discovered page set.
func (r *Runner) CreateScan(ctx context.Context, in CreateScanInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	if in.Device != "" {
		if _, err := r.deps.Devices.Resolve(ctx, in.Device); err != nil {
			return "", err
		}
	}

	urls, err := r.deps.NewEnumerator(in.Depth).Enumerate(ctx, in.URL)
	if err != nil {
		return "", fmt.Errorf("crawl %s: %w", in.URL, err)
	}
	r.logger.Info("site crawled",
		logging.Field{Key: "url", Value: in.URL},
		logging.Field{Key: "depth", Value: in.Depth},
		logging.Field{Key: "pages", Value: len(urls)})

	req := &model.ScanRequest{
		Name:      in.Name,
		URL:       in.URL,
		Guidance:  in.Guidance,
		Depth:     in.Depth,
		Device:    in.Device,
		Steps:     in.Steps,
		ProjectID: in.ProjectID,
		AuthorID:  in.AuthorID,
		URLs:      urls,
	}
	if err := r.deps.Scans.CreateScanRequest(ctx, req); err != nil {
		return "", err
	}
	return req.ID, nil
}

// UpdateScan edits a stored request. The page set is not re-crawled.
func (r *Runner) UpdateScan(ctx context.Context, id string, upd model.ScanRequestUpdate) (*model.ScanRequest, error) {
	if upd.Steps != nil {
		if err := model.ValidateSteps(*upd.Steps); err != nil {
			return nil, err
		}
	}
	if upd.Guidance != nil && len(*upd.Guidance) == 0 {
		return nil, fmt.Errorf("%w: at least one guidance tag is required", model.ErrValidation)
	}
	if upd.ProjectID != nil && strings.TrimSpace(*upd.ProjectID) == "" {
		return nil, fmt.Errorf("%w: project id is required", model.ErrValidation)
	}
	if upd.Depth != nil && *upd.Depth < 0 {
		zero := 0
		upd.Depth = &zero
	}
	if upd.Device != nil && *upd.Device != "" {
		if _, err := r.deps.Devices.Resolve(ctx, *upd.Device); err != nil {
			return nil, err
		}
	}
	return r.deps.Scans.UpdateScanRequest(ctx, id, upd)
}

// Progress is reported after every scanned page.
type Progress struct {
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	URL       string  `json:"url"`
	Score     float64 `json:"score"`
}

// RunOptions override what is stored on the request. Zero values fall back
// to the request.
type RunOptions struct {
	URLs     []string
	Device   string
	AuthorID string
	Progress func(Progress)
}

// RunScan scans every page of the request in one browser session and marks
// the request complete with the aggregate score.
func (r *Runner) RunScan(ctx context.Context, id string, opts RunOptions) (string, error) {
	req, err := r.deps.Scans.GetScanRequest(ctx, id)
	if err != nil {
		return "", err
	}

	urls := opts.URLs
	if len(urls) == 0 {
		urls = req.URLs
	}
	urls = append([]string(nil), urls...)
	deviceName := opts.Device
	if deviceName == "" {
		deviceName = req.Device
	}
	device, err := r.deps.Devices.Resolve(ctx, deviceName)
	if err != nil {
		return "", err
	}
	author := opts.AuthorID
	if author == "" {
		author = req.AuthorID
	}

	if r.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RunTimeout)
		defer cancel()
	}

	log := r.logger.With(logging.Field{Key: "scan_request_id", Value: id})
	session, err := r.deps.Launcher.Launch(ctx)
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("error closing browser session", logging.Field{Key: "error", Value: err})
		}
	}()
	page, err := session.NewPage(ctx)
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}

	if len(req.Steps) > 0 {
		landing, err := r.runSteps(ctx, page, req, device)
		if err != nil {
			return "", err
		}
		if landing != "" && !containsURL(urls, landing) {
			log.Info("scanning landing page first", logging.Field{Key: "url", Value: landing})
			urls = append([]string{landing}, urls...)
		}
	}

	var passes, violations int
	for i, target := range urls {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		res, err := r.scanPage(ctx, page, req, device, target, log)
		if err != nil {
			return "", err
		}
		passes += len(res.Passes)
		violations += len(res.Violations)

		res.ScanRequestID = id
		res.AuthorID = author
		res.ProjectID = req.ProjectID
		if err := r.deps.Scans.SaveScanResult(ctx, res); err != nil {
			return "", err
		}
		if opts.Progress != nil {
			opts.Progress(Progress{Processed: i + 1, Total: len(urls), URL: res.URL, Score: res.Score})
		}
	}

	total := score.Score(passes, violations)
	if err := r.deps.Scans.CompleteScanRequest(ctx, id, total, time.Now().UTC()); err != nil {
		return "", err
	}
	log.Info("scan completed",
		logging.Field{Key: "pages", Value: len(urls)},
		logging.Field{Key: "score", Value: total})
	return fmt.Sprintf("scan request %s completed successfully", id), nil
}

// runSteps opens the request's root page and replays its steps. It returns
// where the browser ended up.
func (r *Runner) runSteps(ctx context.Context, page webclient.Page, req *model.ScanRequest, device model.DeviceProfile) (string, error) {
	fail := func(err error) error {
		return fmt.Errorf("%w: scan request %s: %w", model.ErrStepExecution, req.ID, err)
	}
	if err := page.Emulate(ctx, device); err != nil {
		return "", fail(err)
	}
	if err := page.Navigate(ctx, req.URL, r.cfg.NavigationTimeout); err != nil {
		return "", fail(err)
	}
	landing, err := automaton.Run(ctx, page, req.Steps, r.logger)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fail(err)
	}
	return landing, nil
}

// scanPage evaluates one page. A failed navigation is logged and the engine
// still runs on whatever loaded.
func (r *Runner) scanPage(ctx context.Context, page webclient.Page, req *model.ScanRequest, device model.DeviceProfile, target string, log logging.Logger) (*model.ScanResult, error) {
	if err := page.Emulate(ctx, device); err != nil {
		return nil, fmt.Errorf("emulate %s: %w", device.Name, err)
	}
	if err := page.Navigate(ctx, target, r.cfg.NavigationTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("navigation failed",
			logging.Field{Key: "url", Value: target},
			logging.Field{Key: "error", Value: err})
	}

	out, err := r.deps.Engine.Analyze(ctx, page, req.Guidance)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", target, err)
	}
	pageScore := score.Score(len(out.Passes), len(out.Violations))
	log.Debug("page scanned",
		logging.Field{Key: "url", Value: target},
		logging.Field{Key: "violations", Value: len(out.Violations)},
		logging.Field{Key: "score", Value: pageScore})

	return &model.ScanResult{
		URL:          target,
		Score:        pageScore,
		Violations:   out.Violations,
		Passes:       out.Passes,
		Incomplete:   out.Incomplete,
		Inapplicable: out.Inapplicable,
		TestEngine:   out.TestEngine,
		Environment:  out.Environment,
	}, nil
}

func containsURL(urls []string, target string) bool {
	want, err := utils.Canonicalize(target, utils.CanonicalizeOptions{StripTrailingSlash: true})
	if err != nil {
		want = target
	}
	for _, u := range urls {
		if u == target {
			return true
		}
		if c, err := utils.Canonicalize(u, utils.CanonicalizeOptions{StripTrailingSlash: true}); err == nil && c == want {
			return true
		}
	}
	return false
}
