package webclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/a11yscan/internal/logging"
)

// ChromedpClient renders documents in headless Chrome and returns the
// serialized DOM, so links added by scripts are visible to the crawler.
type ChromedpClient struct {
	timeout   time.Duration
	idleAfter time.Duration
	logger    logging.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

var _ WebClient = (*ChromedpClient)(nil)

func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	return opts
}

// startBrowser launches Chrome and returns a browser-level chromedp context.
func startBrowser(parent context.Context, cfg Config) (context.Context, context.CancelFunc, context.CancelFunc, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, nil, nil, fmt.Errorf("start browser: %w", err)
	}
	return browserCtx, browserCancel, allocCancel, nil
}

func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromedpClient, error) {
	if logger == nil {
		return nil, errors.New("logger is nil")
	}
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = defaults.IdleAfter
	}

	browserCtx, browserCancel, allocCancel, err := startBrowser(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	componentLogger := logger.With(logging.Field{Key: "backend", Value: string(ClientChromedp)})
	componentLogger.Debug("created chromedp webclient",
		logging.Field{Key: "idle_after", Value: cfg.IdleAfter.String()})

	return &ChromedpClient{
		timeout:       cfg.Timeout,
		idleAfter:     cfg.IdleAfter,
		logger:        componentLogger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// listenTarget is swapped in tests.
var listenTarget = chromedp.ListenTarget

// watchNetworkIdle runs waitNetworkIdle on a child of ctx. stop removes the
// listener from the target.
func watchNetworkIdle(ctx context.Context, idleAfter time.Duration) (<-chan struct{}, context.CancelFunc) {
	lctx, stop := context.WithCancel(ctx)
	return waitNetworkIdle(lctx, idleAfter), stop
}

// waitNetworkIdle returns a channel that receives once no request has been
// in flight for idleAfter. The listener lives as long as ctx.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{}, 1)
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) <= 0 {
				once.Do(func() {
					idleChan <- struct{}{}
				})
			}
		})
	}

	listenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})

	return idleChan
}

func (c *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if m := strings.ToUpper(req.Method); m != "" && m != http.MethodGet {
		return nil, fmt.Errorf("chromedp backend supports GET only, got %s", req.Method)
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	runCtx, cancel := context.WithTimeout(tabCtx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		docMu   sync.Mutex
		status  int
		headers = http.Header{}
	)
	chromedp.ListenTarget(runCtx, func(ev any) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
			return
		}
		docMu.Lock()
		defer docMu.Unlock()
		if status != 0 {
			return
		}
		status = int(e.Response.Status)
		for k, v := range e.Response.Headers {
			headers.Set(k, fmt.Sprint(v))
		}
	})
	idle := waitNetworkIdle(runCtx, c.idleAfter)

	if err := chromedp.Run(runCtx, network.Enable(), chromedp.Navigate(req.URL)); err != nil {
		c.logger.Warn("chromedp navigation failed",
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("navigate %s: %w", req.URL, err)
	}

	select {
	case <-idle:
	case <-time.After(c.idleAfter * 4):
		// Long-polling pages never go idle; the load event already fired.
	case <-runCtx.Done():
		return nil, fmt.Errorf("waiting for %s to settle: %w", req.URL, runCtx.Err())
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read DOM of %s: %w", req.URL, err)
	}

	docMu.Lock()
	defer docMu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	if headers.Get("Content-Type") == "" {
		headers.Set("Content-Type", "text/html")
	}
	return &Response{
		Request:    req,
		Headers:    headers,
		Body:       []byte(html),
		StatusCode: status,
		FetchedAt:  time.Now(),
	}, nil
}

func (c *ChromedpClient) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

func (c *ChromedpClient) Close() error {
	c.browserCancel()
	c.allocCancel()
	return nil
}
