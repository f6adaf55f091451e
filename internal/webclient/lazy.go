package webclient

import (
	"context"
	"errors"
	"sync"

	"github.com/raysh454/a11yscan/internal/logging"
)

var errClosed = errors.New("webclient: closed")

// lazyClient builds its backend on the first request. A chromedp crawl
// client then only starts a browser once something is actually crawled.
type lazyClient struct {
	cfg    Config
	logger logging.Logger

	mu     sync.Mutex
	wc     WebClient
	closed bool
}

// NewLazyWebClient returns a WebClient that constructs the configured backend
// on first use. Construction errors are returned from that first call and the
// next call tries again.
func NewLazyWebClient(cfg Config, logger logging.Logger) WebClient {
	return &lazyClient{cfg: cfg, logger: logger}
}

func (l *lazyClient) backend() (WebClient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, errClosed
	}
	if l.wc == nil {
		wc, err := NewWebClient(l.cfg, l.logger)
		if err != nil {
			return nil, err
		}
		l.wc = wc
	}
	return l.wc, nil
}

func (l *lazyClient) Do(ctx context.Context, req *Request) (*Response, error) {
	wc, err := l.backend()
	if err != nil {
		return nil, err
	}
	return wc.Do(ctx, req)
}

func (l *lazyClient) Get(ctx context.Context, url string) (*Response, error) {
	wc, err := l.backend()
	if err != nil {
		return nil, err
	}
	return wc.Get(ctx, url)
}

func (l *lazyClient) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.wc == nil {
		return nil
	}
	return l.wc.Close()
}
