package webclient

import (
	"context"
	"net/http"
	"time"
)

// WebClient fetches a single document. Implementations differ in whether the
// page is rendered (chromedp) or fetched raw (net/http).
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Get(ctx context.Context, url string) (*Response, error)
	Close() error
}

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}
