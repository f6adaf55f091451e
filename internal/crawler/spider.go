package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/utils"
	"github.com/raysh454/a11yscan/internal/webclient"
)

// Spider walks a site depth-first. A URL is accepted at depth d only when its
// path sits exactly d segments below the root's path, so a page linked from
// deeper in the tree is still listed at its structural depth.
type Spider struct {
	MaxDepth int
	wc       webclient.WebClient
	logger   logging.Logger
}

var _ Enumerator = (*Spider)(nil)

func NewSpider(maxDepth int, wc webclient.WebClient, logger logging.Logger) *Spider {
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &Spider{
		MaxDepth: maxDepth,
		wc:       wc,
		logger:   logger.With(logging.Field{Key: "component", Value: "crawler"}),
	}
}

type candidate struct {
	url   *url.URL
	depth int
}

type spiderHelper struct {
	spider  *Spider
	root    *url.URL
	seen    map[string]struct{}
	results []string
}

var canonicalOpts = utils.CanonicalizeOptions{StripTrailingSlash: true}

// Enumerate returns the discovered set in acceptance order. The root itself is
// always first.
func (s *Spider) Enumerate(ctx context.Context, target string) ([]string, error) {
	rootStr, err := utils.Canonicalize(target, canonicalOpts)
	if err != nil {
		return nil, fmt.Errorf("invalid root url: %w", err)
	}
	root, err := url.Parse(rootStr)
	if err != nil {
		return nil, fmt.Errorf("invalid root url: %w", err)
	}
	if root.Scheme != "http" && root.Scheme != "https" {
		return nil, fmt.Errorf("invalid root url %s: scheme must be http or https", target)
	}

	h := &spiderHelper{
		spider: s,
		root:   root,
		seen:   map[string]struct{}{},
	}
	if err := h.run(ctx); err != nil {
		return nil, err
	}
	return h.results, nil
}

// accept applies the acceptance rules to u at depth d and records it when it
// passes. The returned string is the canonical form.
func (h *spiderHelper) accept(u *url.URL, d int) (string, bool) {
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	canon, err := utils.Canonicalize(u.String(), canonicalOpts)
	if err != nil {
		return "", false
	}
	cu, err := url.Parse(canon)
	if err != nil || !strings.EqualFold(cu.Host, h.root.Host) {
		return "", false
	}
	if _, dup := h.seen[canon]; dup {
		return "", false
	}
	if utils.PathDepth(h.root, cu) != d {
		return "", false
	}
	h.seen[canon] = struct{}{}
	h.results = append(h.results, canon)
	return canon, true
}

func (h *spiderHelper) run(ctx context.Context) error {
	// Explicit stack; children are pushed in reverse so they pop in document
	// order, matching a recursive walk.
	stack := []candidate{{url: h.root, depth: 0}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		page, ok := h.accept(c.url, c.depth)
		if !ok {
			continue
		}
		h.spider.logger.Debug("accepted url",
			logging.Field{Key: "url", Value: page},
			logging.Field{Key: "depth", Value: c.depth})
		if c.depth >= h.spider.MaxDepth {
			continue
		}

		links, err := h.crawlPage(ctx, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			h.spider.logger.Warn("error while crawling page",
				logging.Field{Key: "url", Value: page},
				logging.Field{Key: "error", Value: err.Error()})
			continue
		}
		for i := len(links) - 1; i >= 0; i-- {
			stack = append(stack, candidate{url: links[i], depth: c.depth + 1})
		}
	}
	return nil
}

var errNotHTML = errors.New("response is not html")

// crawlPage fetches target and returns its anchor targets resolved against it.
func (h *spiderHelper) crawlPage(ctx context.Context, target string) ([]*url.URL, error) {
	resp, err := h.spider.wc.Get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("error making http request: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("received %d from target", resp.StatusCode)
	}
	if ct := resp.Headers.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && mt != "text/html" && mt != "application/xhtml+xml" {
			return nil, errNotHTML
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("couldn't parse %s: %w", target, err)
	}
	base, err := utils.NewURLTools(target)
	if err != nil {
		return nil, err
	}

	var links []*url.URL
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if strings.TrimSpace(href) == "" {
			return
		}
		resolved, err := base.Resolve(href)
		if err != nil {
			h.spider.logger.Warn("couldn't resolve full url",
				logging.Field{Key: "url", Value: href},
				logging.Field{Key: "error", Value: err.Error()})
			return
		}
		if resolved.Fragment != "" || resolved.RawFragment != "" || strings.HasSuffix(href, "#") {
			// an anchor back into this page adds nothing; any other page
			// is kept without its fragment
			resolved.Fragment, resolved.RawFragment = "", ""
			if canon, err := utils.Canonicalize(resolved.String(), canonicalOpts); err == nil && canon == target {
				return
			}
		}
		links = append(links, resolved)
	})
	return links, nil
}
