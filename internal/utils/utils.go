package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyURL    = errors.New("empty url")
	ErrMissingHost = errors.New("missing host")
)

// URLTools wraps a parsed URL with the comparisons the crawler needs.
type URLTools struct {
	URL *url.URL
}

func NewURLTools(raw string) (*URLTools, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse url %s: %w", raw, err)
	}
	return &URLTools{URL: u}, nil
}

// DomainIsSame reports whether both URLs name the same host, ignoring case
// and port.
func (u *URLTools) DomainIsSame(target *URLTools) bool {
	return strings.EqualFold(u.URL.Hostname(), target.URL.Hostname())
}

// Resolve resolves ref against u. The fragment is preserved so callers can
// tell in-page anchors apart from real pages.
//
//	Base: https://example.com/app/list
//	Resolve("users")     → "https://example.com/app/users"
//	Resolve("../login")  → "https://example.com/login"
//	Resolve("#top")      → "https://example.com/app/list#top"
func (u *URLTools) Resolve(ref string) (*url.URL, error) {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("couldn't parse reference %s: %w", ref, err)
	}
	return u.URL.ResolveReference(r), nil
}

// Origin returns scheme://host[:port] of u.
func Origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

func segments(u *url.URL) []string {
	var out []string
	for _, s := range strings.Split(u.EscapedPath(), "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PathDepth counts how many path segments u has beyond root. Empty segments
// (and so trailing slashes) do not count, neither do query or fragment, and
// an encoded slash (%2F) stays inside its segment.
//
//	root https://example.com       u https://example.com/a/b/   → 2
//	root https://example.com/docs  u https://example.com/docs/x → 1
func PathDepth(root, u *url.URL) int {
	return len(segments(u)) - len(segments(root))
}

// CanonicalizeOptions controls optional canonicalization policies.
type CanonicalizeOptions struct {
	DropTrackingParams bool   // remove utm_*, gclid, fbclid, ...
	StripTrailingSlash bool   // /a and /a/ are the same page (root stays "/")
	DefaultScheme      string // assumed for schemeless input; empty requires a scheme
}

var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	"gclid": {}, "fbclid": {}, "mc_cid": {}, "mc_eid": {},
}

// Canonicalize returns a deterministic form of raw: lower-case scheme and
// punycode host, default port and credentials dropped, cleaned path, sorted
// query and no fragment.
func Canonicalize(raw string, opts CanonicalizeOptions) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}
	if opts.DefaultScheme != "" && !strings.Contains(raw, "://") {
		raw = opts.DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("canonicalize %q: %w", raw, ErrMissingHost)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = canonicalHost(u)
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	// Clean the escaped form so %2F stays inside its segment.
	esc := u.EscapedPath()
	p := path.Clean("/" + esc)
	if !opts.StripTrailingSlash && strings.HasSuffix(esc, "/") && p != "/" {
		p += "/"
	}
	unescaped, err := url.PathUnescape(p)
	if err != nil {
		return "", err
	}
	u.Path = unescaped
	u.RawPath = p

	u.RawQuery = canonicalQuery(u.Query(), opts.DropTrackingParams)
	return u.String(), nil
}

func canonicalHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}
	port := u.Port()
	if port == "" || (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		return host
	}
	return net.JoinHostPort(host, port)
}

func canonicalQuery(q url.Values, dropTracking bool) string {
	if dropTracking {
		for k := range q {
			if _, ok := trackingParams[strings.ToLower(k)]; ok {
				q.Del(k)
			}
		}
	}
	for _, vs := range q {
		sort.Strings(vs)
	}
	// Encode sorts by key.
	return q.Encode()
}
