// Package crawler discovers the same-site pages reachable from a seed URL.
package crawler

import "context"

// Enumerator returns the URLs discovered from target.
type Enumerator interface {
	Enumerate(ctx context.Context, target string) ([]string, error)
}
