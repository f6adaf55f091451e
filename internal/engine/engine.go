// Package engine runs an accessibility rule engine inside a browser page.
package engine

import (
	"context"

	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/webclient"
)

// Engine evaluates the page's current document, restricted to the rules
// carrying any of tags. No tags means every rule.
type Engine interface {
	Analyze(ctx context.Context, page webclient.Page, tags []string) (*model.EngineResult, error)
}
