// Package enricher fetches human-oriented documentation for engine rules.
package enricher

import (
	"context"
	"strings"

	"github.com/raysh454/a11yscan/internal/model"
)

// DefaultBaseURL is where the axe 4.8 rule pages live.
const DefaultBaseURL = "https://dequeuniversity.com/rules/axe/4.8/"

// Enricher turns a rule's help URL into its documentation details. Errors
// wrap model.ErrEnrichment.
type Enricher interface {
	Fetch(ctx context.Context, helpURL string) (*model.RuleDetails, error)
}

// RuleURL returns the documentation page of ruleID under base.
func RuleURL(base, ruleID string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + ruleID
}

// WCAGRuleIDs are the axe 4.8 rules mapped to WCAG success criteria, used to
// warm the rule catalogue ahead of the first report.
var WCAGRuleIDs = []string{
	"area-alt",
	"aria-allowed-attr",
	"aria-braille-equivalent",
	"aria-command-name",
	"aria-conditional-attr",
	"aria-deprecated-role",
	"aria-hidden-body",
	"aria-hidden-focus",
	"aria-input-field-name",
	"aria-meter-name",
	"aria-progressbar-name",
	"aria-prohibited-attr",
	"aria-required-attr",
	"aria-required-children",
	"aria-required-parent",
	"aria-roles",
	"aria-toggle-field-name",
	"aria-tooltip-name",
	"aria-valid-attr-value",
	"aria-valid-attr",
	"blink",
	"button-name",
	"bypass",
	"color-contrast",
	"definition-list",
	"dlitem",
	"document-title",
	"duplicate-id-aria",
	"form-field-multiple-labels",
	"frame-focusable-content",
	"frame-title-unique",
	"frame-title",
	"html-has-lang",
	"html-lang-valid",
	"html-xml-lang-mismatch",
	"image-alt",
	"input-button-name",
	"input-image-alt",
	"label",
	"link-in-text-block",
	"link-name",
	"list",
	"listitem",
	"marquee",
	"meta-refresh",
	"meta-viewport",
	"nested-interactive",
	"no-autoplay-audio",
	"object-alt",
	"role-img-alt",
	"scrollable-region-focusable",
	"select-name",
	"server-side-image-map",
	"svg-img-alt",
	"td-headers-attr",
	"th-has-data-cells",
	"valid-lang",
	"video-caption",
}
