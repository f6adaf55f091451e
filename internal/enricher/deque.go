package enricher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/webclient"
)

// Deque scrapes rule pages of Deque University.
type Deque struct {
	wc     webclient.WebClient
	logger logging.Logger
}

var _ Enricher = (*Deque)(nil)

func NewDeque(wc webclient.WebClient, logger logging.Logger) (*Deque, error) {
	if wc == nil {
		return nil, errors.New("enricher: nil web client provided")
	}
	if logger == nil {
		return nil, errors.New("enricher: nil logger provided")
	}
	return &Deque{
		wc:     wc,
		logger: logger.With(logging.Field{Key: "component", Value: "enricher"}),
	}, nil
}

func (d *Deque) Fetch(ctx context.Context, helpURL string) (*model.RuleDetails, error) {
	if strings.TrimSpace(helpURL) == "" {
		return nil, fmt.Errorf("%w: empty help url", model.ErrEnrichment)
	}
	resp, err := d.wc.Get(ctx, helpURL)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", model.ErrEnrichment, helpURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: fetch %s: status %d", model.ErrEnrichment, helpURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", model.ErrEnrichment, helpURL, err)
	}
	details, err := parseRulePage(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrEnrichment, helpURL, err)
	}
	d.logger.Debug("rule page scraped",
		logging.Field{Key: "url", Value: helpURL},
		logging.Field{Key: "disabilities", Value: len(details.DisabilitiesAffected)})
	return details, nil
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// parseRulePage extracts the four documentation fields. Only the
// disabilities container is mandatory; the others fall back to empty.
func parseRulePage(doc *goquery.Document) (*model.RuleDetails, error) {
	container := doc.Find(".disabilityTypesAffectedData").First()
	if container.Length() == 0 {
		return nil, errors.New("page has no disabilities section")
	}

	details := &model.RuleDetails{
		DisabilitiesAffected: []string{},
		SuccessCriteria:      []string{},
	}
	container.Find("li").Each(func(_ int, li *goquery.Selection) {
		if t := text(li); t != "" {
			details.DisabilitiesAffected = append(details.DisabilitiesAffected, t)
		}
	})

	var fix []string
	doc.Find("section.howToFix").First().Find(".howToFixData p").EachWithBreak(func(i int, p *goquery.Selection) bool {
		fix = append(fix, text(p))
		return len(fix) < 2
	})
	details.HowToFix = strings.Join(fix, "\n\n")

	details.WhyItMatters = text(doc.Find("section.whyImportant").First().Find(".howToFixData p").First())

	if cards := doc.Find(".m-card-body.next-card"); cards.Length() > 1 {
		if uls := cards.Eq(1).Find("ul"); uls.Length() >= 3 {
			if sc := text(uls.Eq(2).Find("li").First()); sc != "" {
				details.SuccessCriteria = append(details.SuccessCriteria, sc)
			}
		}
	}
	return details, nil
}
