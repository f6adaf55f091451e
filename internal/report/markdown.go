package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// WriteMarkdown renders rep as a GitHub-flavored Markdown document.
func WriteMarkdown(w io.Writer, rep *Report) error {
	md := markdown.NewMarkdown(w)

	writeHeader(md, rep)
	writeImpact(md, rep)
	writeDisabilities(md, rep)
	writeViolations(md, rep)
	writePages(md, rep)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by a11yscan*")
	return md.Build()
}

func writeHeader(md *markdown.Markdown, rep *Report) {
	md.H1("Accessibility Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + rep.BaseURL + "`"},
			{"Pages scanned", strconv.Itoa(len(rep.ScanResults))},
			{"Average score", strconv.FormatFloat(rep.AverageScore, 'f', -1, 64)},
			{"Rules violated", strconv.Itoa(len(rep.Violations))},
		},
	})
	md.PlainText("")
}

func writeImpact(md *markdown.Markdown, rep *Report) {
	md.H2("Impact")
	md.PlainText("")

	rows := make([][]string, 0, len(rep.ImpactStats))
	total := 0
	for _, b := range rep.ImpactStats {
		rows = append(rows, []string{b.Category, strconv.Itoa(b.Value)})
		total += b.Value
	}
	md.Table(markdown.TableSet{Header: []string{"Category", "Rules"}, Rows: rows})
	md.PlainText("")

	if total > 0 {
		chart := piechart.NewPieChart(io.Discard,
			piechart.WithTitle("Violations by impact"),
			piechart.WithShowData(true),
		)
		for _, b := range rep.ImpactStats {
			if b.Value > 0 {
				chart.LabelAndIntValue(b.Category, uint64(b.Value))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch counts := impactCounts(rep.ImpactStats); {
	case counts[CategoryCritical] > 0:
		md.Cautionf("%d rule(s) with critical impact block some users entirely.", counts[CategoryCritical])
	case counts[CategorySerious] > 0:
		md.Warningf("%d rule(s) with serious impact need attention.", counts[CategorySerious])
	case total > 0:
		md.Note("Only violations that need review were found.")
	default:
		md.Tip("No violations found.")
	}
	md.PlainText("")
}

func impactCounts(buckets []ImpactBucket) map[string]int {
	out := make(map[string]int, len(buckets))
	for _, b := range buckets {
		out[b.Category] = b.Value
	}
	return out
}

func writeDisabilities(md *markdown.Markdown, rep *Report) {
	if len(rep.DisabilitiesStats) == 0 {
		return
	}
	md.H2("Affected users")
	md.PlainText("")

	names := make([]string, 0, len(rep.DisabilitiesStats))
	for name := range rep.DisabilitiesStats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := rep.DisabilitiesStats[names[i]], rep.DisabilitiesStats[names[j]]
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})
	items := make([]string, len(names))
	for i, name := range names {
		items[i] = fmt.Sprintf("%s: %d rule(s)", name, rep.DisabilitiesStats[name])
	}
	md.BulletList(items...)
	md.PlainText("")
}

func writeViolations(md *markdown.Markdown, rep *Report) {
	md.H2("Violations")
	md.PlainText("")
	if len(rep.Violations) == 0 {
		md.PlainText("No violations found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(rep.Violations))
	for i, v := range rep.Violations {
		impact := v.Impact
		if impact == "" {
			impact = "-"
		}
		rows[i] = []string{
			"`" + v.ID + "`",
			impact,
			strconv.Itoa(len(rep.TableData.RuleToURLs[v.ID])),
			strings.Join(v.SuccessCriteria, ", "),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rule", "Impact", "Pages", "Success criteria"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, v := range rep.Violations {
		var b strings.Builder
		if v.Description != "" {
			b.WriteString(v.Description)
		}
		if v.WhyItMatters != "" {
			b.WriteString("\n\nWhy it matters: " + v.WhyItMatters)
		}
		if v.HowToFix != "" {
			b.WriteString("\n\nHow to fix: " + v.HowToFix)
		}
		if v.EnrichmentError != "" {
			b.WriteString("\n\n(" + v.EnrichmentError + ")")
		}
		if b.Len() > 0 {
			md.Details(v.ID, b.String())
		}
	}
	md.PlainText("")
}

func writePages(md *markdown.Markdown, rep *Report) {
	md.H2("Pages")
	md.PlainText("")
	rows := make([][]string, len(rep.TableData.URLScores))
	for i, s := range rep.TableData.URLScores {
		rows[i] = []string{s.URL, strconv.FormatFloat(s.Score, 'f', -1, 64)}
	}
	md.Table(markdown.TableSet{Header: []string{"Page", "Score"}, Rows: rows})
	md.PlainText("")
}
