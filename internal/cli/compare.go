package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCompareCmd(rt *runtime) *cobra.Command {
	var (
		asJSON bool
		markup bool
	)
	cmd := &cobra.Command{
		Use:   "compare <id>",
		Short: "Compare the latest run of every page with the previous one",
		Long: `Compare shows how each page changed between the two most recent runs of a
scan request: the score delta, rules that are new, fixed or changed, and
optionally the offending markup that appeared or went away.

Pages evaluated only once are listed with no previous score.

Examples:
  # Summary table
  a11yscan compare 3f1c...

  # Include the markup diff
  a11yscan compare --markup 3f1c...

  # JSON output
  a11yscan compare --json 3f1c...`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			cmp, err := a.Reports.Compare(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cmp)
			}

			fmt.Fprintf(out, "%d improved, %d regressed\n\n", cmp.Improved, cmp.Regressed)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "URL\tBEFORE\tAFTER\tDELTA\tCHANGES")
			for _, p := range cmp.Pages {
				before := "-"
				if p.BaseID != "" {
					before = fmt.Sprintf("%.2f", p.BaseScore)
				}
				changes := make([]string, 0, len(p.RuleDeltas))
				for _, rd := range p.RuleDeltas {
					changes = append(changes, fmt.Sprintf("%s %s (%+d)", rd.RuleID, rd.Change, rd.Delta))
				}
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%+.2f\t%s\n", p.URL, before, p.HeadScore, p.Delta, strings.Join(changes, ", "))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if markup {
				for _, p := range cmp.Pages {
					if len(p.Markup) == 0 {
						continue
					}
					fmt.Fprintf(out, "\n%s\n", p.URL)
					for _, c := range p.Markup {
						sign := "+"
						if c.Type == "removed" {
							sign = "-"
						}
						for _, line := range strings.Split(strings.TrimRight(c.Content, "\n"), "\n") {
							fmt.Fprintf(out, "%s %s\n", sign, line)
						}
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print the comparison as JSON")
	cmd.Flags().BoolVar(&markup, "markup", false, "also print the offending markup that appeared or went away")
	return cmd
}
