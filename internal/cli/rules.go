package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raysh454/a11yscan/internal/enricher"
)

func newRulesCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and fill the rule documentation cache",
	}
	cmd.AddCommand(newRulesListCmd(rt))
	cmd.AddCommand(newRulesSeedCmd(rt))
	return cmd
}

func newRulesListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rules, err := a.Store.ListRules(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RULE\tCRITERIA\tDISABILITIES")
			for _, r := range rules {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.RuleID, strings.Join(r.SuccessCriteria, ","), strings.Join(r.DisabilitiesAffected, ","))
			}
			return tw.Flush()
		},
	}
}

// newRulesSeedCmd fetches documentation for rules up front so the first
// report does not pay for it.
func newRulesSeedCmd(rt *runtime) *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "seed [rule-id...]",
		Short: "Fetch and cache rule documentation (default: all WCAG rules)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ids := args
			if len(ids) == 0 {
				ids = enricher.WCAGRuleIDs
			}
			if base == "" {
				base = a.Config.RuleDocsURL
			}
			sum, err := a.Rules.Warm(cmd.Context(), base, ids)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %d, already cached %d, failed %d\n", sum.Created, sum.Cached, len(sum.Failed))
			for _, id := range sum.Failed {
				fmt.Fprintf(out, "  failed: %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "rule documentation base URL (default: rule_docs_url)")
	return cmd
}
