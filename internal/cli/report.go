package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raysh454/a11yscan/internal/report"
)

func newReportCmd(rt *runtime) *cobra.Command {
	var (
		user   string
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Build the report of a scan request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "markdown" {
				return fmt.Errorf("unsupported format %q (json or markdown)", format)
			}

			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.Reports.Generate(cmd.Context(), args[0], user)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if format == "markdown" {
				return report.WriteMarkdown(w, rep)
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}
	f := cmd.Flags()
	f.StringVar(&user, "user", "", "requester whose custom descriptions apply (default: request author)")
	f.StringVarP(&format, "format", "f", "json", "json or markdown")
	f.StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
