package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raysh454/a11yscan/internal/crawler"
	"github.com/raysh454/a11yscan/internal/webclient"
)

func newCrawlCmd(rt *runtime) *cobra.Command {
	var (
		depth  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "List the pages a scan of url would cover",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rt.config()
			if err != nil {
				return err
			}
			logger, err := rt.cliLogger(cmd, cfg)
			if err != nil {
				return err
			}

			wc := rt.components.Crawler
			if wc == nil {
				if wc, err = webclient.NewWebClient(cfg.Crawler, logger); err != nil {
					return err
				}
				defer wc.Close()
			}

			urls, err := crawler.NewSpider(depth, wc, logger).Enumerate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(urls)
			}
			for _, u := range urls {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "link depth to follow from url")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print a JSON array")
	return cmd
}
