package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/scan"
)

func newScanCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Create, run and schedule scan requests",
	}
	cmd.AddCommand(newScanCreateCmd(rt))
	cmd.AddCommand(newScanRunCmd(rt))
	cmd.AddCommand(newScanScheduleCmd(rt))
	cmd.AddCommand(newScanRunDueCmd(rt))
	cmd.AddCommand(newScanListCmd(rt))
	cmd.AddCommand(newScanDeleteCmd(rt))
	return cmd
}

func newScanCreateCmd(rt *runtime) *cobra.Command {
	var (
		in        scan.CreateScanInput
		stepsFile string
	)
	cmd := &cobra.Command{
		Use:   "create <url>",
		Short: "Crawl url and store a scan request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.URL = args[0]
			if stepsFile != "" {
				data, err := os.ReadFile(stepsFile)
				if err != nil {
					return fmt.Errorf("read steps: %w", err)
				}
				if err := json.Unmarshal(data, &in.Steps); err != nil {
					return fmt.Errorf("parse steps %s: %w", stepsFile, err)
				}
			}

			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.Runner.CreateScan(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&in.Guidance, "guidance", "g", []string{"wcag2a", "wcag2aa"}, "rule tags to evaluate")
	f.IntVarP(&in.Depth, "depth", "d", 0, "link depth to crawl")
	f.StringVar(&in.Device, "device", "", "device profile to emulate")
	f.StringVarP(&in.Name, "name", "n", "", "display name")
	f.StringVarP(&in.ProjectID, "project", "p", "", "project id (required)")
	f.StringVar(&in.AuthorID, "author", "", "author id")
	f.StringVar(&stepsFile, "steps", "", "JSON file with browser steps to replay before scanning")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newScanRunCmd(rt *runtime) *cobra.Command {
	var opts scan.RunOptions
	cmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Scan every page of a request now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			opts.Progress = func(p scan.Progress) {
				fmt.Fprintf(out, "[%d/%d] %s %s\n", p.Processed, p.Total, p.URL, strconv.FormatFloat(p.Score, 'f', -1, 64))
			}
			msg, err := a.Runner.RunScan(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, msg)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Device, "device", "", "device profile (overrides the request's)")
	f.StringArrayVarP(&opts.URLs, "url", "u", nil, "page to scan instead of the stored set (repeatable)")
	f.StringVar(&opts.AuthorID, "author", "", "author recorded on the results")
	return cmd
}

func newScanScheduleCmd(rt *runtime) *cobra.Command {
	var (
		at     string
		in     time.Duration
		author string
	)
	cmd := &cobra.Command{
		Use:   "schedule <id>",
		Short: "Schedule the next run of a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var when time.Time
			switch {
			case at != "" && in != 0:
				return errors.New("use either --at or --in")
			case at != "":
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				when = t
			case in > 0:
				when = time.Now().Add(in)
			default:
				return errors.New("one of --at or --in is required")
			}

			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			msg, err := a.Runner.ScheduleScan(cmd.Context(), when, args[0], author)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&at, "at", "", "run time, RFC 3339")
	f.DurationVar(&in, "in", 0, "run after this duration")
	f.StringVar(&author, "author", "", "author of the schedule")
	return cmd
}

func newScanRunDueCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "run-due",
		Short: "Run every scan whose schedule has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Runner.RunExpiredScans(cmd.Context())
		},
	}
}

func newScanListCmd(rt *runtime) *cobra.Command {
	var filter model.ScanRequestFilter
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scan requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter.Status = model.ScanStatus(status)
			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			reqs, err := a.Store.ListScanRequests(cmd.Context(), filter)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tSCORE\tPAGES\tURL")
			for _, r := range reqs {
				score := "-"
				if r.Score != nil {
					score = strconv.FormatFloat(*r.Score, 'f', -1, 64)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", r.ID, r.Name, r.Status, score, len(r.URLs), r.URL)
			}
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVarP(&filter.ProjectID, "project", "p", "", "project filter")
	f.StringVar(&filter.AuthorID, "author", "", "author filter")
	f.StringVar(&status, "status", "", "Complete or Incomplete")
	f.IntVar(&filter.Limit, "limit", 0, "show at most this many, newest first")
	f.IntVar(&filter.Offset, "offset", 0, "skip this many of the newest")
	return cmd
}

func newScanDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a request with its results and schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Store.DeleteScanRequest(cmd.Context(), args[0])
		},
	}
}
