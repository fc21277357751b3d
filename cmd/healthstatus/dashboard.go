// ABOUTME: CLI commands for the dashboard view and chart export.
// ABOUTME: dashboard prints the 30-day distribution; chart renders PNG or SVG files.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/healthstatus/internal/charts"
	"github.com/harperreed/healthstatus/internal/metrics"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/spf13/cobra"
)

var (
	chartKind   string
	chartFormat string
	chartOut    string
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard <type>",
	Aliases: []string{"dash", "d"},
	Short:   "Show the dashboard for a status type",
	Long: `Show the 30-day distribution across ranges, the number of readings in the
last year, and the most recent readings.

Example:
  healthstatus dashboard blood-pressure`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		d, err := dash.Load(cmd.Context(), uid, args[0])
		if err != nil {
			return err
		}

		faint := color.New(color.Faint)
		color.New(color.Bold).Println(charts.BarTitle(d.StatusType.Name))
		total := d.Buckets.Total()
		for _, b := range models.AllBuckets {
			n := d.Buckets.Count(b)
			bar := ""
			if total > 0 {
				bar = strings.Repeat("█", n*30/total)
			}
			fmt.Printf("  %s %s %d\n",
				padRight(d.StatusType.Thresholds.Ranges.Label(b), 22),
				bucketColor(b).Sprint(bar),
				n)
		}
		fmt.Println()
		fmt.Printf("%s %d in the last 30 days, %d in the last year\n",
			faint.Sprint("Readings:"), len(d.Month), len(d.Year))

		if len(d.Recent) > 0 {
			fmt.Println()
			color.New(color.Bold).Println("Recent")
			loc := dash.Metrics().Location()
			for _, r := range d.Recent {
				fmt.Printf("  %s %s %s\n",
					faint.Sprint(r.Timestamp.In(loc).Format(metrics.DateLayout)),
					padRight(r.Value, 8),
					bucketLabel(r.Value, d.StatusType.Thresholds))
			}
		}
		return nil
	},
}

var chartCmd = &cobra.Command{
	Use:   "chart <type>",
	Short: "Render a distribution or trend chart",
	Long: `Render the 30-day distribution (--kind bar) or the one-year trend with
threshold reference lines (--kind line) to a PNG or SVG file.

Examples:
  healthstatus chart blood-pressure -o bp.png
  healthstatus chart sleep-quality --kind line --format svg -o sleep.svg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		format, err := charts.ParseFormat(chartFormat)
		if err != nil {
			return err
		}
		if chartKind != "bar" && chartKind != "line" {
			return fmt.Errorf("unknown chart kind %q (bar or line)", chartKind)
		}

		d, err := dash.Load(cmd.Context(), uid, args[0])
		if err != nil {
			return err
		}

		out := chartOut
		if out == "" {
			out = fmt.Sprintf("%s-%s.%s", d.StatusType.ID, chartKind, format)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}

		if chartKind == "bar" {
			err = charts.RenderBar(f, d.StatusType.Name, d.StatusType.Thresholds, d.Buckets, format)
		} else {
			err = charts.RenderLine(f, d.Line, format)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(out)
			return err
		}

		color.Green("✓ Wrote %s", out)
		return nil
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartKind, "kind", "bar", "chart kind (bar or line)")
	chartCmd.Flags().StringVar(&chartFormat, "format", "png", "output format (png or svg)")
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "", "output file (default <type>-<kind>.<format>)")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(chartCmd)
}
