// ABOUTME: CLI command for adding health status readings.
// ABOUTME: Stores the raw value at the end of the selected local day.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/healthstatus/internal/metrics"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/spf13/cobra"
)

var addDate string

var addCmd = &cobra.Command{
	Use:     "add <type> <value>",
	Aliases: []string{"a"},
	Short:   "Add a reading for a status type",
	Long: `Add a reading for a built-in or custom status type.

The value is stored exactly as entered and timestamped 23:59:59 local time on
the selected day, so it sorts after anything else logged that day.

Examples:
  healthstatus add blood-pressure 118
  healthstatus add sleep-quality 7.5 --date 2024-03-10
  healthstatus add resting-heart-rate 64`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		typeID, raw := args[0], args[1]

		st, err := dash.Registry().Resolve(ctx, uid, typeID)
		if err != nil {
			return err
		}

		m := dash.Metrics()
		date := addDate
		if date == "" {
			date = m.Today()
		}
		rec, err := m.AddMetric(ctx, uid, st.ID, raw, date)
		if err != nil {
			return err
		}

		color.Green("✓ Added %s", models.DisplayName(st.ID))
		fmt.Printf("  %s %s on %s %s\n",
			color.New(color.Faint).Sprint(shortID(rec.ID)),
			rec.Value,
			rec.Timestamp.In(m.Location()).Format(metrics.DateLayout),
			bucketLabel(rec.Value, st.Thresholds))

		return nil
	},
}

// bucketLabel returns the colored range name for raw, or a note when it is not numeric.
func bucketLabel(raw string, t models.ThresholdSet) string {
	b, err := models.ClassifyRaw(raw, t)
	if err != nil {
		return color.New(color.Faint).Sprint("(not numeric)")
	}
	return bucketColor(b).Sprintf("(%s)", t.Ranges.Label(b))
}

func bucketColor(b models.Bucket) *color.Color {
	switch b {
	case models.BucketNormal:
		return color.New(color.FgGreen)
	case models.BucketElevated:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func init() {
	addCmd.Flags().StringVar(&addDate, "date", "", "day of the reading (YYYY-MM-DD), defaults to today")
	rootCmd.AddCommand(addCmd)
}
