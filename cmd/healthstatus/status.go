// ABOUTME: CLI commands for status types: list, add, rm, import.
// ABOUTME: Built-in types are listed first and cannot be removed.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/registry"
	"github.com/spf13/cobra"
)

var (
	statusNormal        float64
	statusElevated      float64
	statusHigh          float64
	statusNormalLabel   string
	statusElevatedLabel string
	statusHighLabel     string
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st"},
	Short:   "Manage status types",
	Long: `List, define and remove status types.

A status type has three ascending thresholds. Readings below "normal" are
Normal, readings up to and including "elevated" are Elevated, and anything
above is High. The "high" value is the reference line drawn on trend charts.

DEFINITIONS FILE (for 'status import'):

  status_types:
    - name: Resting Heart Rate
      thresholds:
        normal: 60
        elevated: 80
        high: 100
        ranges:
          normal: Athletic
          elevated: Typical
          high: High`,
}

var statusListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List status types",
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		types, err := dash.Registry().List(cmd.Context(), uid)
		if err != nil {
			return err
		}

		faint := color.New(color.Faint)
		for _, st := range types {
			tag := ""
			if models.IsBuiltinStatusID(st.ID) {
				tag = faint.Sprint(" (built-in)")
			}
			fmt.Printf("%s %s%s\n", padRight(st.ID, 24), st.Name, tag)
			t := st.Thresholds
			fmt.Printf("  %s  %s  %s\n",
				bucketColor(models.BucketNormal).Sprintf("%s <%g", t.Ranges.Normal, t.Normal),
				bucketColor(models.BucketElevated).Sprintf("%s ≤%g", t.Ranges.Elevated, t.Elevated),
				bucketColor(models.BucketHigh).Sprintf("%s ~%g", t.Ranges.High, t.High))
		}
		return nil
	},
}

var statusAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Define a custom status type",
	Long: `Define a custom status type. The id is the lowercased name with spaces
turned into hyphens.

Example:
  healthstatus status add "Resting Heart Rate" --normal 60 --elevated 80 --high 100 \
    --normal-label Athletic --elevated-label Typical --high-label High`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		st, err := dash.Registry().Add(cmd.Context(), uid, args[0], models.ThresholdSet{
			Normal:   statusNormal,
			Elevated: statusElevated,
			High:     statusHigh,
			Ranges: models.RangeNames{
				Normal:   statusNormalLabel,
				Elevated: statusElevatedLabel,
				High:     statusHighLabel,
			},
		})
		if err != nil {
			return err
		}
		color.Green("✓ Added status type %s", st.Name)
		fmt.Printf("  %s\n", color.New(color.Faint).Sprint(st.ID))
		return nil
	},
}

var statusRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove a custom status type",
	Long:    "Remove a custom status type. Its readings are kept.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		if err := dash.Registry().Remove(cmd.Context(), uid, args[0]); err != nil {
			return err
		}
		color.Yellow("✗ Removed status type %s", args[0])
		return nil
	},
}

var statusImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Add status types from a YAML definitions file",
	Long:  "Add status types from a YAML definitions file. Existing ids are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open definitions: %w", err)
		}
		defer f.Close()

		defs, err := registry.ParseDefinitions(f)
		if err != nil {
			return err
		}
		res, err := dash.Registry().Import(cmd.Context(), uid, defs)
		if res != nil {
			for _, st := range res.Added {
				color.Green("✓ Added %s", st.ID)
			}
			for _, id := range res.Skipped {
				color.Yellow("- Skipped %s (already exists)", id)
			}
		}
		return err
	},
}

func init() {
	f := statusAddCmd.Flags()
	f.Float64Var(&statusNormal, "normal", 0, "upper bound of the normal range")
	f.Float64Var(&statusElevated, "elevated", 0, "upper bound of the elevated range")
	f.Float64Var(&statusHigh, "high", 0, "reference level for the high range")
	f.StringVar(&statusNormalLabel, "normal-label", "Normal", "label for the normal range")
	f.StringVar(&statusElevatedLabel, "elevated-label", "Elevated", "label for the elevated range")
	f.StringVar(&statusHighLabel, "high-label", "High", "label for the high range")
	for _, name := range []string{"normal", "elevated", "high"} {
		_ = statusAddCmd.MarkFlagRequired(name)
	}

	statusCmd.AddCommand(statusListCmd)
	statusCmd.AddCommand(statusAddCmd)
	statusCmd.AddCommand(statusRmCmd)
	statusCmd.AddCommand(statusImportCmd)
	rootCmd.AddCommand(statusCmd)
}
