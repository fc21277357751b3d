// ABOUTME: CLI command for deleting readings.
// ABOUTME: Deletion is by full record ID and succeeds for IDs that are already gone.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a reading",
	Long: `Delete a reading by its full ID (see 'healthstatus list --full-ids').

EXAMPLES:

  healthstatus delete 3f2c9a7e-1b6d-4c1e-9f0a-2d8e5b7c4a19

CAUTION:

  This permanently deletes the reading. There is no undo.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}

		if err := dash.Metrics().DeleteMetric(cmd.Context(), uid, args[0]); err != nil {
			return err
		}

		color.Yellow("✗ Deleted reading")
		fmt.Printf("  %s\n", color.New(color.Faint).Sprint(args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
