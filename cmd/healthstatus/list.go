// ABOUTME: CLI command for listing readings in the 30-day or one-year window.
// ABOUTME: Supports filtering by status type and limiting results.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/healthstatus/internal/metrics"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/spf13/cobra"
)

var (
	listType    string
	listYear    bool
	listLimit   int
	listFullIDs bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List readings",
	Long: `List readings from the last 30 days (or the last year with --year), newest first.

OUTPUT FORMAT:

  Each line shows: ID  DATE  VALUE  (RANGE)

  The ID is an 8-character prefix; 'healthstatus delete' needs the full ID
  shown by --full-ids.

EXAMPLES:

  healthstatus list                          # All status types, last 30 days
  healthstatus list --type blood-pressure    # One type
  healthstatus list -t sleep-quality --year  # One type, last year`,
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, err := currentUserID()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var types []models.StatusType
		if listType != "" {
			st, err := dash.Registry().Resolve(ctx, uid, listType)
			if err != nil {
				return err
			}
			types = []models.StatusType{st}
		} else {
			types, err = dash.Registry().List(ctx, uid)
			if err != nil {
				return err
			}
		}

		m := dash.Metrics()
		fetch := m.FetchLastMonth
		if listYear {
			fetch = m.FetchLastYear
		}

		faint := color.New(color.Faint)
		found := false
		for _, st := range types {
			records, err := fetch(ctx, uid, st.ID)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				continue
			}
			found = true
			if listLimit > 0 && len(records) > listLimit {
				records = records[:listLimit]
			}

			color.New(color.Bold).Println(st.Name)
			for _, r := range records {
				id := shortID(r.ID)
				if listFullIDs {
					id = r.ID
				}
				fmt.Printf("  %s %s %s %s\n",
					faint.Sprint(id),
					faint.Sprint(r.Timestamp.In(m.Location()).Format(metrics.DateLayout)),
					padRight(r.Value, 8),
					bucketLabel(r.Value, st.Thresholds))
			}
		}

		if !found {
			fmt.Println("No readings found.")
		}
		return nil
	},
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "filter by status type")
	listCmd.Flags().BoolVar(&listYear, "year", false, "use the one-year window instead of 30 days")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "max readings per type (0 for all)")
	listCmd.Flags().BoolVar(&listFullIDs, "full-ids", false, "print full record IDs")
	rootCmd.AddCommand(listCmd)
}
