package commands

import (
	"fmt"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/api/client"
	"github.com/spf13/cobra"
)

func NewDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show report engine dashboard statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			stats, err := c.Dashboard()
			if err != nil {
				return err
			}

			fmt.Printf("Scheduled reports:  %d (%d active)\n", stats.TotalScheduledReports, stats.ActiveScheduledReports)
			fmt.Printf("Executions today:   %d\n", stats.ExecutionsToday)
			fmt.Printf("Success rate (30d): %.1f%%\n", stats.SuccessRate)
			fmt.Printf("Avg execution time: %.1fms\n", stats.AvgExecutionTimeMs)
			if stats.NextExecution != nil {
				fmt.Printf("Next execution:     %s at %s\n",
					stats.NextExecution.Name, stats.NextExecution.NextRun.Format(time.RFC3339))
			}
			return nil
		},
	}
}
