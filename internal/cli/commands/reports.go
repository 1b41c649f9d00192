package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/api/client"
	"github.com/spf13/cobra"
)

func NewReportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Short:   "Scheduled report commands",
		Aliases: []string{"report", "r"},
	}

	cmd.AddCommand(newReportsListCommand())
	cmd.AddCommand(newReportsCreateCommand())
	cmd.AddCommand(newReportsEnableCommand())
	cmd.AddCommand(newReportsDisableCommand())
	cmd.AddCommand(newReportsDeleteCommand())
	cmd.AddCommand(newReportsRunCommand())
	cmd.AddCommand(newReportsHistoryCommand())
	cmd.AddCommand(newReportsDueCommand())

	return cmd
}

func newReportsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your scheduled reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			reports, err := c.ListScheduledReports()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tFREQUENCY\tENABLED\tLAST RUN\tNEXT RUN")
			for _, r := range reports {
				lastRun := "-"
				if r.LastRun != nil {
					lastRun = r.LastRun.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
					r.ID, r.Name, r.Schedule.Frequency, r.Enabled, lastRun, r.NextRun.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func newReportsCreateCommand() *cobra.Command {
	var templateID, frequency, timezone string
	var hour, minute int
	var recipients []string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a scheduled report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			created, err := c.CreateScheduledReport(map[string]interface{}{
				"name":        args[0],
				"template_id": templateID,
				"schedule": map[string]interface{}{
					"frequency": frequency,
					"hour":      hour,
					"minute":    minute,
					"timezone":  timezone,
				},
				"recipients": recipients,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created scheduled report %s (%s), next run %s\n",
				created.Name, created.ID, created.NextRun.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "Template id")
	cmd.Flags().StringVar(&frequency, "frequency", "daily", "Frequency (daily|weekly|monthly|quarterly|yearly|custom)")
	cmd.Flags().IntVar(&hour, "hour", 6, "Hour of day (0-23)")
	cmd.Flags().IntVar(&minute, "minute", 0, "Minute (0-59)")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "IANA timezone")
	cmd.Flags().StringSliceVar(&recipients, "recipient", nil, "Recipient email (repeatable)")
	cmd.MarkFlagRequired("template")
	return cmd
}

func newReportsEnableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable [id]",
		Short: "Enable a scheduled report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}
			if err := c.SetEnabled(args[0], true); err != nil {
				return err
			}
			fmt.Println("Enabled")
			return nil
		},
	}
}

func newReportsDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable [id]",
		Short: "Disable a scheduled report without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}
			if err := c.SetEnabled(args[0], false); err != nil {
				return err
			}
			fmt.Println("Disabled")
			return nil
		},
	}
}

func newReportsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a scheduled report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}
			if err := c.DeleteScheduledReport(args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted")
			return nil
		},
	}
}

func newReportsRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run [id]",
		Short: "Trigger a manual run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}
			if err := c.RunScheduledReport(args[0]); err != nil {
				return err
			}
			fmt.Println("Execution started")
			return nil
		},
	}
}

func newReportsHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show execution history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			executions, err := c.ExecutionHistory(args[0], limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tDURATION\tFILE\tERROR")
			for _, e := range executions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%dms\t%s\t%s\n",
					e.ID, e.Status, e.StartedAt.Format(time.RFC3339), e.ExecutionTimeMs, e.FileURL, e.ErrorMessage)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of executions to show")
	return cmd
}

func newReportsDueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "Show reports currently due for execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			due, err := c.DueReports()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tNEXT RUN")
			for _, r := range due {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.Name, r.NextRun.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}
