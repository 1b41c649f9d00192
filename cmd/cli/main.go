package main

import (
	"fmt"
	"os"

	"github.com/Celag1/logicqp-sub003/internal/cli/commands"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "logicqp-reports",
		Short: "CLI for the LogicQP scheduled report engine",
		Long: `Manage report templates and scheduled reports, trigger manual runs
and inspect execution history against a running report engine.

Set LOGICQP_API_URL and LOGICQP_API_TOKEN to point at the server.`,
	}

	rootCmd.AddCommand(commands.NewTemplatesCommand())
	rootCmd.AddCommand(commands.NewReportsCommand())
	rootCmd.AddCommand(commands.NewDashboardCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
