package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Celag1/logicqp-sub003/internal/api/client"
	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/spf13/cobra"
)

func NewTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Short:   "Report template commands",
		Aliases: []string{"template", "t"},
	}

	cmd.AddCommand(newTemplatesListCommand())
	cmd.AddCommand(newTemplatesCreateCommand())

	return cmd
}

func newTemplatesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List report templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			templates, err := c.ListTemplates()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tFORMAT\tDESCRIPTION")
			for _, t := range templates {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Type, t.Format, t.Description)
			}
			return w.Flush()
		},
	}
}

func newTemplatesCreateCommand() *cobra.Command {
	var templateType, format, description string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a report template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return fmt.Errorf("failed to create client: %v", err)
			}

			created, err := c.CreateTemplate(&models.ReportTemplate{
				Name:        args[0],
				Description: description,
				Type:        models.ReportType(templateType),
				Format:      models.ReportFormat(format),
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created template %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateType, "type", "t", "sales", "Report type (sales|inventory|financial|custom)")
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "Output format (pdf|excel|csv|json)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Template description")
	return cmd
}
