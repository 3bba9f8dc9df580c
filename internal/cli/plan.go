package cli

import (
	"github.com/spf13/cobra"
)

// planCommand creates the plan command.
func (c *CLI) planCommand() *cobra.Command {
	var (
		flags  evalFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Evaluate the deployment manifest into a resource catalog",
		Long: `Evaluate the deployment manifest of the configured Rails application and
write the resulting catalog as JSON.

Examples:
  railcar plan
  railcar plan --env staging -o catalog.json
  railcar plan --snapshot inventory.yml --offline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.evaluate(cmd.Context(), &flags)
			if err != nil {
				return err
			}

			w, err := writeOutput(output)
			if err != nil {
				return err
			}
			if err := cat.WriteJSON(w); err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}

			if output != "" && output != "-" {
				printSuccess("Catalog %s", StyleHighlight.Render(cat.ID))
				printFile(output)
				printCatalogStats(cat)
				printNextStep("Render it", "railcar graph --from "+output+" --format svg")
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}
