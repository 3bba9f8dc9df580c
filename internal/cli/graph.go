package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/railcar/pkg/catalog"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags    evalFlags
		from     string
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the catalog ordering graph as DOT or SVG",
		Long: `Render the ordering graph of a catalog. Solid edges are explicit
"before" constraints, dashed edges are requirements.

The catalog is evaluated from the configuration unless --from names a
catalog written by railcar plan.

Examples:
  railcar graph > catalog.dot
  railcar graph --format svg -o catalog.svg --detailed
  railcar graph --from catalog.json --format svg -o catalog.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if format != formatDOT && format != formatSVG {
				return fmt.Errorf("unsupported format %q (use %s or %s)", format, formatDOT, formatSVG)
			}

			var (
				cat *catalog.Catalog
				err error
			)
			if from != "" {
				cat, err = catalog.Import(from)
			} else {
				cat, err = c.evaluate(ctx, &flags)
			}
			if err != nil {
				return err
			}

			data := []byte(catalog.ToDOT(cat, catalog.Options{Detailed: detailed}))
			if format == formatSVG {
				if data, err = catalog.RenderSVG(ctx, string(data)); err != nil {
					return err
				}
			}

			w, err := writeOutput(output)
			if err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			if output != "" && output != "-" {
				printSuccess("Rendered %s", format)
				printFile(output)
				printCatalogStats(cat)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "read a catalog JSON file instead of evaluating")
	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show tiers and attributes in node labels")

	return cmd
}
