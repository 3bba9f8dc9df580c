package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/railcar/pkg/catalog"
	"github.com/matzehuels/railcar/pkg/dag"
	"github.com/matzehuels/railcar/pkg/deploy"
	"github.com/matzehuels/railcar/pkg/gems"
	"github.com/matzehuels/railcar/pkg/resource"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		flags  evalFlags
		source string
		alias  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <gem>[@version]",
		Short: "Show the resources declared for a single gem",
		Long: `Resolve one gem against the inventory and print the package resource
railcar declares for it, along with the system packages it requires.

Examples:
  railcar resolve nokogiri
  railcar resolve pg@1.5.4 --snapshot inventory.json
  railcar resolve rmagick --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			spec := parseGemArg(args[0])
			spec.Source = source
			spec.Alias = alias
			if err := gems.ValidateSpec(spec); err != nil {
				return err
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			src, mc, err := flags.sources(cfg, logger)
			if err != nil {
				return err
			}
			defer mc.Close()

			opts, err := deploy.NewOptions(ctx, cfg, src)
			if err != nil {
				return err
			}
			reg := resource.NewRegistry()
			r, err := gems.NewResolver(reg, gems.Options{
				SystemPackages: opts.SystemPackages,
				Inventory:      opts.Inventory,
				Metadata:       opts.Metadata,
				MaxDepth:       cfg.Metadata.MaxDepth,
				MaxNodes:       cfg.Metadata.MaxNodes,
				Logger:         logger,
			})
			if err != nil {
				return err
			}

			prog := newProgress(logger)
			res, err := r.Resolve(ctx, spec)
			if err != nil {
				return err
			}
			prog.done("Resolved " + spec.String())

			if asJSON {
				cat, err := catalog.New(reg, cfg.Application, cfg.RailsEnv)
				if err != nil {
					return err
				}
				return cat.WriteJSON(os.Stdout)
			}
			return printResolved(reg, res)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&source, "source", "", "alternative gem source URL")
	cmd.Flags().StringVar(&alias, "alias", "", "alternative reference name for the package")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the declared resources as a catalog")

	return cmd
}

// parseGemArg splits "name@version" into a gem request.
func parseGemArg(arg string) gems.Spec {
	name, version, _ := strings.Cut(arg, "@")
	return gems.Spec{Name: name, Version: version}
}

// printResolved prints a gem package resource and the system packages
// ordered before it.
func printResolved(reg *resource.Registry, res *resource.Resource) error {
	g, err := reg.Graph()
	if err != nil {
		return err
	}

	pkg, _ := res.Package()
	printSuccess("%s", StyleHighlight.Render(res.ID.String()))
	printKeyValue("ensure", pkg.Ensure)
	printKeyValue("provider", pkg.Provider)
	if pkg.Source != "" {
		printKeyValue("source", pkg.Source)
	}
	if pkg.Alias != "" {
		printKeyValue("alias", pkg.Alias)
	}

	system := systemPackages(g, res.ID)
	if len(system) == 0 {
		printDetail("no system packages")
		return nil
	}
	printKeyValue("requires", fmt.Sprintf("%d system packages", len(system)))
	for _, name := range system {
		printDetail("%s", name)
	}
	return nil
}

// systemPackages returns the names of the non-gem packages ordered directly
// before id.
func systemPackages(g *dag.DAG, id resource.ID) []string {
	var out []string
	for _, ref := range g.Parents(id.String()) {
		n, ok := g.Node(ref)
		if !ok || n.Meta["kind"] != string(resource.KindPackage) {
			continue
		}
		if attrs, _ := n.Meta["attrs"].(map[string]any); attrs["provider"] == gems.ProviderGem {
			continue
		}
		name, _ := n.Meta["name"].(string)
		out = append(out, name)
	}
	return out
}
