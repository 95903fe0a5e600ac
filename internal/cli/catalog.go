package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/carbon-tracker/internal/catalog"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect reference data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check [file]",
		Short: "Validate a catalog file, or the configured one when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.CatalogPath
			if len(args) == 1 {
				path = args[0]
			}

			cat := catalog.Default()
			if path != "" {
				var err error
				if cat, err = catalog.Load(path); err != nil {
					return err
				}
			} else {
				path = "embedded catalog"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d routes, %d stores, %d local activities\n",
				path, len(cat.Routes), len(cat.Stores), len(cat.LocalActivities))
			return nil
		},
	})

	return cmd
}
