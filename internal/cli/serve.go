package cli

import (
	"github.com/spf13/cobra"

	"github.com/sakif/carbon-tracker/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.applyStoreFlags(cmd)
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}

			srv, err := server.New(a.cfg, a.logger)
			if err != nil {
				return err
			}
			return srv.Start()
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "listen port (overrides PORT)")
	return cmd
}
