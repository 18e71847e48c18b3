package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/llmreader/internal/config"
	"github.com/mrlokans/llmreader/internal/entrypoint"
)

func newServeCmd(version string) *cobra.Command {
	var (
		host string
		port int32
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the reader web server",
		Example: `  # Serve the library in the current directory
  LLMREADER_PASSWORD=secret llmreader serve

  # Serve another library on a custom port
  BOOKS_DIR=/srv/books llmreader serve --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			if cmd.Flags().Changed("host") {
				cfg.HTTP.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.HTTP.Port = port
			}
			return entrypoint.Run(cmd.Context(), cfg, version)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Address to bind (overrides HOST)")
	cmd.Flags().Int32VarP(&port, "port", "p", 0, "Port to listen on (overrides PORT)")

	return cmd
}
