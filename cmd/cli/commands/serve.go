package commands

import (
	"github.com/spf13/cobra"

	"github.com/leadpitch/leadpitch/internal/app"
	"github.com/leadpitch/leadpitch/internal/logger"
)

// GetServeCmd returns the serve command
func GetServeCmd() *cobra.Command {
	return serveCmd
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the leadpitch API server",
	RunE: func(_ *cobra.Command, _ []string) error {
		logger.Initialize()

		server, err := app.New()
		if err != nil {
			return err
		}
		return server.Listen()
	},
}
