package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/leadpitch/leadpitch/internal/api/v1/client"
)

// flag names
const (
	flagServerAddress = "server-address"
)

// environment variable names
const (
	envServerAddress = "LEADPITCH_SERVER_ADDRESS"
)

var (
	// apiClient is the shared API client instance
	apiClient *client.Client
	// serverAddress holds the target API server address. Flag parsing sets this.
	serverAddress string
)

// initClient initializes the API client
func initClient() error {
	var err error
	opts := client.DefaultOptions()
	opts.BaseURL = serverAddress

	apiClient, err = client.NewClient(opts)
	return err
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", client.DefaultBaseURL,
		"Address of the leadpitch API server (env: LEADPITCH_SERVER_ADDRESS)")

	RootCmd.AddCommand(GetScrapeCmd())
	RootCmd.AddCommand(GetJobsCmd())
	RootCmd.AddCommand(GetLeadsCmd())
	RootCmd.AddCommand(GetServeCmd())
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "leadpitch",
	Short: "leadpitch CLI - scrape, inspect and pitch local business leads",
	Long: `leadpitch is a command line tool for running lead-scraping jobs and
inspecting the resulting leads through the leadpitch API.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()

		// Flag > env var > default
		if !cmd.Flags().Changed(flagServerAddress) {
			if envAddr := os.Getenv(envServerAddress); envAddr != "" {
				serverAddress = envAddr
			}
		}
		if serverAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}
		return initClient()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}
