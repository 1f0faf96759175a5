package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// GetScrapeCmd returns the scrape command
func GetScrapeCmd() *cobra.Command {
	return scrapeCmd
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <search term>",
	Short: "Start a scrape job for a search term",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		searchTerm := strings.Join(args, " ")

		job, err := apiClient.SubmitScrape(context.Background(), searchTerm)
		if err != nil {
			return fmt.Errorf("error submitting scrape job: %w", err)
		}

		fmt.Printf("Submitted job %s (%s)\n", job.ID, job.Status)
		fmt.Printf("Track it with: leadpitch jobs get -i %s\n", job.ID)
		return nil
	},
}
