package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// jobOutput represents the filtered output for a job
type jobOutput struct {
	JobID      string `json:"job_id"`
	SearchTerm string `json:"search_term"`
	Status     string `json:"status"`
	Discovered int    `json:"items_discovered"`
	Processed  int    `json:"items_processed"`
}

// jobListOutput represents the filtered output for a list of jobs
type jobListOutput struct {
	Jobs []jobOutput `json:"jobs"`
}

func init() {
	jobsCmd.AddCommand(listJobsCmd)
	jobsCmd.AddCommand(getJobCmd)
	jobsCmd.AddCommand(cancelJobCmd)

	// Add flags
	listJobsCmd.Flags().IntP("limit", "l", 0, "Limit the number of jobs returned")
	listJobsCmd.Flags().String("status", "", "Filter jobs by status")

	getJobCmd.Flags().StringP("id", "i", "", "Job ID to fetch")
	_ = getJobCmd.MarkFlagRequired("id")

	cancelJobCmd.Flags().StringP("id", "i", "", "Job ID to cancel")
	_ = cancelJobCmd.MarkFlagRequired("id")
}

// GetJobsCmd returns the jobs command group
func GetJobsCmd() *cobra.Command {
	return jobsCmd
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage scrape jobs",
}

var listJobsCmd = &cobra.Command{
	Use:   "list",
	Short: "List scrape jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")

		jobs, err := apiClient.ListScrapeJobs(context.Background(), status, limit)
		if err != nil {
			return fmt.Errorf("error fetching jobs: %w", err)
		}

		output := jobListOutput{Jobs: make([]jobOutput, len(jobs))}
		for i, job := range jobs {
			output.Jobs[i] = jobOutput{
				JobID:      job.JobID,
				SearchTerm: job.SearchTerm,
				Status:     job.Status,
				Discovered: job.ItemsDiscovered,
				Processed:  job.ItemsProcessed,
			}
		}

		return printJSON(output)
	},
}

var getJobCmd = &cobra.Command{
	Use:   "get",
	Short: "Get a scrape job's status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetString("id")

		data, err := apiClient.GetScrapeStatus(context.Background(), id)
		if err != nil {
			return fmt.Errorf("error fetching job: %w", err)
		}
		return printRawJSON(data)
	},
}

var cancelJobCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a running scrape job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetString("id")

		job, err := apiClient.CancelScrape(context.Background(), id)
		if err != nil {
			return fmt.Errorf("error cancelling job: %w", err)
		}
		fmt.Printf("Job %s is now %s\n", job.ID, job.Status)
		return nil
	},
}

// printJSON pretty prints a value as JSON
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// printRawJSON pretty prints an already-encoded JSON payload
func printRawJSON(data json.RawMessage) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("error decoding output: %w", err)
	}
	return printJSON(v)
}
