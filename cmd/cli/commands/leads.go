package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// leadOutput represents the filtered output for a lead
type leadOutput struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
	Email   string `json:"email,omitempty"`
	Status  string `json:"status"`
}

func init() {
	leadsCmd.AddCommand(listLeadsCmd)

	listLeadsCmd.Flags().IntP("limit", "l", 0, "Limit the number of leads returned")
	listLeadsCmd.Flags().String("status", "", "Filter leads by pipeline status")
}

// GetLeadsCmd returns the leads command group
func GetLeadsCmd() *cobra.Command {
	return leadsCmd
}

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect scraped leads",
}

var listLeadsCmd = &cobra.Command{
	Use:   "list",
	Short: "List scraped leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")

		leads, err := apiClient.ListLeads(context.Background(), status, limit)
		if err != nil {
			return fmt.Errorf("error fetching leads: %w", err)
		}

		output := make([]leadOutput, len(leads))
		for i, lead := range leads {
			output[i] = leadOutput{
				ID:      lead.ID,
				Name:    lead.Name,
				Phone:   lead.Phone,
				Website: lead.Website,
				Email:   lead.Email,
				Status:  string(lead.Status),
			}
		}

		return printJSON(output)
	},
}
