package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var assessmentsCmd = &cobra.Command{
	Use:   "assessments",
	Short: "Manage risk assessments",
}

var (
	assessCategory string
	assessSummary  string
	assessRisk     string
	assessEvidence []string
)

var assessmentsCreateCmd = &cobra.Command{
	Use:   "create <system-id>",
	Short: "Create a draft risk assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		body := map[string]any{
			"category":      assessCategory,
			"summary":       assessSummary,
			"riskLevel":     assessRisk,
			"evidenceLinks": assessEvidence,
		}
		var result map[string]any
		if err := client.postJSON(apiBase+"/systems/"+args[0]+"/assessments", body, &result); err != nil {
			return fmt.Errorf("failed to create assessment: %w", err)
		}
		return printOutput(result)
	},
}

var assessmentsListCmd = &cobra.Command{
	Use:   "list <system-id>",
	Short: "List a system's risk assessments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		var result struct {
			Assessments []struct {
				ID               string `json:"id"`
				Category         string `json:"category"`
				RiskLevel        string `json:"riskLevel"`
				Status           string `json:"status"`
				MitigationStatus string `json:"mitigationStatus"`
				AssessedBy       string `json:"assessedBy"`
			} `json:"assessments"`
		}
		if err := client.getJSON(apiBase+"/systems/"+args[0]+"/assessments", &result); err != nil {
			return fmt.Errorf("failed to list assessments: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"ID", "Category", "Risk", "Status", "Mitigation", "Assessed By"}
		rows := make([][]string, 0, len(result.Assessments))
		for _, a := range result.Assessments {
			rows = append(rows, []string{a.ID, truncate(a.Category, 30), a.RiskLevel, a.Status, a.MitigationStatus, a.AssessedBy})
		}
		printTable(headers, rows)
		return nil
	},
}

var assessmentsSubmitCmd = &cobra.Command{
	Use:   "submit <assessment-id>",
	Short: "Submit a draft assessment for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		if err := client.postJSON(apiBase+"/assessments/"+args[0]+"/submit", map[string]string{}, nil); err != nil {
			return fmt.Errorf("submit failed: %w", err)
		}
		fmt.Println("assessment submitted")
		return nil
	},
}

var reviewComment string

var assessmentsApproveCmd = &cobra.Command{
	Use:   "approve <assessment-id>",
	Short: "Approve a submitted assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		body := map[string]string{"comment": reviewComment}
		if err := client.postJSON(apiBase+"/assessments/"+args[0]+"/approve", body, nil); err != nil {
			return fmt.Errorf("approve failed: %w", err)
		}
		fmt.Println("assessment approved")
		return nil
	},
}

var assessmentsRejectCmd = &cobra.Command{
	Use:   "reject <assessment-id>",
	Short: "Reject a submitted assessment (comment required)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		body := map[string]string{"comment": reviewComment}
		if err := client.postJSON(apiBase+"/assessments/"+args[0]+"/reject", body, nil); err != nil {
			return fmt.Errorf("reject failed: %w", err)
		}
		fmt.Println("assessment rejected")
		return nil
	},
}

var mitigationStatus string

var assessmentsMitigationCmd = &cobra.Command{
	Use:   "mitigation <assessment-id>",
	Short: "Update an assessment's mitigation status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		body := map[string]string{"mitigationStatus": mitigationStatus}
		if err := client.putJSON(apiBase+"/assessments/"+args[0]+"/mitigation", body, nil); err != nil {
			return fmt.Errorf("mitigation update failed: %w", err)
		}
		fmt.Println("mitigation status updated")
		return nil
	},
}

func init() {
	assessmentsCreateCmd.Flags().StringVar(&assessCategory, "category", "", "Risk category (required)")
	assessmentsCreateCmd.Flags().StringVar(&assessSummary, "summary", "", "Assessment summary")
	assessmentsCreateCmd.Flags().StringVar(&assessRisk, "risk", "medium", "Risk level: low, medium, or high")
	assessmentsCreateCmd.Flags().StringSliceVar(&assessEvidence, "evidence", nil, "Evidence links")
	_ = assessmentsCreateCmd.MarkFlagRequired("category")

	assessmentsApproveCmd.Flags().StringVar(&reviewComment, "comment", "", "Review comment")
	assessmentsRejectCmd.Flags().StringVar(&reviewComment, "comment", "", "Review comment (required)")
	assessmentsMitigationCmd.Flags().StringVar(&mitigationStatus, "status", "", "Mitigation status: not_started, in_progress, or mitigated")
	_ = assessmentsMitigationCmd.MarkFlagRequired("status")

	assessmentsCmd.AddCommand(assessmentsCreateCmd)
	assessmentsCmd.AddCommand(assessmentsListCmd)
	assessmentsCmd.AddCommand(assessmentsSubmitCmd)
	assessmentsCmd.AddCommand(assessmentsApproveCmd)
	assessmentsCmd.AddCommand(assessmentsRejectCmd)
	assessmentsCmd.AddCommand(assessmentsMitigationCmd)
}
