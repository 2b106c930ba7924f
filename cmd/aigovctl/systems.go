package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var systemsCmd = &cobra.Command{
	Use:   "systems",
	Short: "Manage AI systems and their lifecycle",
}

var (
	createRegulation  string
	createAccountable string
)

var systemsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register a new AI system in the draft stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		body := map[string]string{
			"name":              args[0],
			"regulation":        createRegulation,
			"accountablePerson": createAccountable,
		}
		var result map[string]any
		if err := client.postJSON(apiBase+"/systems", body, &result); err != nil {
			return fmt.Errorf("failed to create system: %w", err)
		}
		return printOutput(result)
	},
}

var listRegulation string

var systemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List AI systems",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		path := apiBase + "/systems"
		if listRegulation != "" {
			path += "?regulation=" + listRegulation
		}

		var result struct {
			Systems []struct {
				ID                string `json:"id"`
				Name              string `json:"name"`
				Regulation        string `json:"regulation"`
				LifecycleStage    string `json:"lifecycleStage"`
				AccountablePerson string `json:"accountablePerson"`
			} `json:"systems"`
		}
		if err := client.getJSON(path, &result); err != nil {
			return fmt.Errorf("failed to list systems: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"ID", "Name", "Regulation", "Stage", "Accountable"}
		rows := make([][]string, 0, len(result.Systems))
		for _, s := range result.Systems {
			rows = append(rows, []string{s.ID, truncate(s.Name, 40), s.Regulation, s.LifecycleStage, s.AccountablePerson})
		}
		printTable(headers, rows)
		return nil
	},
}

var systemsGetCmd = &cobra.Command{
	Use:   "get <system-id>",
	Short: "Get an AI system with its composite risk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		var result map[string]any
		if err := client.getJSON(apiBase+"/systems/"+args[0], &result); err != nil {
			return fmt.Errorf("failed to get system: %w", err)
		}
		return printOutput(result)
	},
}

var transitionReason string

var systemsTransitionCmd = &cobra.Command{
	Use:   "transition <system-id> <target-stage>",
	Short: "Attempt a lifecycle transition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		body := map[string]string{
			"targetStage": args[1],
			"reason":      transitionReason,
		}
		var result map[string]any
		if err := client.postJSON(apiBase+"/systems/"+args[0]+"/lifecycle", body, &result); err != nil {
			return fmt.Errorf("transition failed: %w", err)
		}
		return printOutput(result)
	},
}

var systemsHistoryCmd = &cobra.Command{
	Use:   "history <system-id>",
	Short: "List a system's lifecycle history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		var result struct {
			Entries []struct {
				PreviousStage string `json:"previousStage"`
				NewStage      string `json:"newStage"`
				ChangedBy     string `json:"changedBy"`
				Reason        string `json:"reason"`
				ChangedAt     string `json:"changedAt"`
			} `json:"entries"`
		}
		if err := client.getJSON(apiBase+"/systems/"+args[0]+"/history", &result); err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"From", "To", "Changed By", "Reason", "Changed At"}
		rows := make([][]string, 0, len(result.Entries))
		for _, e := range result.Entries {
			rows = append(rows, []string{e.PreviousStage, e.NewStage, e.ChangedBy, truncate(e.Reason, 40), e.ChangedAt})
		}
		printTable(headers, rows)
		return nil
	},
}

var systemsApproveComplianceCmd = &cobra.Command{
	Use:   "approve-compliance <system-id>",
	Short: "Attempt compliance approval (runs the shadow-AI gate)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		if err := client.postJSON(apiBase+"/systems/"+args[0]+"/compliance/approve", map[string]string{}, nil); err != nil {
			return fmt.Errorf("compliance approval failed: %w", err)
		}
		fmt.Println("compliance approved")
		return nil
	},
}

func init() {
	systemsCreateCmd.Flags().StringVar(&createRegulation, "regulation", "EU", "Regulation family: EU, UK, or MAS")
	systemsCreateCmd.Flags().StringVar(&createAccountable, "accountable", "", "Accountable person")
	systemsListCmd.Flags().StringVar(&listRegulation, "regulation", "", "Filter by regulation family")
	systemsTransitionCmd.Flags().StringVar(&transitionReason, "reason", "", "Reason for the transition")

	systemsCmd.AddCommand(systemsCreateCmd)
	systemsCmd.AddCommand(systemsListCmd)
	systemsCmd.AddCommand(systemsGetCmd)
	systemsCmd.AddCommand(systemsTransitionCmd)
	systemsCmd.AddCommand(systemsHistoryCmd)
	systemsCmd.AddCommand(systemsApproveComplianceCmd)
}
