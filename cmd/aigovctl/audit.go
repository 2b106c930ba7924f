package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditListCmd = &cobra.Command{
	Use:   "list <system-id>",
	Short: "List a system's audit events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		var result struct {
			Events []struct {
				EventType string `json:"eventType"`
				Actor     string `json:"actor"`
				Outcome   string `json:"outcome"`
				Reason    string `json:"reason"`
				CreatedAt string `json:"createdAt"`
			} `json:"events"`
			TotalSize int `json:"totalSize"`
		}
		if err := client.getJSON(apiBase+"/systems/"+args[0]+"/audit", &result); err != nil {
			return fmt.Errorf("failed to list audit events: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"Event", "Actor", "Outcome", "Reason", "At"}
		rows := make([][]string, 0, len(result.Events))
		for _, e := range result.Events {
			rows = append(rows, []string{e.EventType, e.Actor, e.Outcome, truncate(e.Reason, 50), e.CreatedAt})
		}
		printTable(headers, rows)
		fmt.Printf("Total: %d\n", result.TotalSize)
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditListCmd)
}
