package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and manage governance tasks",
}

var tasksBlocking bool

var tasksListCmd = &cobra.Command{
	Use:   "list <system-id>",
	Short: "List a system's governance tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		path := apiBase + "/systems/" + args[0] + "/tasks"
		if tasksBlocking {
			path += "?blocking=true"
		}

		var result struct {
			Tasks []struct {
				Title        string `json:"title"`
				Status       string `json:"status"`
				Blocking     bool   `json:"blocking"`
				EvidenceLink string `json:"evidenceLink"`
				CompletedAt  string `json:"completedAt"`
			} `json:"tasks"`
		}
		if err := client.getJSON(path, &result); err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		if outputFmt == "json" || outputFmt == "yaml" {
			return printOutput(result)
		}

		headers := []string{"Title", "Status", "Blocking", "Evidence", "Completed At"}
		rows := make([][]string, 0, len(result.Tasks))
		for _, t := range result.Tasks {
			rows = append(rows, []string{truncate(t.Title, 50), t.Status, fmt.Sprintf("%t", t.Blocking), truncate(t.EvidenceLink, 30), t.CompletedAt})
		}
		printTable(headers, rows)
		return nil
	},
}

var tasksReEvaluateCmd = &cobra.Command{
	Use:   "re-evaluate <system-id>",
	Short: "Re-run task derivation and reconciliation for a system",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		var result map[string]any
		if err := client.postJSON(apiBase+"/systems/"+args[0]+"/tasks/re-evaluate", map[string]string{}, &result); err != nil {
			return fmt.Errorf("re-evaluation failed: %w", err)
		}
		return printOutput(result)
	},
}

var (
	evidenceTitle string
	evidenceLink  string
)

var tasksEvidenceCmd = &cobra.Command{
	Use:   "evidence <system-id>",
	Short: "Attach an evidence link to a governance task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		body := map[string]string{
			"title":        evidenceTitle,
			"evidenceLink": evidenceLink,
		}
		if err := client.postJSON(apiBase+"/systems/"+args[0]+"/tasks/evidence", body, nil); err != nil {
			return fmt.Errorf("failed to set evidence link: %w", err)
		}
		fmt.Println("evidence link set")
		return nil
	},
}

func init() {
	tasksListCmd.Flags().BoolVar(&tasksBlocking, "blocking", false, "Only open blocking tasks")
	tasksEvidenceCmd.Flags().StringVar(&evidenceTitle, "title", "", "Task title (required)")
	tasksEvidenceCmd.Flags().StringVar(&evidenceLink, "link", "", "Evidence link")
	_ = tasksEvidenceCmd.MarkFlagRequired("title")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksReEvaluateCmd)
	tasksCmd.AddCommand(tasksEvidenceCmd)
}
