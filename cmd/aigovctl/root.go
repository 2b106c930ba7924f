package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
	actor     string
)

var rootCmd = &cobra.Command{
	Use:   "aigovctl",
	Short: "CLI for the governance workflow server",
	Long: `aigovctl manages AI systems, lifecycle transitions, risk assessments,
and governance tasks against a running governance workflow server.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Governance server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&actor, "as", "", "Actor to act as (default: from AIGOV_ACTOR env or local user)")

	rootCmd.AddCommand(systemsCmd)
	rootCmd.AddCommand(assessmentsCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(auditCmd)
}

// resolvedActor returns the effective actor.
// Priority: --as flag > AIGOV_ACTOR env var > local username.
func resolvedActor() string {
	if actor != "" {
		return actor
	}
	if a := os.Getenv("AIGOV_ACTOR"); a != "" {
		return a
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "aigovctl"
}
