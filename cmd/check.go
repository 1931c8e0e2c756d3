package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var checkTimeout time.Duration

// checkCmd verifies credentials and lists the reachable projects
var checkCmd = &cobra.Command{
	Use:     "check",
	Short:   "Test connection to TestRail",
	Long:    `Test the connection to your TestRail instance and list the projects the configured user can see.`,
	PreRunE: initializeApp,
	RunE:    runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "give up after this long")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Testing connection to TestRail at %s...\n", testrailClient.BaseURL())

	if err := testrailClient.TestConnection(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Fprintln(out, "✓ Connection successful!")

	projects, err := testrailClient.GetProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to get projects: %w", err)
	}

	fmt.Fprint(out, formatProjects(projects))
	return nil
}
