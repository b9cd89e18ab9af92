package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/config"
	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/doctor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run preflight checks against the configured outbox, policy, services, and broker",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	report := doctor.Run(ctx, cfg)
	out := cmd.OutOrStdout()

	for _, c := range report.Checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
		}
		fmt.Fprintf(out, "%s %s: %s\n", mark, c.Name, c.Detail)
	}
	for _, w := range report.Warnings {
		if !w.OK {
			fmt.Fprintf(out, "⚠ %s: %s\n", w.Name, w.Detail)
		} else {
			fmt.Fprintf(out, "✓ %s: %s\n", w.Name, w.Detail)
		}
	}

	if !report.Passed {
		return fmt.Errorf("preflight checks failed")
	}
	fmt.Fprintln(out, "\nAll checks passed.")
	return nil
}
