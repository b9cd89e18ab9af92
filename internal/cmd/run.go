package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/eventing"
)

var runEventFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a single event through the pipeline and print its outcome",
	Long:  "Reads one event as JSON from --file or stdin, runs it through the full plan-execute-critic pipeline once, and prints the resulting outcome as JSON. Useful for replaying a failed event against the same durable outbox.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runEventFile, "file", "f", "", "event JSON file (default: read from stdin)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	_, span := tracer.Start(ctx, "run")
	defer span.End()

	var raw []byte
	var err error
	if runEventFile != "" {
		raw, err = os.ReadFile(runEventFile)
	} else {
		raw, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("reading event: %w", err)
	}

	event, err := eventing.DecodeEvent(raw)
	if err != nil {
		return fmt.Errorf("parsing event: %w", err)
	}

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	outcome, err := d.orch.HandleEvent(ctx, event)
	if err != nil {
		return fmt.Errorf("handling event: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}
