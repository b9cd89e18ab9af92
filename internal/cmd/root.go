// Package cmd wires the middleware's command-line surface: serve, validate,
// run, doctor, and version, grounded on the same cobra/viper scaffolding the
// teacher uses for its own CLI.
package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/telemetry"
)

// resolvedVersion returns Version unless it is "dev" and Go build info
// contains a real module version.
func resolvedVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

var tracer = telemetry.Tracer("github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/cmd")

var (
	otelShutdown func(context.Context) error

	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose   bool
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "middleware",
	Short: "Event-driven integration middleware",
	Long: `middleware turns an inbound event into a validated, ordered plan of
tool calls against downstream systems, executing each step idempotently with
retry and saga-style compensation on failure.`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()

		shutdown, err := telemetry.Setup(cmd.Context(), "middleware", resolvedVersion())
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		otelShutdown = shutdown

		return nil
	},
}

func setupLogging() {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if logFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
}

// Execute runs the root command and flushes telemetry on exit.
func Execute() error {
	err := rootCmd.Execute()
	if otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(ctx)
	}
	return err
}
