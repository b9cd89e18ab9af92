// Command middleware is the event-driven integration middleware's CLI
// entrypoint: serve, validate, run, doctor, and version.
package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/cmd"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.BuildDate = buildDate

	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("middleware_exited_with_error")
		os.Exit(1)
	}
}
