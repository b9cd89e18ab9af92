package telemetry

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/sanitize"
)

// NewLogger builds a zerolog logger writing structured JSON to stdout. The
// CLI's process-wide logger is built separately by internal/cmd.
// Field-level redaction happens at the call site via EventFields, since
// zerolog hooks see only the message and level, not individual fields.
func NewLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// EventFields attaches a redacted payload map to a log event under the given
// key, routing it through the logger's sanitizer first.
func EventFields(sanitizer *sanitize.Sanitizer, e *zerolog.Event, key string, payload map[string]interface{}) *zerolog.Event {
	return e.Interface(key, sanitizer.Redact(payload))
}
