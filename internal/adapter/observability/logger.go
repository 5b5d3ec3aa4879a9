// Package observability builds the structured request/response logger from
// configuration.
package observability

import (
	"os"

	"golang.org/x/term"

	"github.com/llmgate/llmgate/internal/adapter/llm"
)

// Options are the logging settings resolved from config.
type Options struct {
	Enabled bool
	Level   string
	Format  string
}

// NewLogger constructs the llm.Logger described by opts, or nil when
// logging is disabled. Unknown levels fall back to info; unknown formats
// fall back to auto.
func NewLogger(opts Options) llm.Logger {
	if !opts.Enabled {
		return nil
	}
	return llm.NewDefaultLogger(resolveLevel(opts.Level), ResolveFormat(opts.Format))
}

func resolveLevel(level string) llm.LogLevel {
	switch level {
	case "debug":
		return llm.LogLevelDebug
	case "error":
		return llm.LogLevelError
	default:
		return llm.LogLevelInfo
	}
}

// ResolveFormat maps a config format string to a log format. "auto" picks
// human output when stderr is a terminal and JSON otherwise, so hook runs in
// CI produce machine-readable logs without configuration.
func ResolveFormat(format string) llm.LogFormat {
	switch format {
	case "human":
		return llm.LogFormatHuman
	case "json":
		return llm.LogFormatJSON
	default:
		if IsTTY(os.Stderr.Fd()) {
			return llm.LogFormatHuman
		}
		return llm.LogFormatJSON
	}
}

// IsTTY checks if the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}
