package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

// Logger provides structured logging for completion endpoint calls.
type Logger interface {
	// LogRequest logs an outgoing completion request
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs a completion response with timing info
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs a completion failure
	LogError(ctx context.Context, err ErrorLog)

	// LogWarning logs a warning message with structured fields
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Endpoint       string
	Timestamp      time.Time
	Attempt        int
	MaxAttempts    int
	PromptChars    int
	TokensEstimate int
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Endpoint    string
	Timestamp   time.Time
	Duration    time.Duration
	StatusCode  int
	AnswerChars int
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Endpoint   string
	Timestamp  time.Time
	Duration   time.Duration
	Attempt    int
	Error      error
	ErrorType  ErrorType
	StatusCode int
	Retryable  bool
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// DefaultLogger writes structured logs through the standard log package.
type DefaultLogger struct {
	level  LogLevel
	format LogFormat
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat) *DefaultLogger {
	return &DefaultLogger{
		level:  level,
		format: format,
	}
}

// LogRequest logs a completion request.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"request","endpoint":"%s","timestamp":"%s","attempt":%d,"max_attempts":%d,"prompt_chars":%d,"tokens_estimate":%d}`,
			req.Endpoint, req.Timestamp.Format(time.RFC3339),
			req.Attempt, req.MaxAttempts, req.PromptChars, req.TokensEstimate)
	} else {
		log.Printf("[DEBUG] %s: Request sent (attempt=%d/%d, prompt=%d chars, ~%d tokens)",
			req.Endpoint, req.Attempt, req.MaxAttempts, req.PromptChars, req.TokensEstimate)
	}
}

// LogResponse logs a completion response.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","type":"response","endpoint":"%s","timestamp":"%s","duration_ms":%d,"status_code":%d,"answer_chars":%d}`,
			resp.Endpoint, resp.Timestamp.Format(time.RFC3339),
			resp.Duration.Milliseconds(), resp.StatusCode, resp.AnswerChars)
	} else {
		log.Printf("[INFO] %s: Response received (duration=%.1fs, status=%d, answer=%d chars)",
			resp.Endpoint, resp.Duration.Seconds(), resp.StatusCode, resp.AnswerChars)
	}
}

// LogError logs a completion failure.
func (l *DefaultLogger) LogError(ctx context.Context, err ErrorLog) {
	if l.level > LogLevelError {
		return
	}

	retryableStr := "non-retryable"
	if err.Retryable {
		retryableStr = "retryable"
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"error","type":"error","endpoint":"%s","timestamp":"%s","duration_ms":%d,"attempt":%d,"error":"%s","error_type":%d,"status_code":%d,"retryable":%t}`,
			err.Endpoint, err.Timestamp.Format(time.RFC3339),
			err.Duration.Milliseconds(), err.Attempt, err.Error.Error(), err.ErrorType,
			err.StatusCode, err.Retryable)
	} else {
		log.Printf("[ERROR] %s: Request failed (attempt=%d, status=%d, %s): %v",
			err.Endpoint, err.Attempt, err.StatusCode, retryableStr, err.Error)
	}
}

// LogWarning logs a warning message with structured fields.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.logMessage("warning", "[WARN]", message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.logMessage("info", "[INFO]", message, fields)
}

func (l *DefaultLogger) logMessage(level, prefix, message string, fields map[string]interface{}) {
	if l.format == LogFormatJSON {
		entry := make(map[string]interface{}, len(fields)+3)
		for k, v := range fields {
			entry[k] = v
		}
		entry["level"] = level
		entry["message"] = message
		entry["timestamp"] = time.Now().Format(time.RFC3339)

		data, err := json.Marshal(entry)
		if err != nil {
			log.Printf("%s %s", prefix, message)
			return
		}
		log.Printf("%s", data)
		return
	}

	if len(fields) == 0 {
		log.Printf("%s %s", prefix, message)
		return
	}
	log.Printf("%s %s (%s)", prefix, message, formatFields(fields))
}

// formatFields renders fields as sorted key=value pairs for human output.
func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(pairs, ", ")
}
