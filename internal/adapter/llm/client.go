package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultMaxRetries is the total number of attempts a single completion call
// may use before the last failure becomes fatal.
const DefaultMaxRetries = 3

// Params are the sampling parameters sent with every completion request.
type Params struct {
	MaxTokens     int
	Temperature   float64
	TopP          float64
	TopK          int
	RepeatLastN   int
	RepeatPenalty float64
}

// completionRequest is the wire body for llama.cpp style servers.
type completionRequest struct {
	Prompt        string  `json:"prompt"`
	MaxTokens     int     `json:"max_tokens"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	TopK          int     `json:"top_k"`
	RepeatLastN   int     `json:"repeat_last_n"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

// Client is an HTTP client for a local completion endpoint. A call retries
// immediately on any failure between transport and content parse, up to the
// attempt budget, and returns the model's raw JSON answer on success.
type Client struct {
	endpoint   string
	params     Params
	maxRetries int
	adapter    ResponseAdapter
	client     *http.Client
	out        io.Writer
	logger     Logger
}

// NewClient creates a client for the given completion endpoint. The
// underlying HTTP client has no timeout: local inference can run for
// minutes and the run waits for it.
func NewClient(endpoint string, params Params) *Client {
	return &Client{
		endpoint:   endpoint,
		params:     params,
		maxRetries: DefaultMaxRetries,
		adapter:    NewCompletionsAdapter(),
		client:     &http.Client{},
		out:        os.Stdout,
	}
}

// SetTimeout bounds each HTTP attempt. Zero restores the wait-forever
// default.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// SetMaxRetries sets the total attempt budget. Values below one are ignored.
func (c *Client) SetMaxRetries(n int) {
	if n >= 1 {
		c.maxRetries = n
	}
}

// SetAdapter replaces the response envelope adapter.
func (c *Client) SetAdapter(adapter ResponseAdapter) {
	if adapter != nil {
		c.adapter = adapter
	}
}

// SetLogger attaches a structured logger for request/response observability.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// SetOutput redirects the per-attempt console diagnostics.
func (c *Client) SetOutput(out io.Writer) {
	if out != nil {
		c.out = out
	}
}

// Complete sends the prompt and returns the model's raw answer, which is
// guaranteed to be valid JSON. Each attempt runs the full pipeline: send,
// status check, envelope parse, content extraction, content parse. The first
// success returns immediately; retries are immediate, with no backoff.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:        prompt,
		MaxTokens:     c.params.MaxTokens,
		Temperature:   c.params.Temperature,
		TopP:          c.params.TopP,
		TopK:          c.params.TopK,
		RepeatLastN:   c.params.RepeatLastN,
		RepeatPenalty: c.params.RepeatPenalty,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	retries := c.maxRetries
	if retries < 1 {
		retries = 1
	}

	tokens := 0
	if c.logger != nil {
		tokens = EstimateTokens(prompt)
	}

	var lastErr *Error
	for attempt := 1; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		started := time.Now()
		if c.logger != nil {
			c.logger.LogRequest(ctx, RequestLog{
				Endpoint:       c.endpoint,
				Timestamp:      started,
				Attempt:        attempt,
				MaxAttempts:    retries,
				PromptChars:    len(prompt),
				TokensEstimate: tokens,
			})
		}

		answer, status, attemptErr := c.attempt(ctx, body)
		if attemptErr == nil {
			if c.logger != nil {
				c.logger.LogResponse(ctx, ResponseLog{
					Endpoint:    c.endpoint,
					Timestamp:   time.Now(),
					Duration:    time.Since(started),
					StatusCode:  status,
					AnswerChars: len(answer),
				})
			}
			return answer, nil
		}

		lastErr = attemptErr
		c.reportAttempt(attemptErr, attempt, retries)
		if c.logger != nil {
			c.logger.LogError(ctx, ErrorLog{
				Endpoint:   c.endpoint,
				Timestamp:  time.Now(),
				Duration:   time.Since(started),
				Attempt:    attempt,
				Error:      attemptErr,
				ErrorType:  attemptErr.Type,
				StatusCode: attemptErr.StatusCode,
				Retryable:  attemptErr.Retryable,
			})
		}
	}

	return "", fmt.Errorf("max retries reached: %w", lastErr)
}

// attempt runs one full request/validation pass. It returns the raw answer
// and HTTP status on success, or a typed error naming the failed stage.
func (c *Client) attempt(ctx context.Context, body []byte) (string, int, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, NewConnectionError(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, NewConnectionError(err.Error())
	}
	defer resp.Body.Close()

	envelope, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, NewConnectionError(err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, NewServerError(resp.StatusCode, string(envelope))
	}

	if !json.Valid(envelope) {
		return "", 0, NewEnvelopeError("response body is not valid JSON")
	}

	answer, err := c.adapter.Extract(envelope)
	if err != nil {
		return "", 0, NewEnvelopeError(err.Error())
	}
	if answer == "" {
		return "", 0, NewEmptyResponseError()
	}
	if !json.Valid([]byte(answer)) {
		return "", 0, NewMalformedOutputError()
	}

	return answer, resp.StatusCode, nil
}

// reportAttempt prints the per-attempt console diagnostic for a failure.
func (c *Client) reportAttempt(err *Error, attempt, retries int) {
	switch err.Type {
	case ErrTypeConnection:
		c.printf("[ERROR] Connection error to LLM (Attempt %d/%d): %s", attempt, retries, err.Message)
	case ErrTypeServer:
		c.printf("[ERROR] LLM server responded with status %d (Attempt %d/%d).", err.StatusCode, attempt, retries)
	case ErrTypeEnvelope:
		c.printf("[WARN] Invalid JSON response from LLM (Attempt %d/%d).", attempt, retries)
	case ErrTypeEmptyResponse:
		c.printf("[WARN] Empty response from LLM (Attempt %d/%d).", attempt, retries)
	case ErrTypeMalformedOutput:
		c.printf("[WARN] LLM output is not pure JSON (Attempt %d/%d).", attempt, retries)
	default:
		c.printf("[ERROR] LLM request failed (Attempt %d/%d): %s", attempt, retries, err.Message)
	}
}

func (c *Client) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format+"\n", args...)
}
