package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResponseAdapter extracts the model's raw answer from a response envelope.
// The caller guarantees the envelope is valid JSON. When the envelope does
// not match the adapter's expected shape, the whole envelope is re-serialized
// compact and returned as the answer, so servers with unexpected layouts
// still get their output inspected instead of silently passing.
type ResponseAdapter interface {
	Extract(envelope []byte) (string, error)
}

// CompletionsAdapter handles llama.cpp / LM Studio style completion
// envelopes: {"choices": [{"text": "..."}], ...}.
type CompletionsAdapter struct{}

// NewCompletionsAdapter creates the default completions-style adapter.
func NewCompletionsAdapter() *CompletionsAdapter {
	return &CompletionsAdapter{}
}

// Extract returns choices[0].text when present, otherwise the compacted
// envelope. A present but empty text string is returned as-is; the client
// treats it as an empty answer.
func (a *CompletionsAdapter) Extract(envelope []byte) (string, error) {
	first, ok := firstChoice(envelope)
	if !ok {
		return compactEnvelope(envelope)
	}

	text, ok := stringField(first, "text")
	if !ok {
		return compactEnvelope(envelope)
	}
	return text, nil
}

// ChatAdapter handles OpenAI chat style envelopes:
// {"choices": [{"message": {"content": "..."}}], ...}.
type ChatAdapter struct{}

// NewChatAdapter creates an adapter for chat-style completion servers.
func NewChatAdapter() *ChatAdapter {
	return &ChatAdapter{}
}

// Extract returns choices[0].message.content when present, otherwise the
// compacted envelope.
func (a *ChatAdapter) Extract(envelope []byte) (string, error) {
	first, ok := firstChoice(envelope)
	if !ok {
		return compactEnvelope(envelope)
	}

	var message map[string]json.RawMessage
	raw, present := first["message"]
	if !present || json.Unmarshal(raw, &message) != nil {
		return compactEnvelope(envelope)
	}

	content, ok := stringField(message, "content")
	if !ok {
		return compactEnvelope(envelope)
	}
	return content, nil
}

// firstChoice walks envelope.choices[0] tolerantly. Any shape mismatch on
// the way down reports false rather than an error.
func firstChoice(envelope []byte) (map[string]json.RawMessage, bool) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(envelope, &top); err != nil {
		return nil, false
	}

	rawChoices, ok := top["choices"]
	if !ok {
		return nil, false
	}

	var choices []json.RawMessage
	if err := json.Unmarshal(rawChoices, &choices); err != nil || len(choices) == 0 {
		return nil, false
	}

	var first map[string]json.RawMessage
	if err := json.Unmarshal(choices[0], &first); err != nil {
		return nil, false
	}
	return first, true
}

// stringField reads a string member from a decoded object. Missing keys and
// non-string values both report false.
func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func compactEnvelope(envelope []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, envelope); err != nil {
		return "", fmt.Errorf("compact envelope: %w", err)
	}
	return buf.String(), nil
}
