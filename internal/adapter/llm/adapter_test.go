package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgate/llmgate/internal/adapter/llm"
)

func TestCompletionsAdapter_ExtractText(t *testing.T) {
	adapter := llm.NewCompletionsAdapter()
	envelope := []byte(`{"id":"cmpl-1","choices":[{"text":"{\"findings\": []}","index":0}]}`)

	answer, err := adapter.Extract(envelope)

	require.NoError(t, err)
	assert.Equal(t, `{"findings": []}`, answer)
}

func TestCompletionsAdapter_EmptyTextPassesThrough(t *testing.T) {
	adapter := llm.NewCompletionsAdapter()
	envelope := []byte(`{"choices":[{"text":""}]}`)

	answer, err := adapter.Extract(envelope)

	require.NoError(t, err)
	assert.Equal(t, "", answer, "empty text is the client's empty-answer signal, not a fallback")
}

func TestCompletionsAdapter_FallbackToEnvelope(t *testing.T) {
	adapter := llm.NewCompletionsAdapter()

	tests := []struct {
		name     string
		envelope string
		want     string
	}{
		{
			name:     "no choices key",
			envelope: `{"error": "loading model"}`,
			want:     `{"error":"loading model"}`,
		},
		{
			name:     "empty choices array",
			envelope: `{"choices": []}`,
			want:     `{"choices":[]}`,
		},
		{
			name:     "choice without text",
			envelope: `{"choices": [{"index": 0}]}`,
			want:     `{"choices":[{"index":0}]}`,
		},
		{
			name:     "non-string text",
			envelope: `{"choices": [{"text": 42}]}`,
			want:     `{"choices":[{"text":42}]}`,
		},
		{
			name:     "non-object envelope",
			envelope: `[1, 2, 3]`,
			want:     `[1,2,3]`,
		},
		{
			name:     "choices not an array",
			envelope: `{"choices": "nope"}`,
			want:     `{"choices":"nope"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, err := adapter.Extract([]byte(tt.envelope))
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer)
		})
	}
}

func TestCompletionsAdapter_FallbackPreservesKeyOrder(t *testing.T) {
	adapter := llm.NewCompletionsAdapter()
	envelope := []byte(`{ "zulu": 1, "alpha": 2, "mike": 3 }`)

	answer, err := adapter.Extract(envelope)

	require.NoError(t, err)
	assert.Equal(t, `{"zulu":1,"alpha":2,"mike":3}`, answer)
}

func TestChatAdapter_ExtractContent(t *testing.T) {
	adapter := llm.NewChatAdapter()
	envelope := []byte(`{"choices":[{"message":{"role":"assistant","content":"{\"findings\":[]}"}}]}`)

	answer, err := adapter.Extract(envelope)

	require.NoError(t, err)
	assert.Equal(t, `{"findings":[]}`, answer)
}

func TestChatAdapter_FallbackToEnvelope(t *testing.T) {
	adapter := llm.NewChatAdapter()

	tests := []struct {
		name     string
		envelope string
		want     string
	}{
		{
			name:     "no message",
			envelope: `{"choices": [{"text": "completion style"}]}`,
			want:     `{"choices":[{"text":"completion style"}]}`,
		},
		{
			name:     "message without content",
			envelope: `{"choices": [{"message": {"role": "assistant"}}]}`,
			want:     `{"choices":[{"message":{"role":"assistant"}}]}`,
		},
		{
			name:     "no choices",
			envelope: `{"object": "chat.completion"}`,
			want:     `{"object":"chat.completion"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, err := adapter.Extract([]byte(tt.envelope))
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer)
		})
	}
}
