package scan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/llmgate/llmgate/internal/domain"
)

// promptTemplate is the fixed instruction contract with the model. The
// wording is deliberately rigid: retries are only comparable when every
// attempt sends byte-identical instructions for the same inputs.
const promptTemplate = `You are a data-sensitive detection LLM used in a Git pre-commit hook.

RULES:
1) Output ONLY valid JSON with a top-level "findings" array.
2) Each object in the "findings" array must have the following keys:
   - "file_path" (string): The path of the file containing the issue.
   - "line" (string or number): The line number where the issue was found.
   - "message" (string): A description of the issue found.
   - "severity" (string): The severity of the issue, such as "error" or "warning".
3) Do NOT include any extra text, explanations, or code.
4) Stay within {{.MaxTokens}} tokens if possible. If the response is too long, truncate the output to stay below this limit.
5) If no issues are found, return an empty "findings" array, like this:
   { "findings": [] }
6) Do not generate any code or models. Focus only on identifying sensitive data issues or vulnerabilities within the provided chunk of code.
7) Analyze the following chunk of code (provided below), and combine it with the SAST reports from Semgrep and SonarQube.

DATA:
{{.Data}}

Remember: give me the issues only with a json, the entire output should be a json, with a top-level "findings" array. No extra text, explanations, or code.`

// PromptBuilder renders analysis requests into the instruction prompt. The
// output is deterministic for identical inputs: no timestamps, no randomness.
type PromptBuilder struct {
	maxTokens int
	tmpl      *template.Template
}

// NewPromptBuilder creates a builder whose token-budget rule names the given
// generation limit.
func NewPromptBuilder(maxTokens int) *PromptBuilder {
	return &PromptBuilder{
		maxTokens: maxTokens,
		tmpl:      template.Must(template.New("prompt").Parse(promptTemplate)),
	}
}

// promptData holds the values available to the prompt template.
type promptData struct {
	MaxTokens int
	Data      string
}

// combinedInput is the single JSON data blob embedded in the prompt. Field
// order matters: the model sees code first, then the two reports.
type combinedInput struct {
	Code      map[string]string `json:"code"`
	Semgrep   domain.Report     `json:"semgrep"`
	Sonarqube domain.Report     `json:"sonarqube"`
}

// Build renders the prompt for one chunk. The chunk text and both reports
// travel as one JSON-encoded blob; the reports are embedded verbatim.
func (b *PromptBuilder) Build(req domain.AnalysisRequest) (string, error) {
	blob, err := json.Marshal(combinedInput{
		Code:      map[string]string{req.FilePath: req.ChunkText},
		Semgrep:   req.Semgrep,
		Sonarqube: req.Sonarqube,
	})
	if err != nil {
		return "", fmt.Errorf("marshal analysis input: %w", err)
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, promptData{
		MaxTokens: b.maxTokens,
		Data:      string(blob),
	}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
