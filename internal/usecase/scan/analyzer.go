package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/llmgate/llmgate/internal/domain"
)

// ErrSchemaViolation indicates the model's answer broke the findings
// contract: the answer was not a JSON object, or its "findings" member was
// not an array. A chunk whose answer cannot be trusted must not silently
// pass, so this error is fatal to the whole run.
var ErrSchemaViolation = errors.New("schema violation")

// Completer sends a prompt to the completion endpoint and returns the
// model's raw answer, guaranteed to be valid JSON.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Analyzer runs one chunk through the prompt builder and the completion
// client, then validates the container shape of the answer.
type Analyzer struct {
	prompts *PromptBuilder
	client  Completer
}

// NewAnalyzer wires a prompt builder to a completion client.
func NewAnalyzer(prompts *PromptBuilder, client Completer) *Analyzer {
	return &Analyzer{prompts: prompts, client: client}
}

// Analyze requests findings for one chunk. The parsed answer must be a JSON
// object; a missing "findings" member means no findings, any non-array value
// is a schema violation. Elements are returned verbatim with no per-field
// validation.
func (a *Analyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.FindingList, error) {
	prompt, err := a.prompts.Build(req)
	if err != nil {
		return nil, err
	}

	answer, err := a.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(answer), &parsed); err != nil {
		return nil, fmt.Errorf("%w: model answer is not a JSON object", ErrSchemaViolation)
	}

	raw, ok := parsed["findings"]
	if !ok {
		return domain.FindingList{}, nil
	}

	var findings domain.FindingList
	if err := json.Unmarshal(raw, &findings); err != nil {
		return nil, fmt.Errorf("%w: field 'findings' is not a list in the returned JSON", ErrSchemaViolation)
	}
	if findings == nil {
		// JSON null decodes to a nil slice but is not a list.
		return nil, fmt.Errorf("%w: field 'findings' is not a list in the returned JSON", ErrSchemaViolation)
	}

	return findings, nil
}
