package domain

import (
	"encoding/json"
	"fmt"
)

// Report is an opaque SAST report payload held as raw JSON. The bytes are
// embedded into prompts verbatim so the producing tool's key order survives
// the round trip. A missing or unparseable report degrades to EmptyReport.
type Report []byte

// EmptyReport returns the canonical empty report mapping.
func EmptyReport() Report {
	return Report("{}")
}

// MarshalJSON emits the raw report bytes unchanged.
func (r Report) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("{}"), nil
	}
	return r, nil
}

// UnmarshalJSON keeps the raw bytes as delivered.
func (r *Report) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// Chunk is a contiguous slice of a file's lines sent to the model in one
// request. Line numbers are 1-based and inclusive. Text preserves the
// original line terminators, so concatenating a file's chunks in order
// reconstructs the decoded file content exactly.
type Chunk struct {
	Index     int
	StartLine int
	EndLine   int
	Text      string
}

// AnalysisRequest carries one chunk plus the static-analysis context for a
// single model call. Constructed fresh per chunk and discarded afterwards.
type AnalysisRequest struct {
	FilePath  string
	ChunkText string
	Semgrep   Report
	Sonarqube Report
}

// FindingList is the findings array reported by the model. Elements pass
// through verbatim; only the container shape is validated.
type FindingList []json.RawMessage

// Finding is the decoded form of a model-reported issue. It exists for
// persistence and inspection only; the scan pipeline never constructs
// findings itself and reports the raw elements unmodified.
type Finding struct {
	FilePath string  `json:"file_path"`
	Line     LineRef `json:"line"`
	Message  string  `json:"message"`
	Severity string  `json:"severity"`
}

// DecodeFinding parses a raw finding element. Unknown or missing fields are
// tolerated; only malformed JSON is an error.
func DecodeFinding(raw json.RawMessage) (Finding, error) {
	var f Finding
	if err := json.Unmarshal(raw, &f); err != nil {
		return Finding{}, fmt.Errorf("decode finding: %w", err)
	}
	return f, nil
}

// LineRef is a line reference. Models report it either as a JSON number or
// as a string, so both decode into the string form.
type LineRef string

// UnmarshalJSON accepts a JSON string or number.
func (l *LineRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = LineRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("line must be a string or number, got %s", data)
	}
	*l = LineRef(n.String())
	return nil
}

// MarshalJSON emits the line reference as a JSON string.
func (l LineRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(l))
}
