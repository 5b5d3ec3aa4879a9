package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/llmgate/llmgate/internal/domain"
)

func TestReportMarshalPreservesBytes(t *testing.T) {
	raw := []byte(`{"zebra":1,"alpha":{"nested":true},"items":[3,2,1]}`)
	report := domain.Report(raw)

	out, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	if string(out) != string(raw) {
		t.Fatalf("expected verbatim bytes %s, got %s", raw, out)
	}
}

func TestReportMarshalEmptyIsMapping(t *testing.T) {
	var report domain.Report

	out, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal empty report: %v", err)
	}
	if string(out) != "{}" {
		t.Fatalf("expected {}, got %s", out)
	}
}

func TestReportUnmarshalKeepsRaw(t *testing.T) {
	var report domain.Report
	raw := []byte(`{"results": [ {"check_id": "a"} ]}`)

	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if string(report) != string(raw) {
		t.Fatalf("expected raw bytes kept, got %s", report)
	}
}

func TestLineRefAcceptsNumberAndString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want domain.LineRef
	}{
		{"number", `{"line": 12}`, "12"},
		{"string", `{"line": "12-14"}`, "12-14"},
		{"float", `{"line": 3.0}`, "3.0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f domain.Finding
			if err := json.Unmarshal([]byte(tc.in), &f); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if f.Line != tc.want {
				t.Fatalf("expected line %q, got %q", tc.want, f.Line)
			}
		})
	}
}

func TestLineRefRejectsObject(t *testing.T) {
	var f domain.Finding
	err := json.Unmarshal([]byte(`{"line": {"start": 1}}`), &f)
	if err == nil {
		t.Fatal("expected error for object line reference")
	}
}

func TestDecodeFindingTolerantOfMissingFields(t *testing.T) {
	f, err := domain.DecodeFinding(json.RawMessage(`{"message": "hardcoded secret"}`))
	if err != nil {
		t.Fatalf("decode finding: %v", err)
	}
	if f.Message != "hardcoded secret" {
		t.Fatalf("expected message kept, got %q", f.Message)
	}
	if f.FilePath != "" || f.Severity != "" {
		t.Fatalf("expected missing fields left empty, got %+v", f)
	}
}

func TestDecodeFindingRejectsMalformed(t *testing.T) {
	if _, err := domain.DecodeFinding(json.RawMessage(`not json`)); err == nil {
		t.Fatal("expected error for malformed finding")
	}
}
