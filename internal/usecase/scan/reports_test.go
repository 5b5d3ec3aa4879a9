package scan_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmgate/llmgate/internal/usecase/scan"
)

func TestLoadReport_MissingFileYieldsEmptyMapping(t *testing.T) {
	var out bytes.Buffer

	report := scan.LoadReport(filepath.Join(t.TempDir(), "nope.json"), &out)

	assert.Equal(t, "{}", string(report))
	assert.Empty(t, out.String(), "a missing report is expected, not warned about")
}

func TestLoadReport_DirectoryYieldsEmptyMapping(t *testing.T) {
	var out bytes.Buffer

	report := scan.LoadReport(t.TempDir(), &out)

	assert.Equal(t, "{}", string(report))
}

func TestLoadReport_MalformedJSONWarnsAndYieldsEmptyMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semgrep_report.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	var out bytes.Buffer

	report := scan.LoadReport(path, &out)

	assert.Equal(t, "{}", string(report))
	assert.Contains(t, out.String(), "[WARN] Failed to load or parse JSON file")
	assert.Contains(t, out.String(), path)
}

func TestLoadReport_ValidReportKeepsBytesAndKeyOrder(t *testing.T) {
	content := `{
  "zeta": 1,
  "alpha": {"nested": [1, 2, 3]}
}`
	path := filepath.Join(t.TempDir(), "sonarqube_report.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	var out bytes.Buffer

	report := scan.LoadReport(path, &out)

	assert.Equal(t, `{"zeta":1,"alpha":{"nested":[1,2,3]}}`, string(report), "key order must survive compaction")
	assert.Empty(t, out.String())
}

func TestLoadReport_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": 1}`), 0o644))

	first := scan.LoadReport(path, &bytes.Buffer{})
	second := scan.LoadReport(path, &bytes.Buffer{})

	assert.Equal(t, first, second)
}
