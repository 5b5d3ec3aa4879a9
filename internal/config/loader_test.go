package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:1234/v1/completions", cfg.Endpoint.URL)
	assert.Equal(t, "completions", cfg.Endpoint.Style)
	assert.Equal(t, "", cfg.Endpoint.Timeout)
	assert.Equal(t, 3, cfg.Endpoint.MaxRetries)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 0.9, cfg.LLM.TopP)
	assert.Equal(t, 40, cfg.LLM.TopK)
	assert.Equal(t, 64, cfg.LLM.RepeatLastN)
	assert.Equal(t, 1.2, cfg.LLM.RepeatPenalty)
	assert.Equal(t, "../src", cfg.Scan.CodeDir)
	assert.Equal(t, 150, cfg.Scan.ChunkSize)
	assert.False(t, cfg.Scan.Staged)
	assert.Equal(t, "reports/semgrep_report.json", cfg.Reports.Semgrep)
	assert.Equal(t, "reports/sonarqube_report.json", cfg.Reports.Sonarqube)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, "auto", cfg.Logging.Format)

	assert.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	content := `
endpoint:
  url: http://localhost:8080/v1/completions
  style: chat
  timeout: 120s
scan:
  codeDir: ./code
  chunkSize: 50
  staged: true
reports:
  semgrep: /tmp/semgrep.json
store:
  enabled: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "llmgate.yaml"), []byte(content), 0o644))

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/v1/completions", cfg.Endpoint.URL)
	assert.Equal(t, "chat", cfg.Endpoint.Style)
	assert.Equal(t, "120s", cfg.Endpoint.Timeout)
	assert.Equal(t, "./code", cfg.Scan.CodeDir)
	assert.Equal(t, 50, cfg.Scan.ChunkSize)
	assert.True(t, cfg.Scan.Staged)
	assert.Equal(t, "/tmp/semgrep.json", cfg.Reports.Semgrep)
	assert.True(t, cfg.Store.Enabled)

	// Untouched sections keep their defaults.
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, "reports/sonarqube_report.json", cfg.Reports.Sonarqube)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  chunkSize: 25\n"), 0o644))

	cfg, err := Load(LoaderOptions{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Scan.ChunkSize)
}

func TestLoadExplicitConfigFileMustExist(t *testing.T) {
	_, err := Load(LoaderOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})

	require.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "llmgate.yaml"), []byte("scan:\n  chunkSize: 50\n"), 0o644))
	t.Setenv("LLMGATE_SCAN_CHUNKSIZE", "75")
	t.Setenv("LLMGATE_ENDPOINT_URL", "http://model-host:9999/v1/completions")

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, 75, cfg.Scan.ChunkSize)
	assert.Equal(t, "http://model-host:9999/v1/completions", cfg.Endpoint.URL)
}

func TestExpandEnvString(t *testing.T) {
	t.Setenv("TEST_MODEL_HOST", "10.0.0.5")
	t.Setenv("TEST_REPORT_DIR", "/srv/reports")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "expand ${VAR} syntax", input: "http://${TEST_MODEL_HOST}:1234", expected: "http://10.0.0.5:1234"},
		{name: "expand $VAR syntax", input: "$TEST_REPORT_DIR/semgrep.json", expected: "/srv/reports/semgrep.json"},
		{name: "leave non-existent var unchanged", input: "${NONEXISTENT_VAR}", expected: "${NONEXISTENT_VAR}"},
		{name: "handle empty string", input: "", expected: ""},
		{name: "plain string untouched", input: "reports/semgrep_report.json", expected: "reports/semgrep_report.json"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, expandEnvString(tc.input))
		})
	}
}

func TestLoadExpandsEnvVarsInValues(t *testing.T) {
	dir := t.TempDir()
	content := `
endpoint:
  url: http://${TEST_GATE_HOST}:1234/v1/completions
reports:
  semgrep: ${TEST_GATE_REPORTS}/semgrep_report.json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "llmgate.yaml"), []byte(content), 0o644))
	t.Setenv("TEST_GATE_HOST", "127.0.0.1")
	t.Setenv("TEST_GATE_REPORTS", "/srv/reports")

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:1234/v1/completions", cfg.Endpoint.URL)
	assert.Equal(t, "/srv/reports/semgrep_report.json", cfg.Reports.Semgrep)
}
