// Package config defines the gate's configuration and its loading rules.
package config

import (
	"fmt"
	"time"
)

// Config represents the full application configuration.
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`
	LLM      LLMConfig      `yaml:"llm"`
	Scan     ScanConfig     `yaml:"scan"`
	Reports  ReportsConfig  `yaml:"reports"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EndpointConfig describes the completion endpoint and how to talk to it.
type EndpointConfig struct {
	// URL of the completion endpoint, e.g. a local LM Studio or llama.cpp
	// server.
	URL string `yaml:"url"`

	// Style selects the response envelope shape: "completions" for
	// choices[0].text servers, "chat" for choices[0].message.content.
	Style string `yaml:"style"`

	// Timeout bounds each HTTP attempt as a duration string. Empty or "0"
	// means no timeout: the run waits for the model indefinitely, which is
	// the documented baseline for slow local inference.
	Timeout string `yaml:"timeout"`

	// MaxRetries is the total attempt budget per chunk.
	MaxRetries int `yaml:"maxRetries"`
}

// LLMConfig holds the sampling parameters sent with every request.
type LLMConfig struct {
	MaxTokens     int     `yaml:"maxTokens"`
	Temperature   float64 `yaml:"temperature"`
	TopP          float64 `yaml:"topP"`
	TopK          int     `yaml:"topK"`
	RepeatLastN   int     `yaml:"repeatLastN"`
	RepeatPenalty float64 `yaml:"repeatPenalty"`
}

// ScanConfig controls what gets scanned and how it is split.
type ScanConfig struct {
	// CodeDir is the source directory walked recursively. A missing
	// directory means there is nothing to check.
	CodeDir string `yaml:"codeDir"`

	// ChunkSize is the number of lines per model request.
	ChunkSize int `yaml:"chunkSize"`

	// Staged narrows the file set to the git index instead of the full walk.
	Staged bool `yaml:"staged"`
}

// ReportsConfig names the SAST report files forwarded as model context.
type ReportsConfig struct {
	Semgrep   string `yaml:"semgrep"`
	Sonarqube string `yaml:"sonarqube"`
}

// StoreConfig controls the optional scan history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig controls the structured request/response logs. The console
// scan output is always on; this only governs the debug surface.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// Validate rejects configurations the scan cannot run with.
func (c Config) Validate() error {
	if c.Endpoint.URL == "" {
		return fmt.Errorf("endpoint.url must not be empty")
	}
	if c.Endpoint.Style != "completions" && c.Endpoint.Style != "chat" {
		return fmt.Errorf("endpoint.style must be \"completions\" or \"chat\", got %q", c.Endpoint.Style)
	}
	if c.Endpoint.MaxRetries < 1 {
		return fmt.Errorf("endpoint.maxRetries must be at least 1, got %d", c.Endpoint.MaxRetries)
	}
	if _, err := c.EndpointTimeout(); err != nil {
		return err
	}
	if c.Scan.ChunkSize < 1 {
		return fmt.Errorf("scan.chunkSize must be at least 1, got %d", c.Scan.ChunkSize)
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm.maxTokens must be at least 1, got %d", c.LLM.MaxTokens)
	}
	return nil
}

// EndpointTimeout parses the endpoint timeout. Empty means no timeout.
func (c Config) EndpointTimeout() (time.Duration, error) {
	if c.Endpoint.Timeout == "" || c.Endpoint.Timeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Endpoint.Timeout)
	if err != nil {
		return 0, fmt.Errorf("endpoint.timeout %q: %w", c.Endpoint.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("endpoint.timeout must not be negative, got %s", d)
	}
	return d, nil
}
