package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	// ConfigFile is an explicit config file path. When set, discovery is
	// skipped and the file must exist.
	ConfigFile  string
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment
// variables. Precedence is environment over file over defaults; a missing
// config file falls back to defaults silently.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "llmgate"
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = locateConfigFile(name, opts.ConfigPaths)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "LLMGATE"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Expand environment variables in config values
	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.Endpoint.URL = expandEnvString(cfg.Endpoint.URL)
	cfg.Endpoint.Timeout = expandEnvString(cfg.Endpoint.Timeout)

	cfg.Scan.CodeDir = expandEnvString(cfg.Scan.CodeDir)
	cfg.Reports.Semgrep = expandEnvString(cfg.Reports.Semgrep)
	cfg.Reports.Sonarqube = expandEnvString(cfg.Reports.Sonarqube)

	cfg.Store.Path = expandEnvString(cfg.Store.Path)

	cfg.Logging.Level = expandEnvString(cfg.Logging.Level)
	cfg.Logging.Format = expandEnvString(cfg.Logging.Format)

	return cfg
}

// expandEnvString replaces ${VAR} or $VAR with environment variable values.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	// Replace ${VAR} syntax
	re := regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	// Replace $VAR syntax (without braces)
	re = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	return s
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// setDefaults registers the original tool's constants as defaults, so a bare
// run behaves like the pre-commit hook always has.
func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint.url", "http://127.0.0.1:1234/v1/completions")
	v.SetDefault("endpoint.style", "completions")
	v.SetDefault("endpoint.timeout", "")
	v.SetDefault("endpoint.maxRetries", 3)

	v.SetDefault("llm.maxTokens", 4096)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.topP", 0.9)
	v.SetDefault("llm.topK", 40)
	v.SetDefault("llm.repeatLastN", 64)
	v.SetDefault("llm.repeatPenalty", 1.2)

	v.SetDefault("scan.codeDir", "../src")
	v.SetDefault("scan.chunkSize", 150)
	v.SetDefault("scan.staged", false)

	v.SetDefault("reports.semgrep", "reports/semgrep_report.json")
	v.SetDefault("reports.sonarqube", "reports/sonarqube_report.json")

	v.SetDefault("store.enabled", false)
	v.SetDefault("store.path", defaultStorePath())

	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "auto")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./llmgate.db"
	}
	return filepath.Join(home, ".config", "llmgate", "scans.db")
}
