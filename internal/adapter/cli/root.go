// Package cli is the cobra command surface of the gate.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/llmgate/llmgate/internal/usecase/scan"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ErrFindingsDetected signals a blocked commit to the host process. The
// driver has already printed the findings and the verdict, so main only
// translates this into exit code 1 without further output.
var ErrFindingsDetected = errors.New("findings detected")

// Gate defines the dependency required to run the scan command.
type Gate interface {
	Scan(ctx context.Context, req ScanRequest) (scan.Result, error)
}

// ScanRequest carries the settings the user set explicitly on the command
// line. Zero fields mean the flag was absent and the gate falls back to its
// configuration, so an explicit --config file stays authoritative for
// everything the flags do not override.
type ScanRequest struct {
	ConfigFile      string
	CodeDir         string
	Endpoint        string
	Timeout         string
	ChunkSize       int
	SemgrepReport   string
	SonarqubeReport string
	Staged          *bool
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Defaults seeds the flag default values shown in help. They never travel in
// a ScanRequest; the gate resolves unset fields from its configuration.
type Defaults struct {
	CodeDir         string
	Endpoint        string
	Timeout         string
	ChunkSize       int
	SemgrepReport   string
	SonarqubeReport string
	Staged          bool
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Gate     Gate
	Args     Arguments
	Defaults Defaults
	Version  string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "llmgate",
		Short: "LLM-backed pre-commit scan gate",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(scanCommand(deps.Gate, deps.Defaults))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "llmgate %s\n", versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func scanCommand(gate Gate, defaults Defaults) *cobra.Command {
	var configFile string
	var codeDir string
	var endpoint string
	var timeout string
	var chunkSize int
	var semgrepReport string
	var sonarqubeReport string
	var staged bool

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan source files and block the commit on findings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			req := ScanRequest{ConfigFile: configFile}

			// Only explicitly set flags travel in the request. Flag defaults
			// exist for help output and must never shadow a config file.
			if len(args) > 0 {
				req.CodeDir = args[0]
			} else if flags.Changed("dir") {
				req.CodeDir = codeDir
			}
			if flags.Changed("endpoint") {
				req.Endpoint = endpoint
			}
			if flags.Changed("timeout") {
				req.Timeout = timeout
			}
			if flags.Changed("chunk-size") {
				if chunkSize < 1 {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: value %d for --chunk-size out of range, using configured value\n", chunkSize)
				} else {
					req.ChunkSize = chunkSize
				}
			}
			if flags.Changed("semgrep-report") {
				req.SemgrepReport = semgrepReport
			}
			if flags.Changed("sonarqube-report") {
				req.SonarqubeReport = sonarqubeReport
			}
			if flags.Changed("staged") {
				req.Staged = &staged
			}

			res, err := gate.Scan(cmd.Context(), req)
			if err != nil {
				return err
			}
			if res.Blocked {
				return ErrFindingsDetected
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Explicit config file path")
	cmd.Flags().StringVar(&codeDir, "dir", defaults.CodeDir, "Source directory to scan (overridden by the positional argument)")
	cmd.Flags().StringVar(&endpoint, "endpoint", defaults.Endpoint, "Completion endpoint URL")
	cmd.Flags().StringVar(&timeout, "timeout", defaults.Timeout, "Per-attempt HTTP timeout (empty waits indefinitely)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", defaults.ChunkSize, "Lines per chunk sent to the model")
	cmd.Flags().StringVar(&semgrepReport, "semgrep-report", defaults.SemgrepReport, "Path to the Semgrep JSON report")
	cmd.Flags().StringVar(&sonarqubeReport, "sonarqube-report", defaults.SonarqubeReport, "Path to the SonarQube JSON report")
	cmd.Flags().BoolVar(&staged, "staged", defaults.Staged, "Scan only files staged in the git index")

	return cmd
}
