// Package scan orchestrates the pre-commit gate: it loads the SAST reports,
// walks the code directory, splits files into line chunks, and asks the
// model about each chunk, blocking the commit on any finding.
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/llmgate/llmgate/internal/domain"
)

const separator = "================================================="

// ChunkAnalyzer is the driver's view of the per-chunk analysis pipeline.
type ChunkAnalyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.FindingList, error)
}

// FileLister enumerates the regular files to scan under a directory, in a
// stable order.
type FileLister interface {
	List(dir string) ([]string, error)
}

// RunRecorder persists a completed run. Recording is best effort and never
// influences the verdict.
type RunRecorder interface {
	SaveRun(ctx context.Context, rec RunRecord) error
}

// RunRecord captures one scan run for the history store.
type RunRecord struct {
	RunID        string
	Timestamp    time.Time
	CodeDir      string
	Files        int
	Chunks       int
	FindingCount int
	Verdict      string
	Findings     []FindingRecord
}

// FindingRecord is one model-reported finding with its chunk location.
type FindingRecord struct {
	File       string
	ChunkIndex int
	LineStart  int
	LineEnd    int
	Payload    json.RawMessage
}

// DriverConfig are the knobs for one scan run.
type DriverConfig struct {
	CodeDir         string
	ChunkSize       int
	SemgrepReport   string
	SonarqubeReport string
}

// DriverDeps are the driver's collaborators. Out defaults to os.Stdout and
// Recorder may be nil.
type DriverDeps struct {
	Analyzer  ChunkAnalyzer
	Lister    FileLister
	ReadLines func(path string) ([]string, error)
	Recorder  RunRecorder
	Out       io.Writer
}

// Result summarizes a completed run.
type Result struct {
	Files    int
	Chunks   int
	Findings int
	Blocked  bool
}

// Driver walks the code directory, chunks every file, and feeds each chunk
// through the analyzer. Processing is strictly sequential: one chunk's
// request (including its retries) finishes before the next begins.
type Driver struct {
	cfg  DriverConfig
	deps DriverDeps
}

// NewDriver creates a driver for the given configuration.
func NewDriver(cfg DriverConfig, deps DriverDeps) *Driver {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	return &Driver{cfg: cfg, deps: deps}
}

// Run executes the full scan. It returns a blocked Result when findings were
// detected, and an error when a chunk could not be analyzed or a source file
// could not be read; both outcomes must block the commit. A missing code
// directory means there is nothing to check and succeeds without a single
// model call.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	semgrep := LoadReport(d.cfg.SemgrepReport, d.deps.Out)
	sonarqube := LoadReport(d.cfg.SonarqubeReport, d.deps.Out)

	info, err := os.Stat(d.cfg.CodeDir)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(d.deps.Out, "[INFO] Folder '%s' not found. No files to analyze.\n", d.cfg.CodeDir)
		return Result{}, nil
	}

	files, err := d.deps.Lister.List(d.cfg.CodeDir)
	if err != nil {
		return Result{}, fmt.Errorf("list files in %s: %w", d.cfg.CodeDir, err)
	}

	started := time.Now().UTC()
	var res Result
	var recorded []FindingRecord

	for _, path := range files {
		fmt.Fprintln(d.deps.Out, separator)
		fmt.Fprintf(d.deps.Out, "Analyzing file: %s\n", path)

		lines, err := d.deps.ReadLines(path)
		if err != nil {
			// Unreadable source is suspicious, not skippable.
			fmt.Fprintf(d.deps.Out, "[ERROR] Unable to read '%s': %v\n", path, err)
			return res, fmt.Errorf("read %s: %w", path, err)
		}

		if len(lines) == 0 {
			fmt.Fprintf(d.deps.Out, "[INFO] Empty file: %s\n", path)
			continue
		}
		res.Files++

		total := len(lines)
		for _, chunk := range SplitChunks(lines, d.cfg.ChunkSize) {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			fmt.Fprintf(d.deps.Out, " -> Chunk #%d (lines %d-%d of %d)\n", chunk.Index, chunk.StartLine, chunk.EndLine, total)
			res.Chunks++

			findings, err := d.deps.Analyzer.Analyze(ctx, domain.AnalysisRequest{
				FilePath:  path,
				ChunkText: chunk.Text,
				Semgrep:   semgrep,
				Sonarqube: sonarqube,
			})
			if err != nil {
				fmt.Fprintf(d.deps.Out, "[ERROR] %v\n", err)
				return res, fmt.Errorf("analyze chunk #%d of %s: %w", chunk.Index, path, err)
			}

			if len(findings) == 0 {
				continue
			}

			fmt.Fprintf(d.deps.Out, "[BLOCK] Issues found in chunk #%d of '%s':\n", chunk.Index, path)
			d.printFindings(findings)
			res.Findings += len(findings)
			res.Blocked = true

			for _, raw := range findings {
				recorded = append(recorded, FindingRecord{
					File:       path,
					ChunkIndex: chunk.Index,
					LineStart:  chunk.StartLine,
					LineEnd:    chunk.EndLine,
					Payload:    raw,
				})
			}
		}
	}

	if res.Blocked {
		fmt.Fprintln(d.deps.Out, "[BLOCK] Sensitive data or vulnerabilities found. Commit blocked.")
	} else {
		fmt.Fprintln(d.deps.Out, "[OK] No issues found in all chunks. Commit proceeds.")
	}

	d.record(ctx, started, res, recorded)
	return res, nil
}

// printFindings dumps the raw findings as indented JSON, unmodified.
func (d *Driver) printFindings(findings domain.FindingList) {
	data, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		fmt.Fprintf(d.deps.Out, "%v\n", findings)
		return
	}
	fmt.Fprintf(d.deps.Out, "%s\n", data)
}

// record persists the run when a recorder is configured. Store trouble is
// reported but never changes the verdict.
func (d *Driver) record(ctx context.Context, started time.Time, res Result, findings []FindingRecord) {
	if d.deps.Recorder == nil {
		return
	}

	verdict := "ok"
	if res.Blocked {
		verdict = "blocked"
	}

	rec := RunRecord{
		RunID:        "run-" + started.Format("20060102T150405Z"),
		Timestamp:    started,
		CodeDir:      d.cfg.CodeDir,
		Files:        res.Files,
		Chunks:       res.Chunks,
		FindingCount: res.Findings,
		Verdict:      verdict,
		Findings:     findings,
	}
	if err := d.deps.Recorder.SaveRun(ctx, rec); err != nil {
		fmt.Fprintf(d.deps.Out, "[WARN] Failed to record run: %v\n", err)
	}
}
