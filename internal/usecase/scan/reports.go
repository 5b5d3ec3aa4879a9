package scan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/llmgate/llmgate/internal/domain"
)

// LoadReport reads a SAST report from disk. A path that does not name an
// existing regular file yields the empty report silently; a read or parse
// failure yields the empty report plus a console warning. Report trouble
// never fails the run: a missing scanner output must not block commits.
func LoadReport(path string, out io.Writer) domain.Report {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return domain.EmptyReport()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "[WARN] Failed to load or parse JSON file: %s. Treating as empty.\n", path)
		return domain.EmptyReport()
	}

	// Compact to a single line, preserving the tool's key order.
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		fmt.Fprintf(out, "[WARN] Failed to load or parse JSON file: %s. Treating as empty.\n", path)
		return domain.EmptyReport()
	}

	return domain.Report(buf.Bytes())
}
