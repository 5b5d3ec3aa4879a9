// Package source provides the file-level inputs to a scan: enumerating the
// files to check and reading their lines.
package source

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// ReadLines reads a source file and returns its lines with terminators
// attached. Decoding is best effort: bytes that are not valid UTF-8 are
// replaced with U+FFFD, never reported as an error. Only an OS-level read
// failure returns an error, and the caller treats that as fatal.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	decoded, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		// The UTF-8 decoder substitutes rather than fails; an error here
		// means something unexpected, fall back to the raw bytes.
		decoded = data
	}

	lines := strings.SplitAfter(string(decoded), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
