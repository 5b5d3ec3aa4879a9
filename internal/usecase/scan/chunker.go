package scan

import (
	"strings"

	"github.com/llmgate/llmgate/internal/domain"
)

// SplitChunks slices a file's lines into fixed-size chunks. N lines with
// chunk size C produce ceil(N/C) chunks whose 1-based inclusive line ranges
// partition [1, N]; the last chunk holds the remainder. Lines keep their
// terminators, so joining the chunk texts in order reconstructs the decoded
// file content exactly.
func SplitChunks(lines []string, size int) []domain.Chunk {
	if len(lines) == 0 || size < 1 {
		return nil
	}

	chunks := make([]domain.Chunk, 0, (len(lines)+size-1)/size)
	for start := 0; start < len(lines); start += size {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, domain.Chunk{
			Index:     len(chunks) + 1,
			StartLine: start + 1,
			EndLine:   end,
			Text:      strings.Join(lines[start:end], ""),
		})
	}
	return chunks
}
