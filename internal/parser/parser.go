// Package parser splits raw note text into its frontmatter block and body.
package parser

import (
	"bytes"
	"fmt"

	"github.com/starford/notedex/internal/apperr"
)

// Delimiter is the line that closes a metadata block. It may also open one.
const Delimiter = "---"

// Separator is Delimiter as written between metadata and body.
const Separator = Delimiter + "\n"

// Split separates the metadata block from the body. An optional opening
// delimiter line is skipped; the block ends at the first delimiter line and
// the body is every byte after it, untouched. The error wraps
// apperr.ErrParse when no closing delimiter or no metadata is found.
func Split(data []byte) ([]byte, string, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	start := 0
	if line, next := readLine(data, 0); isDelimiter(line) {
		start = next
	}

	for pos := start; pos < len(data); {
		line, next := readLine(data, pos)
		if isDelimiter(line) {
			meta := data[start:pos]
			if len(bytes.TrimSpace(meta)) == 0 {
				return nil, "", fmt.Errorf("parser: %w: empty metadata block", apperr.ErrParse)
			}
			return meta, string(data[next:]), nil
		}
		pos = next
	}
	return nil, "", fmt.Errorf("parser: %w: missing %q separator line", apperr.ErrParse, Delimiter)
}

// readLine returns the line starting at pos (without its newline) and the
// offset of the following line.
func readLine(data []byte, pos int) ([]byte, int) {
	i := bytes.IndexByte(data[pos:], '\n')
	if i < 0 {
		return data[pos:], len(data)
	}
	return data[pos : pos+i], pos + i + 1
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == Delimiter
}
