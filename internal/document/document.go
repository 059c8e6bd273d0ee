// Package document holds PHP source text together with the path it was read
// from and gives line-oriented access to it.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is an in-memory snapshot of a source file.
type Document struct {
	Path string
	Text string

	lines []string
}

// New wraps text that was read from path. Path is made absolute when
// possible.
func New(path, text string) *Document {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Document{Path: path, Text: text}
}

// Load reads a document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return New(path, string(data)), nil
}

// LineAt returns the text of the 1-based line without its line ending, or
// "" when the line does not exist.
func (d *Document) LineAt(line int) string {
	if d.lines == nil {
		d.lines = strings.Split(d.Text, "\n")
	}
	if line < 1 || line > len(d.lines) {
		return ""
	}
	return strings.TrimSuffix(d.lines[line-1], "\r")
}

// LineCount returns the number of lines, counting a trailing partial line.
func (d *Document) LineCount() int {
	if d.lines == nil {
		d.lines = strings.Split(d.Text, "\n")
	}
	return len(d.lines)
}
