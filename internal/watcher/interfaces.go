package watcher

import (
	"context"
	"io"

	"github.com/mvp-joe/phptdd/internal/document"
	"github.com/mvp-joe/phptdd/internal/workflow"
)

// FileWatcher monitors source files for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching, calling callback with debounced file changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// LineRunner runs the tests touched by changed lines of a document.
type LineRunner interface {
	RunLineTests(ctx context.Context, doc *document.Document, lines []int, out io.Writer) ([]*workflow.Result, error)
}
