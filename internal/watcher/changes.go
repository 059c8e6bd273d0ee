package watcher

import (
	"os"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
)

// ChangedLines returns the 1-based lines of next that differ from prev.
// A pure deletion reports the line the deletion collapsed onto.
func ChangedLines(prev, next string) []int {
	a := strings.Split(prev, "\n")
	b := strings.Split(next, "\n")

	var lines []int
	seen := make(map[int]bool)
	add := func(n int) {
		if n < 1 {
			n = 1
		}
		if n > len(b) {
			n = len(b)
		}
		if !seen[n] {
			seen[n] = true
			lines = append(lines, n)
		}
	}

	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		switch op.Tag {
		case 'r', 'i':
			for j := op.J1; j < op.J2; j++ {
				add(j + 1)
			}
		case 'd':
			add(op.J1 + 1)
		}
	}
	return lines
}

// Snapshots remembers the last seen content of each file so edits can be
// reduced to changed lines.
type Snapshots struct {
	mu    sync.Mutex
	files map[string]string
}

// NewSnapshots creates an empty snapshot set.
func NewSnapshots() *Snapshots {
	return &Snapshots{files: make(map[string]string)}
}

// Seed records the current content of path without reporting changes.
func (s *Snapshots) Seed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.files[path] = string(data)
	s.mu.Unlock()
	return nil
}

// Update stores text for path and returns the changed lines. A file seen for
// the first time reports every line.
func (s *Snapshots) Update(path, text string) []int {
	s.mu.Lock()
	prev, ok := s.files[path]
	s.files[path] = text
	s.mu.Unlock()

	if !ok {
		n := strings.Count(text, "\n") + 1
		lines := make([]int, n)
		for i := range lines {
			lines[i] = i + 1
		}
		return lines
	}
	if prev == text {
		return nil
	}
	return ChangedLines(prev, text)
}

// Forget drops path, for example after it was removed.
func (s *Snapshots) Forget(path string) {
	s.mu.Lock()
	delete(s.files, path)
	s.mu.Unlock()
}

// Len returns the number of tracked files.
func (s *Snapshots) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
