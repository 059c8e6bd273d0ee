package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileWatcher:
// - NewFileWatcher creates watcher successfully with a valid root
// - NewFileWatcher returns error with invalid root
// - Single file change fires callback after debounce
// - Multiple file changes are batched into one callback
// - Debouncing works (rapid changes coalesced into single callback)
// - Pause/Resume behavior (accumulate during pause, fire on resume)
// - File deleted triggers callback
// - Directory added triggers recursive watch
// - Ignored directories and non-matching files never fire
// - Stop() cleanup and context cancellation
// - Concurrent Stop() calls are safe

const (
	testDebounce = 100 * time.Millisecond

	// batchDebounce spans every write of a test that expects one batch.
	batchDebounce = 750 * time.Millisecond
)

func newTestWatcher(t *testing.T, root string, ignore ...string) FileWatcher {
	t.Helper()
	return newDebouncedWatcher(t, root, testDebounce, ignore...)
}

func newDebouncedWatcher(t *testing.T, root string, debounce time.Duration, ignore ...string) FileWatcher {
	t.Helper()
	filter, err := NewFilter(root, nil, ignore)
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	w, err := NewFileWatcher(filter, debounce, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

// recorder collects callback batches.
type recorder struct {
	mu      sync.Mutex
	batches [][]string
	called  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{called: make(chan struct{}, 16)}
}

func (r *recorder) callback(files []string) {
	r.mu.Lock()
	r.batches = append(r.batches, files)
	r.mu.Unlock()
	r.called <- struct{}{}
}

func (r *recorder) wait(t *testing.T, timeout time.Duration) {
	t.Helper()
	select {
	case <-r.called:
	case <-time.After(timeout):
		t.Fatal("Callback not called after timeout")
	}
}

func (r *recorder) files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []string
	for _, b := range r.batches {
		all = append(all, b...)
	}
	return all
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func TestNewFileWatcher_Success(t *testing.T) {
	t.Parallel()

	w := newTestWatcher(t, t.TempDir())
	require.NotNil(t, w)
}

func TestNewFileWatcher_InvalidRoot(t *testing.T) {
	t.Parallel()

	filter, err := NewFilter(filepath.Join(t.TempDir(), "nonexistent"), nil, nil)
	require.NoError(t, err)

	w, err := NewFileWatcher(filter, testDebounce, nil)
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestFileWatcher_SingleFileChange(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	w := newTestWatcher(t, tempDir)
	rec := newRecorder()
	require.NoError(t, w.Start(context.Background(), rec.callback))
	time.Sleep(50 * time.Millisecond)

	testFile := filepath.Join(tempDir, "Calc.php")
	require.NoError(t, os.WriteFile(testFile, []byte("<?php\n"), 0644))

	rec.wait(t, 2*time.Second)
	assert.Equal(t, []string{testFile}, rec.files())
}

func TestFileWatcher_MultipleFileChanges(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	w := newDebouncedWatcher(t, tempDir, batchDebounce)
	rec := newRecorder()
	require.NoError(t, w.Start(context.Background(), rec.callback))
	time.Sleep(50 * time.Millisecond)

	file1 := filepath.Join(tempDir, "a.php")
	file2 := filepath.Join(tempDir, "b.php")
	require.NoError(t, os.WriteFile(file1, []byte("<?php\n"), 0644))
	time.Sleep(20 * time.Millisecond) // Less than debounce time
	require.NoError(t, os.WriteFile(file2, []byte("<?php\n"), 0644))

	rec.wait(t, 5*time.Second)
	assert.ElementsMatch(t, []string{file1, file2}, rec.files())
}

func TestFileWatcher_Debouncing(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	w := newDebouncedWatcher(t, tempDir, batchDebounce)
	rec := newRecorder()
	require.NoError(t, w.Start(context.Background(), rec.callback))
	time.Sleep(50 * time.Millisecond)

	testFile := filepath.Join(tempDir, "Calc.php")
	for _, v := range []string{"v1", "v2", "v3"} {
		require.NoError(t, os.WriteFile(testFile, []byte("<?php // "+v), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	rec.wait(t, 5*time.Second)
	time.Sleep(2 * batchDebounce)

	assert.Equal(t, 1, rec.count(), "Should have exactly one callback due to debouncing")
	assert.Equal(t, []string{testFile}, rec.files(), "Same file appears once in batch")
}

func TestFileWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	w := newTestWatcher(t, tempDir)
	rec := newRecorder()
	require.NoError(t, w.Start(context.Background(), rec.callback))
	time.Sleep(50 * time.Millisecond)

	w.Pause()

	pausedFile := filepath.Join(tempDir, "paused.php")
	require.NoError(t, os.WriteFile(pausedFile, []byte("<?php\n"), 0644))

	time.Sleep(5 * testDebounce)
	assert.Equal(t, 0, rec.count(), "No callbacks should fire while paused")

	w.Resume()

	rec.wait(t, time.Second)
	assert.Contains(t, rec.files(), pausedFile)
}

func TestFileWatcher_FileDeleted(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "gone.php")
	require.NoError(t, os.WriteFile(testFile, []byte("<?php\n"), 0644))

	w := newTestWatcher(t, tempDir)
	rec := newRecorder()
	require.NoError(t, w.Start(context.Background(), rec.callback))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.Remove(testFile))

	rec.wait(t, 2*time.Second)
	assert.Contains(t, rec.files(), testFile)
}

func TestFileWatcher_DirectoryAdded(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	w := newTestWatcher(t, tempDir)
	rec := newRecorder()
	require.NoError(t, w.Start(context.Background(), rec.callback))
	time.Sleep(50 * time.Millisecond)

	subDir := filepath.Join(tempDir, "src")
	require.NoError(t, os.Mkdir(subDir, 0755))
	// Give the watcher time to pick up the new directory
	time.Sleep(3 * testDebounce)

	nested := filepath.Join(subDir, "Nested.php")
	require.NoError(t, os.WriteFile(nested, []byte("<?php\n"), 0644))

	deadline := time.After(2 * time.Second)
	for {
		if contains(rec.files(), nested) {
			return
		}
		select {
		case <-rec.called:
		case <-deadline:
			t.Fatalf("nested file never reported, got %v", rec.files())
		}
	}
}

func TestFileWatcher_Filtering(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	vendor := filepath.Join(tempDir, "vendor")
	require.NoError(t, os.Mkdir(vendor, 0755))

	w := newTestWatcher(t, tempDir, "vendor/**")
	rec := newRecorder()
	require.NoError(t, w.Start(context.Background(), rec.callback))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(vendor, "Lib.php"), []byte("<?php\n"), 0644))
	time.Sleep(20 * time.Millisecond)
	kept := filepath.Join(tempDir, "Kept.php")
	require.NoError(t, os.WriteFile(kept, []byte("<?php\n"), 0644))

	rec.wait(t, 2*time.Second)
	time.Sleep(2 * testDebounce)
	assert.Equal(t, []string{kept}, rec.files())
}

func TestFileWatcher_StopCleanup(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	w := newTestWatcher(t, tempDir)
	rec := newRecorder()
	require.NoError(t, w.Start(context.Background(), rec.callback))

	require.NoError(t, w.Stop())

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "late.php"), []byte("<?php\n"), 0644))
	time.Sleep(3 * testDebounce)
	assert.Equal(t, 0, rec.count())
}

func TestFileWatcher_StopWithoutStart(t *testing.T) {
	t.Parallel()

	w := newTestWatcher(t, t.TempDir())
	assert.NoError(t, w.Stop())
}

func TestFileWatcher_ContextCancellation(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	w := newTestWatcher(t, tempDir)
	rec := newRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, rec.callback))
	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "late.php"), []byte("<?php\n"), 0644))
	time.Sleep(3 * testDebounce)
	assert.Equal(t, 0, rec.count())
}

func TestFileWatcher_ConcurrentStop(t *testing.T) {
	t.Parallel()

	w := newTestWatcher(t, t.TempDir())
	require.NoError(t, w.Start(context.Background(), func([]string) {}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Stop()
		}()
	}
	wg.Wait()
}

func contains(files []string, want string) bool {
	for _, f := range files {
		if f == want {
			return true
		}
	}
	return false
}
