package watcher

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/mvp-joe/phptdd/internal/document"
)

// AutoRun runs the tests touched by each saved change under a filter root.
type AutoRun struct {
	watcher   FileWatcher
	filter    *Filter
	snapshots *Snapshots
	runner    LineRunner
	out       io.Writer
	logger    logrus.FieldLogger
}

// NewAutoRun wires a watcher to a line runner. Test output goes to out.
func NewAutoRun(w FileWatcher, filter *Filter, runner LineRunner, out io.Writer, logger logrus.FieldLogger) *AutoRun {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AutoRun{
		watcher:   w,
		filter:    filter,
		snapshots: NewSnapshots(),
		runner:    runner,
		out:       out,
		logger:    logger,
	}
}

// Seed snapshots every matching file so the first save reports only the
// lines it touched. Returns the number of files seeded.
func (a *AutoRun) Seed() (int, error) {
	count := 0
	err := filepath.WalkDir(a.filter.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if a.filter.SkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !a.filter.Match(path) {
			return nil
		}
		if err := a.snapshots.Seed(path); err != nil {
			a.logger.WithError(err).WithField("path", path).Warn("Failed to snapshot file")
			return nil
		}
		count++
		return nil
	})
	return count, err
}

// Run seeds snapshots, then handles changes until ctx is cancelled.
func (a *AutoRun) Run(ctx context.Context) error {
	seeded, err := a.Seed()
	if err != nil {
		return err
	}
	a.logger.WithFields(logrus.Fields{
		"root":  a.filter.Root(),
		"files": seeded,
	}).Info("Watching for changes")

	if err := a.watcher.Start(ctx, func(files []string) {
		a.HandleChanges(ctx, files)
	}); err != nil {
		return err
	}

	<-ctx.Done()
	return a.watcher.Stop()
}

// HandleChanges reduces each file to its changed lines and runs the
// affected tests. Failures are logged, never returned.
func (a *AutoRun) HandleChanges(ctx context.Context, files []string) {
	sort.Strings(files)
	for _, path := range files {
		if ctx.Err() != nil {
			return
		}
		log := a.logger.WithField("path", path)

		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				a.snapshots.Forget(path)
				log.Debug("File removed")
			} else {
				log.WithError(err).Warn("Failed to read changed file")
			}
			continue
		}

		text := string(data)
		lines := a.snapshots.Update(path, text)
		if len(lines) == 0 {
			continue
		}
		log.WithField("lines", len(lines)).Debug("Lines changed")

		results, err := a.runner.RunLineTests(ctx, document.New(path, text), lines, a.out)
		if err != nil {
			log.WithError(err).Warn("Auto-run failed")
		}
		for _, res := range results {
			log.WithFields(logrus.Fields{
				"entity": res.Run.Entity,
				"status": res.Run.Status,
			}).Info("Auto-run finished")
		}
	}
}
