// Package project maps source documents onto their workspace and derives
// unit test paths and runnable test commands from them.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoWorkspace is returned for a document outside every workspace folder.
	ErrNoWorkspace = errors.New("unable to associate document with a workspace folder, make sure it is saved to a workspace folder")

	// ErrNoWorkspaceFolders is returned when no workspace folder is configured.
	ErrNoWorkspaceFolders = errors.New("workspace must have folders for unit testing")
)

// Layout describes where tests and sources live inside a workspace.
type Layout struct {
	TestSubdirectory   string
	SourceSubdirectory string
	BootstrapFile      string
}

// Info locates the unit test tree of one workspace folder. The existence
// flags are computed once by NewInfo.
type Info struct {
	UnitTestPath       string `json:"unit_test_path"`
	WorkspacePath      string `json:"workspace_path"`
	UnitTestPathExists bool   `json:"unit_test_path_exists"`
	BootstrapExists    bool   `json:"bootstrap_exists"`
}

// NewInfo builds the Info for a workspace folder.
func NewInfo(workspace string, layout Layout) *Info {
	workspace = filepath.Clean(workspace)
	info := &Info{
		UnitTestPath:  filepath.Join(workspace, filepath.FromSlash(layout.TestSubdirectory)),
		WorkspacePath: workspace,
	}
	if st, err := os.Stat(info.UnitTestPath); err == nil && st.IsDir() {
		info.UnitTestPathExists = true
	}
	if layout.BootstrapFile != "" {
		if _, err := os.Stat(filepath.Join(info.UnitTestPath, layout.BootstrapFile)); err == nil {
			info.BootstrapExists = true
		}
	}
	return info
}

// Service resolves workspace folders.
type Service struct {
	folders []string
	layout  Layout
}

// NewService creates a service over the given workspace folders.
func NewService(folders []string, layout Layout) *Service {
	clean := make([]string, 0, len(folders))
	for _, f := range folders {
		if abs, err := filepath.Abs(f); err == nil {
			f = abs
		}
		clean = append(clean, filepath.Clean(f))
	}
	return &Service{folders: clean, layout: layout}
}

// Folders returns the workspace folders in configuration order.
func (s *Service) Folders() []string {
	return s.folders
}

// Layout returns the configured layout.
func (s *Service) Layout() Layout {
	return s.layout
}

// InfoForDocument returns the Info for the first workspace folder containing
// the document's directory.
func (s *Service) InfoForDocument(path string) (*Info, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	dir := filepath.Dir(path)

	for _, folder := range s.folders {
		if within(folder, dir) {
			return NewInfo(folder, s.layout), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoWorkspace, path)
}

// InfoForWorkspace returns the Info for the only workspace folder, or asks
// choose to pick one when there are several. A nil Info with a nil error
// means the choice was cancelled.
func (s *Service) InfoForWorkspace(choose func(folders []string) (string, bool)) (*Info, error) {
	switch len(s.folders) {
	case 0:
		return nil, ErrNoWorkspaceFolders
	case 1:
		return NewInfo(s.folders[0], s.layout), nil
	}

	if choose == nil {
		return nil, nil
	}
	folder, ok := choose(s.folders)
	if !ok || folder == "" {
		return nil, nil
	}
	return NewInfo(folder, s.layout), nil
}

func within(root, dir string) bool {
	if dir == root {
		return true
	}
	return strings.HasPrefix(dir, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator))
}
