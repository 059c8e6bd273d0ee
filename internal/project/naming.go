package project

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/phptdd/internal/entity"
)

// Placeholders recognized in command templates.
const (
	PlaceholderFunction           = "__FUNCTION__"
	PlaceholderTestSubdirectory   = "__TEST_SUBDIRECTORY__"
	PlaceholderTestDirectory      = "__TEST_DIRECTORY__"
	PlaceholderWorkspaceDirectory = "__WORKSPACE_DIRECTORY__"
)

const phpSuffix = ".php"

// Values are the substitutions for one command.
type Values struct {
	Function           string `json:"function"`
	TestSubdirectory   string `json:"test_subdirectory"`
	TestDirectory      string `json:"test_directory"`
	WorkspaceDirectory string `json:"workspace_directory"`
}

// Substitute replaces every placeholder in template verbatim.
func Substitute(template string, v Values) string {
	return strings.NewReplacer(
		PlaceholderFunction, v.Function,
		PlaceholderTestSubdirectory, v.TestSubdirectory,
		PlaceholderTestDirectory, v.TestDirectory,
		PlaceholderWorkspaceDirectory, v.WorkspaceDirectory,
	).Replace(template)
}

// TestPath returns the forward-slash path of the unit test belonging to
// document, without extension.
//
// A document that is itself a test is addressed by its own path relative to
// the workspace. Any other document maps from the source subdirectory into
// the test subdirectory with "UnitTestCest" in place of ".php". A document
// outside the source subdirectory is mapped relative to the workspace
// instead.
func TestPath(workspace string, layout Layout, document string, isTest bool) string {
	workspace = filepath.Clean(workspace)

	if isTest {
		rel := relative(workspace, document)
		return strings.TrimSuffix(rel, phpSuffix)
	}

	root := filepath.Join(workspace, filepath.FromSlash(layout.SourceSubdirectory))
	rel := relative(root, document)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		rel = relative(workspace, document)
	}
	if strings.HasSuffix(rel, phpSuffix) {
		rel = strings.TrimSuffix(rel, phpSuffix) + entity.TestClassMarker
	}
	return path.Join(filepath.ToSlash(filepath.Clean(layout.TestSubdirectory)), rel)
}

// TestDirectory returns the absolute test directory with forward slashes.
func TestDirectory(workspace string, layout Layout) string {
	return filepath.ToSlash(filepath.Join(workspace, filepath.FromSlash(layout.TestSubdirectory)))
}

func relative(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		rel = target
	}
	return filepath.ToSlash(rel)
}
