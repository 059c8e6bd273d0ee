package project

// Test Plan for project resolution and naming:
// - InfoForDocument matches by directory prefix and reports existence flags
// - Documents outside every folder fail with ErrNoWorkspace
// - InfoForWorkspace handles zero, one and several folders including cancel
// - TestPath for production sources and for test artifacts
// - Placeholder substitution is literal and repeated
// - Builder picks templates by intent and fills every placeholder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/phptdd/internal/entity"
	"github.com/mvp-joe/phptdd/internal/testfunc"
)

var layout = Layout{
	TestSubdirectory:   "tests/unit",
	SourceSubdirectory: "src",
	BootstrapFile:      "PHPTDDBootstrap.php",
}

func TestService_InfoForDocument(t *testing.T) {
	t.Parallel()

	ws := t.TempDir()
	other := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "tests", "unit"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws, "tests", "unit", "PHPTDDBootstrap.php"), []byte("<?php"), 0o644))

	svc := NewService([]string{other, ws}, layout)

	info, err := svc.InfoForDocument(filepath.Join(ws, "src", "Models", "User.php"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(ws), info.WorkspacePath)
	assert.Equal(t, filepath.Join(ws, "tests", "unit"), info.UnitTestPath)
	assert.True(t, info.UnitTestPathExists)
	assert.True(t, info.BootstrapExists)

	info, err = svc.InfoForDocument(filepath.Join(other, "index.php"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(other), info.WorkspacePath)
	assert.False(t, info.UnitTestPathExists)
	assert.False(t, info.BootstrapExists)

	_, err = svc.InfoForDocument(filepath.Join(ws+"-sibling", "x.php"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoWorkspace)
	assert.Contains(t, err.Error(), "make sure it is saved to a workspace folder")
}

func TestService_InfoForWorkspace(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil, layout).InfoForWorkspace(nil)
	assert.ErrorIs(t, err, ErrNoWorkspaceFolders)

	single := t.TempDir()
	info, err := NewService([]string{single}, layout).InfoForWorkspace(func([]string) (string, bool) {
		t.Fatal("choose must not be called for a single folder")
		return "", false
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(single), info.WorkspacePath)

	a, b := t.TempDir(), t.TempDir()
	multi := NewService([]string{a, b}, layout)

	info, err = multi.InfoForWorkspace(func(folders []string) (string, bool) {
		assert.Len(t, folders, 2)
		return folders[1], true
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(b), info.WorkspacePath)

	info, err = multi.InfoForWorkspace(func([]string) (string, bool) { return "", false })
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestTestPath(t *testing.T) {
	t.Parallel()

	ws := filepath.FromSlash("/work/app")

	tests := []struct {
		name     string
		document string
		isTest   bool
		want     string
	}{
		{name: "source file", document: "/work/app/src/Models/User.php", want: "tests/unit/Models/UserUnitTestCest"},
		{name: "top-level source file", document: "/work/app/src/helpers.php", want: "tests/unit/helpersUnitTestCest"},
		{name: "only trailing suffix replaced", document: "/work/app/src/php.phpLib/Foo.php", want: "tests/unit/php.phpLib/FooUnitTestCest"},
		{name: "outside source root", document: "/work/app/lib/Foo.php", want: "tests/unit/lib/FooUnitTestCest"},
		{name: "test artifact", document: "/work/app/tests/unit/Models/UserUnitTestCest.php", isTest: true, want: "tests/unit/Models/UserUnitTestCest"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TestPath(ws, layout, filepath.FromSlash(tt.document), tt.isTest))
		})
	}
}

func TestSubstitute(t *testing.T) {
	t.Parallel()

	got := Substitute(
		"cd __WORKSPACE_DIRECTORY__ && run __TEST_SUBDIRECTORY__:__FUNCTION__ __FUNCTION__ -c __TEST_DIRECTORY__ __UNKNOWN__",
		Values{Function: "testAdd", TestSubdirectory: "tests/unit/AUnitTestCest", TestDirectory: "/w/tests/unit", WorkspaceDirectory: "/w"},
	)
	assert.Equal(t, "cd /w && run tests/unit/AUnitTestCest:testAdd testAdd -c /w/tests/unit __UNKNOWN__", got)
}

func TestIntentFor(t *testing.T) {
	t.Parallel()

	method := &entity.Entity{Kind: entity.KindFunction, Name: "add"}
	assert.Equal(t, IntentAll, IntentFor(nil, false))
	assert.Equal(t, IntentCoverage, IntentFor(nil, true))
	assert.Equal(t, IntentClass, IntentFor(&testfunc.Info{Entity: method}, true))
	assert.Equal(t, IntentFunction, IntentFor(&testfunc.Info{Entity: method, FunctionName: "testAdd"}, false))

	for _, i := range []Intent{IntentFunction, IntentClass, IntentAll, IntentCoverage} {
		parsed, err := ParseIntent(i.String())
		require.NoError(t, err)
		assert.Equal(t, i, parsed)
	}
	_, err := ParseIntent("bogus")
	assert.Error(t, err)

	var i Intent
	require.NoError(t, i.UnmarshalText([]byte("coverage")))
	assert.Equal(t, IntentCoverage, i)
	assert.Error(t, i.UnmarshalText([]byte("intent(9)")))
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	ws := filepath.FromSlash("/work/app")
	doc := filepath.FromSlash("/work/app/src/Calc.php")
	templates := Templates{
		RunUnitTest:        "codecept run unit __TEST_SUBDIRECTORY__:__FUNCTION__",
		RunAllUnitTests:    "codecept run unit",
		RunCodeCoverage:    "codecept run unit --coverage-html",
		CodeCoverageReport: "__TEST_DIRECTORY__/_output/coverage/index.html",
		Directory:          "__WORKSPACE_DIRECTORY__",
	}
	b := NewBuilder(layout, templates)
	method := &entity.Entity{Kind: entity.KindFunction, Name: "add", ClassName: "Calc"}

	t.Run("function", func(t *testing.T) {
		t.Parallel()
		cmd, err := b.Build(Request{Workspace: ws, Document: doc, Function: &testfunc.Info{Entity: method, FunctionName: "testAdd"}})
		require.NoError(t, err)
		assert.Equal(t, IntentFunction, cmd.Intent)
		assert.Equal(t, "codecept run unit tests/unit/CalcUnitTestCest:testAdd", cmd.Line)
		assert.Equal(t, ws, cmd.Dir)
		assert.Empty(t, cmd.CoverageReport)
	})

	t.Run("class falls back to run template", func(t *testing.T) {
		t.Parallel()
		class := &entity.Entity{Kind: entity.KindClass, Name: "Calc"}
		cmd, err := b.Build(Request{Workspace: ws, Document: doc, Function: &testfunc.Info{Entity: class}})
		require.NoError(t, err)
		assert.Equal(t, IntentClass, cmd.Intent)
		assert.Equal(t, "codecept run unit tests/unit/CalcUnitTestCest:", cmd.Line)
	})

	t.Run("test class addresses itself", func(t *testing.T) {
		t.Parallel()
		testDoc := filepath.FromSlash("/work/app/tests/unit/CalcUnitTestCest.php")
		testMethod := &entity.Entity{Kind: entity.KindFunction, Name: "testAdd", ClassName: "CalcUnitTestCest"}
		cmd, err := b.Build(Request{Workspace: ws, Document: testDoc, Function: testfunc.Resolve(testMethod, nil)})
		require.NoError(t, err)
		assert.Equal(t, "codecept run unit tests/unit/CalcUnitTestCest:testAdd", cmd.Line)
	})

	t.Run("coverage", func(t *testing.T) {
		t.Parallel()
		cmd, err := b.Build(Request{Workspace: ws, Coverage: true})
		require.NoError(t, err)
		assert.Equal(t, IntentCoverage, cmd.Intent)
		assert.Equal(t, "codecept run unit --coverage-html", cmd.Line)
		assert.Equal(t, filepath.ToSlash(filepath.Join(ws, "tests/unit"))+"/_output/coverage/index.html", cmd.CoverageReport)
	})

	t.Run("missing template", func(t *testing.T) {
		t.Parallel()
		_, err := NewBuilder(layout, Templates{}).Build(Request{Workspace: ws})
		assert.ErrorIs(t, err, ErrNoTemplate)
	})
}
