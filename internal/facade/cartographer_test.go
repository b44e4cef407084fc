package facade

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"circular/internal/resolve"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestAnalyzeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.js"), `
require('./lib');
require(computeName());
`)
	writeFile(t, filepath.Join(dir, "lib", "package.json"), `{"main":"entry.js"}`)
	writeFile(t, filepath.Join(dir, "lib", "entry.js"), `require('./helper')`)
	writeFile(t, filepath.Join(dir, "lib", "helper.js"), ``)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(cwd) }()

	cg := New(resolve.DefaultConfig(), 4)
	root, err := cg.Analyze(context.Background(), "./main")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "main.js"), root.Path)

	deps, ok := root.Dependencies()
	require.True(t, ok)
	require.Len(t, deps, 2)

	require.Equal(t, "./lib", deps[0].Specifier)
	require.NotNil(t, deps[0].Target)
	require.Equal(t, filepath.Join(dir, "lib", "entry.js"), deps[0].Target.Path)

	require.True(t, deps[1].Dynamic)
	require.Nil(t, deps[1].Target)

	libDeps, ok := deps[0].Target.Dependencies()
	require.True(t, ok)
	require.Len(t, libDeps, 1)
	require.Equal(t, filepath.Join(dir, "lib", "helper.js"), libDeps[0].Target.Path)
}

func TestAnalyzeEmptySpecifierIsInvalidArgument(t *testing.T) {
	cg := New(resolve.DefaultConfig(), 4)
	_, err := cg.Analyze(context.Background(), "")
	require.Error(t, err)
}

func TestAnalyzeUnresolvedEntrySurfacesFileNotFound(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(cwd) }()

	cg := New(resolve.DefaultConfig(), 4)
	_, err = cg.Analyze(context.Background(), "./missing")
	require.Error(t, err)
}
