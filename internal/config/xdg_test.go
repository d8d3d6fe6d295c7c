package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXDGConfigPaths(t *testing.T) {
	x := NewXDGDirs()

	paths := x.GetConfigPaths("config.json")
	require.NotEmpty(t, paths)
	for i, path := range paths {
		assert.True(t, filepath.IsAbs(path), "path[%d] = %s is not absolute", i, path)
		assert.True(t, strings.HasSuffix(path, filepath.Join(AppName, "config.json")), path)
	}

	dirs := x.GetConfigPaths("")
	assert.Equal(t, AppName, filepath.Base(dirs[0]))
}

func TestXDGCachePath(t *testing.T) {
	x := NewXDGDirs()

	assert.Equal(t, AppName, filepath.Base(x.GetCachePath("")))
	assert.Equal(t, filepath.Join(AppName, "logs"), filepath.Join(filepath.Base(filepath.Dir(x.GetCachePath("logs"))), "logs"))
}

func TestXDGCreateCacheDir(t *testing.T) {
	memFS := afero.NewMemMapFs()
	x := NewXDGDirsWithFilesystem(memFS)

	require.NoError(t, x.CreateCacheDir("logs"))

	exists, err := afero.DirExists(memFS, x.GetCachePath("logs"))
	require.NoError(t, err)
	assert.True(t, exists)
}
