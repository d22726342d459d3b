package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesRustDefault(t *testing.T) {
	d := Default()
	assert.False(t, d.Autosplit)
	assert.False(t, d.Timing)
	assert.False(t, d.TraceRecalc)
	assert.False(t, d.Incremental)
	assert.Equal(t, 1, d.Jobs)
}

func TestLoadWithoutFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	opts, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), opts)
}

func TestLoadOverlaysKDLOntoDefault(t *testing.T) {
	dir := t.TempDir()
	content := "autosplit true\njobs 4\ntiming true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mmknife.kdl"), []byte(content), 0o644))

	opts, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, opts.Autosplit)
	assert.True(t, opts.Timing)
	assert.Equal(t, 4, opts.Jobs)
	assert.False(t, opts.Incremental)
}
