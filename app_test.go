package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvaldes/planvec/plan"
)

func TestAppLoadConfig_Defaults(t *testing.T) {
	a := NewApp()
	a.ApplyOptions(AppOptions{DataDir: "/tmp/plans", HTTPPort: 9090})

	require.NoError(t, a.LoadConfig())
	assert.Equal(t, "/tmp/plans", a.Config.DataDir)
	assert.Equal(t, 9090, a.Config.HTTPPort)
	assert.Equal(t, plan.DefaultDetectionConfig(), a.Config.Detection)
}

func TestAppLoadConfig_FileWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataDir: /from/file
httpPort: 8000
detection:
  minArea: 250
`), 0644))

	a := NewApp()
	a.ApplyOptions(AppOptions{ConfigFile: path, DataDir: "/from/flag", HTTPPort: 9999})
	require.NoError(t, a.LoadConfig())

	assert.Equal(t, "/from/flag", a.Config.DataDir, "CLI flag wins over file")
	assert.Equal(t, 9999, a.Config.HTTPPort)
	assert.Equal(t, 250.0, a.Config.Detection.MinArea, "file detection settings survive")
}

func TestAppLoadConfig_MissingFile(t *testing.T) {
	a := NewApp()
	a.ApplyOptions(AppOptions{ConfigFile: filepath.Join(t.TempDir(), "none.yaml")})
	assert.Error(t, a.LoadConfig())
}

func TestAppLoadPlans(t *testing.T) {
	dir := t.TempDir()
	good := `{"nombre":"test","bordes_externos":[[[0,0],[100,0]]],"sublotes":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.plan.json"), []byte(good), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.plan.json"), []byte("not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.json"), []byte("{}"), 0644))

	a := NewApp()
	a.Config = &plan.Config{DataDir: dir, Detection: plan.DefaultDetectionConfig()}

	loaded := a.loadPlans()
	assert.Equal(t, 1, loaded, "bad documents are skipped, other files ignored")
	assert.Equal(t, []string{"test"}, a.Store.PlanNames())
}

func TestAppLoadPlans_WithCache(t *testing.T) {
	dir := t.TempDir()
	cache := filepath.Join(dir, "cache.json")
	good := `{"nombre":"test","bordes_externos":[[[0,0],[100,0]]],"sublotes":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.plan.json"), []byte(good), 0644))

	a := NewApp()
	a.Config = &plan.Config{DataDir: dir, CacheFile: cache, Detection: plan.DefaultDetectionConfig()}
	require.Equal(t, 1, a.loadPlans())

	// The cache file now holds the store state.
	_, err := os.Stat(cache)
	assert.NoError(t, err)
}
