package config

import (
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDefaultConfigTOML(t *testing.T) {
	content, err := GenerateDefaultConfigTOML()
	require.NoError(t, err)

	assert.Contains(t, content, `path_template = "groundtruth/{type}.csv"`)
	assert.Contains(t, content, "seeds = [0, 1, 2, 3, 4, 5, 6, 7, 8, 9]")
	assert.Contains(t, content, "k_values = [5, 10]")

	var parsed ClonevalTomlConfig
	require.NoError(t, toml.Unmarshal([]byte(content), &parsed))
}

func TestGenerateDefaultConfigTOML_LoadsAsDefaults(t *testing.T) {
	content, err := GenerateDefaultConfigTOML()
	require.NoError(t, err)

	dir := t.TempDir()
	path := writeConfig(t, dir, ConfigFileName, content)

	cfg, err := NewTomlConfigLoader().LoadFile(path)
	require.NoError(t, err)

	want := DefaultConfig()
	assert.Equal(t, want.Dataset.Seeds, cfg.Dataset.Seeds)
	assert.Equal(t, want.GroundTruth, cfg.GroundTruth)
	assert.Equal(t, want.Detector, cfg.Detector)
	assert.Equal(t, want.Loader, cfg.Loader)
	assert.Equal(t, want.Metrics, cfg.Metrics)
	assert.Equal(t, want.Performance, cfg.Performance)
	assert.Equal(t, want.Output, cfg.Output)
	assert.Equal(t, want.Archive, cfg.Archive)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.SourcePath)
	assert.NoError(t, cfg.Validate())
}
