package service

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationLoader_EvaluationRequest(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dataset.Root = "/data/bcb"
	cfg.Dataset.CloneTypes = []string{"T1", "T2"}
	cfg.Performance.MaxWorkers = 3
	cfg.Performance.TimeoutSeconds = 5
	cfg.Output.Verbose = true
	cfg.SourcePath = "/data/.cloneval.toml"

	req := NewConfigurationLoader().EvaluationRequest(cfg)

	assert.Equal(t, "/data/bcb", req.DatasetRoot)
	assert.Equal(t, []domain.CloneCategory{"T1", "T2"}, req.Categories)
	assert.Equal(t, domain.DefaultSeeds, req.Seeds)
	assert.Equal(t, []int{5, 10}, req.KValues)
	assert.Equal(t, config.DefaultGroundTruthTemplate, req.GroundTruthTemplate)
	assert.Equal(t, config.DefaultDetectorTemplate, req.DetectorTemplate)
	assert.Equal(t, config.DefaultSampleTemplate, req.SampleTemplate)
	assert.Equal(t, domain.NormalizerFirstDot, req.GroundTruth.Normalizer)
	assert.Equal(t, domain.NormalizerLastDot, req.Detector.Normalizer)
	assert.Equal(t, 3, req.MaxWorkers)
	assert.Equal(t, 5*time.Second, req.Timeout)
	assert.Equal(t, domain.OutputFormatText, req.OutputFormat)
	assert.True(t, req.Verbose)
	assert.Equal(t, "/data/.cloneval.toml", req.ConfigPath)

	// the request must not alias the configuration slices
	req.Seeds[0] = 99
	assert.Equal(t, 0, cfg.Dataset.Seeds[0])
}

func TestConfigurationLoader_LoadConfigError(t *testing.T) {
	_, err := NewConfigurationLoader().LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), "")
	require.Error(t, err)
	assert.True(t, domain.HasErrorCode(err, domain.ErrCodeConfigError))
}

func TestConfigurationLoaderWithFlags_MergeConfig(t *testing.T) {
	base := NewConfigurationLoader().EvaluationRequest(config.DefaultConfig())
	base.DatasetRoot = "/from/config"
	base.ResultsFile = "results.csv"

	var out bytes.Buffer
	override := &domain.EvaluationRequest{
		DatasetRoot:  "/from/args",
		Categories:   []domain.CloneCategory{"MT3"},
		Seeds:        []int{7},
		KValues:      []int{1},
		MaxWorkers:   9,
		Timeout:      time.Minute,
		OutputFormat: domain.OutputFormatJSON,
		OutputWriter: &out,
		OutputPath:   "report.json",
		ShowProgress: false,
		GroundTruth:  domain.SourceSettings{Normalizer: domain.NormalizerLastDot, HeaderMode: domain.HeaderModeNever},
		Detector:     domain.SourceSettings{Normalizer: domain.NormalizerLastDot, HeaderMode: domain.HeaderModeNever},
	}

	tests := []struct {
		name   string
		flags  map[string]bool
		verify func(t *testing.T, m *domain.EvaluationRequest)
	}{
		{
			name:  "no explicit flags keeps configuration",
			flags: map[string]bool{},
			verify: func(t *testing.T, m *domain.EvaluationRequest) {
				assert.Equal(t, "/from/args", m.DatasetRoot)
				assert.Empty(t, m.Categories)
				assert.Equal(t, domain.DefaultSeeds, m.Seeds)
				assert.Equal(t, []int{5, 10}, m.KValues)
				assert.Equal(t, 0, m.MaxWorkers)
				assert.Equal(t, time.Duration(config.DefaultTimeoutSeconds)*time.Second, m.Timeout)
				assert.Equal(t, domain.OutputFormatText, m.OutputFormat)
				assert.True(t, m.ShowProgress)
				assert.Equal(t, "results.csv", m.ResultsFile)
				assert.Equal(t, domain.NormalizerFirstDot, m.GroundTruth.Normalizer)
				assert.Equal(t, domain.NormalizerLastDot, m.Detector.Normalizer)
				// writer and path always come from the command line
				assert.Equal(t, "report.json", m.OutputPath)
				assert.NotNil(t, m.OutputWriter)
			},
		},
		{
			name: "explicit flags win",
			flags: map[string]bool{
				"types": true, "seeds": true, "k": true, "workers": true, "timeout": true,
				"json": true, "no-progress": true, "normalizer": true, "header-mode": true,
			},
			verify: func(t *testing.T, m *domain.EvaluationRequest) {
				assert.Equal(t, []domain.CloneCategory{"MT3"}, m.Categories)
				assert.Equal(t, []int{7}, m.Seeds)
				assert.Equal(t, []int{1}, m.KValues)
				assert.Equal(t, 9, m.MaxWorkers)
				assert.Equal(t, time.Minute, m.Timeout)
				assert.Equal(t, domain.OutputFormatJSON, m.OutputFormat)
				assert.False(t, m.ShowProgress)
				assert.Equal(t, domain.NormalizerLastDot, m.GroundTruth.Normalizer)
				assert.Equal(t, domain.HeaderModeNever, m.GroundTruth.HeaderMode)
				assert.Equal(t, domain.HeaderModeNever, m.Detector.HeaderMode)
				// unrelated settings survive
				assert.Equal(t, domain.DefaultHeaderMarker, m.GroundTruth.HeaderMarker)
			},
		},
		{
			name:  "explicit empty results disables the file",
			flags: map[string]bool{"results": true},
			verify: func(t *testing.T, m *domain.EvaluationRequest) {
				assert.Equal(t, "", m.ResultsFile)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := NewConfigurationLoaderWithFlags(tt.flags).MergeConfig(base, override)
			tt.verify(t, merged)
		})
	}
}

func TestConfigurationLoaderWithFlags_MergeNil(t *testing.T) {
	loader := NewConfigurationLoaderWithFlags(nil)
	req := &domain.EvaluationRequest{DatasetRoot: "x"}

	assert.Same(t, req, loader.MergeConfig(nil, req))
	assert.Same(t, req, loader.MergeConfig(req, nil))
}

func TestConfigurationLoaderWithFlags_LoadEvaluationRequest(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, config.ConfigFileName, `
[dataset]
root = "bcb"
clone_types = ["T1"]
seeds = [2]

[output]
show_progress = false
`)

	loader := NewConfigurationLoaderWithFlags(map[string]bool{"seeds": true})
	req, cfg, err := loader.LoadEvaluationRequest("", &domain.EvaluationRequest{
		DatasetRoot: dir,
		Seeds:       []int{4, 5},
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, config.ConfigFileName), cfg.SourcePath)
	assert.Equal(t, dir, req.DatasetRoot)
	assert.Equal(t, []domain.CloneCategory{"T1"}, req.Categories)
	assert.Equal(t, []int{4, 5}, req.Seeds)
	assert.False(t, req.ShowProgress)
}

func TestConfigurationLoaderWithFlags_MergeInspect(t *testing.T) {
	base := NewConfigurationLoader().InspectRequest(config.DefaultConfig())
	override := &domain.InspectRequest{
		Paths:        []string{"a.csv"},
		Settings:     domain.SourceSettings{Format: domain.SourceFormatXML, Normalizer: domain.NormalizerLastDot},
		OutputFormat: domain.OutputFormatYAML,
	}

	merged := NewConfigurationLoaderWithFlags(map[string]bool{"format": true, "yaml": true}).MergeInspect(base, override)

	assert.Equal(t, []string{"a.csv"}, merged.Paths)
	assert.Equal(t, domain.SourceFormatXML, merged.Settings.Format)
	assert.Equal(t, domain.NormalizerFirstDot, merged.Settings.Normalizer)
	assert.Equal(t, domain.OutputFormatYAML, merged.OutputFormat)
	assert.Equal(t, domain.DefaultHeaderMarker, merged.Settings.HeaderMarker)
}
