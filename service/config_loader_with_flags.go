package service

import (
	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/internal/config"
)

// ConfigurationLoaderWithFlags wraps configuration loading with explicit flag tracking
type ConfigurationLoaderWithFlags struct {
	loader      *ConfigurationLoaderImpl
	flagTracker *config.FlagTracker
}

// NewConfigurationLoaderWithFlags creates a new configuration loader that tracks explicit flags
func NewConfigurationLoaderWithFlags(explicitFlags map[string]bool) *ConfigurationLoaderWithFlags {
	return &ConfigurationLoaderWithFlags{
		loader:      NewConfigurationLoader(),
		flagTracker: config.NewFlagTrackerWithFlags(explicitFlags),
	}
}

// LoadConfig loads the configuration file and environment overrides
func (c *ConfigurationLoaderWithFlags) LoadConfig(configPath, startDir string) (*config.Config, error) {
	return c.loader.LoadConfig(configPath, startDir)
}

// LoadEvaluationRequest loads configuration and merges the command-line override into it
func (c *ConfigurationLoaderWithFlags) LoadEvaluationRequest(configPath string, override *domain.EvaluationRequest) (*domain.EvaluationRequest, *config.Config, error) {
	startDir := "."
	if override != nil && override.DatasetRoot != "" {
		startDir = override.DatasetRoot
	}
	cfg, err := c.LoadConfig(configPath, startDir)
	if err != nil {
		return nil, nil, err
	}
	return c.MergeConfig(c.loader.EvaluationRequest(cfg), override), cfg, nil
}

// MergeConfig merges CLI flags with configuration file, respecting explicit flags
func (c *ConfigurationLoaderWithFlags) MergeConfig(base *domain.EvaluationRequest, override *domain.EvaluationRequest) *domain.EvaluationRequest {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	ft := c.flagTracker

	// The dataset root comes from the positional argument
	if override.DatasetRoot != "" {
		merged.DatasetRoot = override.DatasetRoot
	}

	if ft.WasSet("types") && len(override.Categories) > 0 {
		merged.Categories = override.Categories
	}
	merged.Seeds = ft.MergeIntSlice(merged.Seeds, override.Seeds, "seeds")
	merged.KValues = ft.MergeIntSlice(merged.KValues, override.KValues, "k")

	merged.GroundTruthTemplate = ft.MergeString(merged.GroundTruthTemplate, override.GroundTruthTemplate, "ground-truth")
	merged.DetectorTemplate = ft.MergeString(merged.DetectorTemplate, override.DetectorTemplate, "detector")
	merged.SampleTemplate = ft.MergeString(merged.SampleTemplate, override.SampleTemplate, "samples")

	merged.GroundTruth = c.mergeSettings(merged.GroundTruth, override.GroundTruth)
	merged.Detector = c.mergeSettings(merged.Detector, override.Detector)

	merged.MaxWorkers = ft.MergeInt(merged.MaxWorkers, override.MaxWorkers, "workers")
	if ft.WasSet("timeout") {
		merged.Timeout = override.Timeout
	}

	if ft.WasSet("json") || ft.WasSet("yaml") || ft.WasSet("csv") {
		merged.OutputFormat = override.OutputFormat
	}
	if merged.OutputFormat == "" {
		merged.OutputFormat = domain.OutputFormatText
	}

	// Writer and path are derived from the format flags, never from configuration
	merged.OutputWriter = override.OutputWriter
	merged.OutputPath = override.OutputPath

	merged.ResultsFile = ft.MergeString(merged.ResultsFile, override.ResultsFile, "results")
	merged.ShowProgress = ft.MergeBool(merged.ShowProgress, override.ShowProgress, "no-progress")
	merged.Verbose = ft.MergeBool(merged.Verbose, override.Verbose, "verbose")

	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	return &merged
}

// mergeSettings applies the source flags, which act on both sources alike
func (c *ConfigurationLoaderWithFlags) mergeSettings(base, override domain.SourceSettings) domain.SourceSettings {
	ft := c.flagTracker
	merged := base
	merged.Normalizer = ft.MergeString(merged.Normalizer, override.Normalizer, "normalizer")
	merged.HeaderMode = domain.HeaderMode(ft.MergeString(string(merged.HeaderMode), string(override.HeaderMode), "header-mode"))
	merged.ExistenceFilter = ft.MergeBool(merged.ExistenceFilter, override.ExistenceFilter, "existence-filter")
	merged.SourceRoot = ft.MergeString(merged.SourceRoot, override.SourceRoot, "source-root")
	return merged
}

// LoadInspectRequest loads configuration and merges the command-line override into it
func (c *ConfigurationLoaderWithFlags) LoadInspectRequest(configPath string, override *domain.InspectRequest) (*domain.InspectRequest, *config.Config, error) {
	cfg, err := c.LoadConfig(configPath, ".")
	if err != nil {
		return nil, nil, err
	}
	return c.MergeInspect(c.loader.InspectRequest(cfg), override), cfg, nil
}

// MergeInspect merges CLI flags into an inspect request
func (c *ConfigurationLoaderWithFlags) MergeInspect(base *domain.InspectRequest, override *domain.InspectRequest) *domain.InspectRequest {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Paths = override.Paths
	merged.Settings = c.mergeSettings(merged.Settings, override.Settings)
	if c.flagTracker.WasSet("format") {
		merged.Settings.Format = override.Settings.Format
	}
	if c.flagTracker.WasSet("json") || c.flagTracker.WasSet("yaml") || c.flagTracker.WasSet("csv") {
		merged.OutputFormat = override.OutputFormat
	}
	merged.OutputWriter = override.OutputWriter
	merged.OutputPath = override.OutputPath
	return &merged
}
