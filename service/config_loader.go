package service

import (
	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/internal/config"
)

// ConfigurationLoaderImpl turns configuration into requests
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configPath, or the .cloneval.toml found from startDir upward
func (c *ConfigurationLoaderImpl) LoadConfig(configPath, startDir string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath, startDir)
	if err != nil {
		if domain.HasErrorCode(err, domain.ErrCodeConfigError) {
			return nil, err
		}
		return nil, domain.NewConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// LoadDefaultConfig returns the defaults with environment overrides applied
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *config.Config {
	cfg := config.DefaultConfig()
	if err := config.ApplyEnv(cfg); err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// EvaluationRequest converts configuration into an evaluation request
func (c *ConfigurationLoaderImpl) EvaluationRequest(cfg *config.Config) *domain.EvaluationRequest {
	return &domain.EvaluationRequest{
		DatasetRoot:         cfg.Dataset.Root,
		Categories:          cfg.Categories(),
		Seeds:               append([]int(nil), cfg.Dataset.Seeds...),
		KValues:             append([]int(nil), cfg.Metrics.KValues...),
		GroundTruthGlob:     cfg.GroundTruth.Glob,
		GroundTruthTemplate: cfg.GroundTruth.PathTemplate,
		DetectorTemplate:    cfg.Detector.PathTemplate,
		SampleTemplate:      cfg.Samples.PathTemplate,
		GroundTruth:         cfg.GroundTruthSettings(),
		Detector:            cfg.DetectorSettings(),
		MaxWorkers:          cfg.Performance.MaxWorkers,
		Timeout:             cfg.Timeout(),
		OutputFormat:        domain.OutputFormat(cfg.Output.Format),
		ResultsFile:         cfg.Output.ResultsFile,
		ShowProgress:        cfg.Output.ShowProgress,
		Verbose:             cfg.Output.Verbose,
		ConfigPath:          cfg.SourcePath,
	}
}

// InspectRequest converts configuration into an inspect request. Inspect
// uses the ground-truth source settings.
func (c *ConfigurationLoaderImpl) InspectRequest(cfg *config.Config) *domain.InspectRequest {
	return &domain.InspectRequest{
		Settings:     cfg.GroundTruthSettings(),
		OutputFormat: domain.OutputFormatText,
	}
}
