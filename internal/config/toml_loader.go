package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the dedicated configuration file discovered by walking up
const ConfigFileName = ".cloneval.toml"

// ClonevalTomlConfig represents the structure of .cloneval.toml
type ClonevalTomlConfig struct {
	Dataset     DatasetTomlConfig     `toml:"dataset"`
	GroundTruth GroundTruthTomlConfig `toml:"ground_truth"`
	Detector    DetectorTomlConfig    `toml:"detector"`
	Samples     SamplesTomlConfig     `toml:"samples"`
	Loader      LoaderTomlConfig      `toml:"loader"`
	Metrics     MetricsTomlConfig     `toml:"metrics"`
	Performance PerformanceTomlConfig `toml:"performance"`
	Output      OutputTomlConfig      `toml:"output"`
	Results     ResultsTomlConfig     `toml:"results"`
	Archive     ArchiveTomlConfig     `toml:"archive"`
}

type DatasetTomlConfig struct {
	Root       string   `toml:"root"`
	CloneTypes []string `toml:"clone_types"`
	Seeds      []int    `toml:"seeds"`
}

type GroundTruthTomlConfig struct {
	// pointer so an empty glob can disable discovery
	Glob         *string `toml:"glob"`
	PathTemplate string  `toml:"path_template"`
	Format       string  `toml:"format"`
	Normalizer   string  `toml:"normalizer"`
}

type DetectorTomlConfig struct {
	PathTemplate string `toml:"path_template"`
	Format       string `toml:"format"`
	Normalizer   string `toml:"normalizer"`
}

type SamplesTomlConfig struct {
	PathTemplate string `toml:"path_template"`
}

type LoaderTomlConfig struct {
	HeaderMode      string `toml:"header_mode"`
	HeaderMarker    string `toml:"header_marker"`
	ExistenceFilter *bool  `toml:"existence_filter"` // pointer to detect unset
	SourceRoot      string `toml:"source_root"`
	Delimiter       string `toml:"delimiter"`
}

type MetricsTomlConfig struct {
	KValues []int `toml:"k_values"`
}

type PerformanceTomlConfig struct {
	MaxWorkers int `toml:"max_workers"`
	// pointer so 0 can disable the timeout
	TimeoutSeconds *int `toml:"timeout_seconds"`
	CacheSize      int  `toml:"cache_size"`
}

type OutputTomlConfig struct {
	Format    string `toml:"format"`
	Directory string `toml:"directory"`
	// pointer so "" can disable the sink
	ResultsFile  *string `toml:"results_file"`
	ShowProgress *bool   `toml:"show_progress"` // pointer to detect unset
	Verbose      *bool   `toml:"verbose"`       // pointer to detect unset
}

type ResultsTomlConfig struct {
	PostgresDSN string `toml:"postgres_dsn"`
}

type ArchiveTomlConfig struct {
	Enabled   *bool  `toml:"enabled"` // pointer to detect unset
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	UseSSL    *bool  `toml:"use_ssl"` // pointer to detect unset
}

// TomlConfigLoader handles TOML-only configuration loading
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig loads .cloneval.toml found from startDir upward, or defaults
func (l *TomlConfigLoader) LoadConfig(startDir string) (*Config, error) {
	configPath, err := l.FindConfigFile(startDir)
	if err != nil {
		return DefaultConfig(), nil
	}
	return l.LoadFile(configPath)
}

// LoadFile reads a specific .cloneval.toml and merges it into defaults
func (l *TomlConfigLoader) LoadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to read %s", configPath), err)
	}

	var tomlConfig ClonevalTomlConfig
	if err := toml.Unmarshal(data, &tomlConfig); err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to parse %s", configPath), err)
	}

	defaults := DefaultConfig()
	l.mergeTomlConfig(defaults, &tomlConfig)
	defaults.SourcePath = configPath
	defaults.resolveRelativeRoot(filepath.Dir(configPath))

	return defaults, nil
}

// FindConfigFile walks up the directory tree to find .cloneval.toml
func (l *TomlConfigLoader) FindConfigFile(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}

// mergeTomlConfig merges .cloneval.toml values into defaults, using pointer
// fields to detect unset booleans
func (l *TomlConfigLoader) mergeTomlConfig(defaults *Config, t *ClonevalTomlConfig) {
	// Dataset
	if t.Dataset.Root != "" {
		defaults.Dataset.Root = t.Dataset.Root
	}
	if len(t.Dataset.CloneTypes) > 0 {
		defaults.Dataset.CloneTypes = t.Dataset.CloneTypes
	}
	if len(t.Dataset.Seeds) > 0 {
		defaults.Dataset.Seeds = t.Dataset.Seeds
	}

	// Ground truth
	if t.GroundTruth.Glob != nil {
		defaults.GroundTruth.Glob = *t.GroundTruth.Glob
	}
	if t.GroundTruth.PathTemplate != "" {
		defaults.GroundTruth.PathTemplate = t.GroundTruth.PathTemplate
	}
	if t.GroundTruth.Format != "" {
		defaults.GroundTruth.Format = t.GroundTruth.Format
	}
	if t.GroundTruth.Normalizer != "" {
		defaults.GroundTruth.Normalizer = t.GroundTruth.Normalizer
	}

	// Detector
	if t.Detector.PathTemplate != "" {
		defaults.Detector.PathTemplate = t.Detector.PathTemplate
	}
	if t.Detector.Format != "" {
		defaults.Detector.Format = t.Detector.Format
	}
	if t.Detector.Normalizer != "" {
		defaults.Detector.Normalizer = t.Detector.Normalizer
	}

	// Samples
	if t.Samples.PathTemplate != "" {
		defaults.Samples.PathTemplate = t.Samples.PathTemplate
	}

	// Loader
	if t.Loader.HeaderMode != "" {
		defaults.Loader.HeaderMode = t.Loader.HeaderMode
	}
	if t.Loader.HeaderMarker != "" {
		defaults.Loader.HeaderMarker = t.Loader.HeaderMarker
	}
	if t.Loader.ExistenceFilter != nil {
		defaults.Loader.ExistenceFilter = *t.Loader.ExistenceFilter
	}
	if t.Loader.SourceRoot != "" {
		defaults.Loader.SourceRoot = t.Loader.SourceRoot
	}
	if t.Loader.Delimiter != "" {
		defaults.Loader.Delimiter = t.Loader.Delimiter
	}

	// Metrics
	if len(t.Metrics.KValues) > 0 {
		defaults.Metrics.KValues = t.Metrics.KValues
	}

	// Performance
	if t.Performance.MaxWorkers > 0 {
		defaults.Performance.MaxWorkers = t.Performance.MaxWorkers
	}
	if t.Performance.TimeoutSeconds != nil {
		defaults.Performance.TimeoutSeconds = *t.Performance.TimeoutSeconds
	}
	if t.Performance.CacheSize > 0 {
		defaults.Performance.CacheSize = t.Performance.CacheSize
	}

	// Output
	if t.Output.Format != "" {
		defaults.Output.Format = t.Output.Format
	}
	if t.Output.Directory != "" {
		defaults.Output.Directory = t.Output.Directory
	}
	if t.Output.ResultsFile != nil {
		defaults.Output.ResultsFile = *t.Output.ResultsFile
	}
	if t.Output.ShowProgress != nil {
		defaults.Output.ShowProgress = *t.Output.ShowProgress
	}
	if t.Output.Verbose != nil {
		defaults.Output.Verbose = *t.Output.Verbose
	}

	// Results
	if t.Results.PostgresDSN != "" {
		defaults.Results.PostgresDSN = t.Results.PostgresDSN
	}

	// Archive
	if t.Archive.Enabled != nil {
		defaults.Archive.Enabled = *t.Archive.Enabled
	}
	if t.Archive.Endpoint != "" {
		defaults.Archive.Endpoint = t.Archive.Endpoint
	}
	if t.Archive.AccessKey != "" {
		defaults.Archive.AccessKey = t.Archive.AccessKey
	}
	if t.Archive.SecretKey != "" {
		defaults.Archive.SecretKey = t.Archive.SecretKey
	}
	if t.Archive.Bucket != "" {
		defaults.Archive.Bucket = t.Archive.Bucket
	}
	if t.Archive.Region != "" {
		defaults.Archive.Region = t.Archive.Region
	}
	if t.Archive.UseSSL != nil {
		defaults.Archive.UseSSL = *t.Archive.UseSSL
	}
}
