package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/spf13/viper"
)

// Default evaluation settings
const (
	// DefaultGroundTruthGlob discovers one ground-truth file per clone type
	DefaultGroundTruthGlob = "groundtruth/*.csv"

	// DefaultGroundTruthTemplate locates the ground truth of a clone type
	DefaultGroundTruthTemplate = "groundtruth/{type}.csv"

	// DefaultDetectorTemplate locates the detector report
	DefaultDetectorTemplate = "nicad/clones.xml"

	// DefaultSampleTemplate locates the query sample of a seed
	DefaultSampleTemplate = "samples/sample_{seed}.txt"

	// DefaultTimeoutSeconds bounds a whole evaluation run
	DefaultTimeoutSeconds = 600

	// DefaultReportDirectory receives json, yaml and csv reports
	DefaultReportDirectory = ".cloneval/reports"

	// DefaultResultsFile receives one appended row per evaluation unit
	DefaultResultsFile = ".cloneval/results.csv"

	// DefaultArchiveBucket is the S3 bucket reports are archived to
	DefaultArchiveBucket = "cloneval-reports"

	// DefaultArchiveRegion is used when no region is configured
	DefaultArchiveRegion = "us-east-1"
)

// Config represents the main configuration structure
type Config struct {
	Dataset     DatasetConfig     `mapstructure:"dataset" yaml:"dataset"`
	GroundTruth GroundTruthConfig `mapstructure:"ground_truth" yaml:"ground_truth"`
	Detector    DetectorConfig    `mapstructure:"detector" yaml:"detector"`
	Samples     SamplesConfig     `mapstructure:"samples" yaml:"samples"`
	Loader      LoaderConfig      `mapstructure:"loader" yaml:"loader"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	Performance PerformanceConfig `mapstructure:"performance" yaml:"performance"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Results     ResultsConfig     `mapstructure:"results" yaml:"results"`
	Archive     ArchiveConfig     `mapstructure:"archive" yaml:"archive"`

	// SourcePath is the file the configuration was read from, empty for defaults
	SourcePath string `mapstructure:"-" yaml:"-"`
}

// DatasetConfig selects what is evaluated
type DatasetConfig struct {
	// Root is the directory all relative templates are resolved against
	Root string `mapstructure:"root" yaml:"root"`

	// CloneTypes lists categories; empty means discover via ground_truth.glob
	CloneTypes []string `mapstructure:"clone_types" yaml:"clone_types"`

	// Seeds lists the sampling seeds to evaluate
	Seeds []int `mapstructure:"seeds" yaml:"seeds"`
}

// GroundTruthConfig locates and decodes the reference clone pairs
type GroundTruthConfig struct {
	Glob         string `mapstructure:"glob" yaml:"glob"`
	PathTemplate string `mapstructure:"path_template" yaml:"path_template"`
	Format       string `mapstructure:"format" yaml:"format"`
	Normalizer   string `mapstructure:"normalizer" yaml:"normalizer"`
}

// DetectorConfig locates and decodes the detector output
type DetectorConfig struct {
	PathTemplate string `mapstructure:"path_template" yaml:"path_template"`
	Format       string `mapstructure:"format" yaml:"format"`
	Normalizer   string `mapstructure:"normalizer" yaml:"normalizer"`
}

// SamplesConfig locates the query subsets
type SamplesConfig struct {
	PathTemplate string `mapstructure:"path_template" yaml:"path_template"`
}

// LoaderConfig holds options shared by both sources
type LoaderConfig struct {
	HeaderMode      string `mapstructure:"header_mode" yaml:"header_mode"`
	HeaderMarker    string `mapstructure:"header_marker" yaml:"header_marker"`
	ExistenceFilter bool   `mapstructure:"existence_filter" yaml:"existence_filter"`
	SourceRoot      string `mapstructure:"source_root" yaml:"source_root"`
	Delimiter       string `mapstructure:"delimiter" yaml:"delimiter"`
}

// MetricsConfig holds metric parameters
type MetricsConfig struct {
	KValues []int `mapstructure:"k_values" yaml:"k_values"`
}

// PerformanceConfig bounds resource use of a run
type PerformanceConfig struct {
	// MaxWorkers is the number of units evaluated concurrently, 0 means NumCPU
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers"`

	// TimeoutSeconds bounds the whole run, 0 disables the timeout
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`

	// CacheSize is the number of loaded sources kept in memory
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json, yaml, csv
	Format string `mapstructure:"format" yaml:"format"`

	// Directory receives non-text reports
	Directory string `mapstructure:"directory" yaml:"directory"`

	// ResultsFile receives appended result rows, empty disables it
	ResultsFile string `mapstructure:"results_file" yaml:"results_file"`

	ShowProgress bool `mapstructure:"show_progress" yaml:"show_progress"`
	Verbose      bool `mapstructure:"verbose" yaml:"verbose"`
}

// ResultsConfig configures the optional results database
type ResultsConfig struct {
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
}

// ArchiveConfig configures the optional S3 report archive
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Seeds: append([]int(nil), domain.DefaultSeeds...),
		},
		GroundTruth: GroundTruthConfig{
			Glob:         DefaultGroundTruthGlob,
			PathTemplate: DefaultGroundTruthTemplate,
			Format:       string(domain.SourceFormatAuto),
			Normalizer:   domain.NormalizerFirstDot,
		},
		Detector: DetectorConfig{
			PathTemplate: DefaultDetectorTemplate,
			Format:       string(domain.SourceFormatAuto),
			Normalizer:   domain.NormalizerLastDot,
		},
		Samples: SamplesConfig{
			PathTemplate: DefaultSampleTemplate,
		},
		Loader: LoaderConfig{
			HeaderMode:   string(domain.HeaderModeAuto),
			HeaderMarker: domain.DefaultHeaderMarker,
			Delimiter:    domain.DefaultDelimiter,
		},
		Metrics: MetricsConfig{
			KValues: append([]int(nil), domain.DefaultKValues...),
		},
		Performance: PerformanceConfig{
			MaxWorkers:     0,
			TimeoutSeconds: DefaultTimeoutSeconds,
			CacheSize:      domain.DefaultCacheSize,
		},
		Output: OutputConfig{
			Format:       string(domain.OutputFormatText),
			Directory:    DefaultReportDirectory,
			ResultsFile:  DefaultResultsFile,
			ShowProgress: true,
		},
		Archive: ArchiveConfig{
			Bucket: DefaultArchiveBucket,
			Region: DefaultArchiveRegion,
			UseSSL: true,
		},
	}
}

// LoadConfig loads configuration with the following priority:
//  1. configPath, any format viper reads
//  2. .cloneval.toml found by walking up from startDir
//  3. defaults
//
// CLONEVAL_* environment variables are applied on top, then the result is validated.
func LoadConfig(configPath, startDir string) (*Config, error) {
	var cfg *Config
	var err error

	if configPath != "" {
		cfg, err = loadViperConfig(configPath)
	} else {
		cfg, err = NewTomlConfigLoader().LoadConfig(startDir)
	}
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadViperConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(configPath)
	if filepath.Ext(configPath) == "" {
		v.SetConfigType("toml")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to read config file %s", configPath), err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, domain.NewConfigError("failed to unmarshal config", err)
	}

	cfg.SourcePath = configPath
	cfg.resolveRelativeRoot(filepath.Dir(configPath))
	return cfg, nil
}

// resolveRelativeRoot anchors a relative dataset root at the config file's directory
func (c *Config) resolveRelativeRoot(configDir string) {
	if c.Dataset.Root != "" && !filepath.IsAbs(c.Dataset.Root) {
		c.Dataset.Root = filepath.Join(configDir, c.Dataset.Root)
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if err := c.GroundTruthSettings().Validate(); err != nil {
		return fmt.Errorf("ground_truth: %w", err)
	}
	if err := c.DetectorSettings().Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}

	if c.GroundTruth.PathTemplate == "" {
		return fmt.Errorf("ground_truth.path_template cannot be empty")
	}
	if c.Detector.PathTemplate == "" {
		return fmt.Errorf("detector.path_template cannot be empty")
	}
	if c.Samples.PathTemplate == "" {
		return fmt.Errorf("samples.path_template cannot be empty")
	}
	if len(c.Dataset.CloneTypes) == 0 && c.GroundTruth.Glob == "" {
		return fmt.Errorf("dataset.clone_types or ground_truth.glob must be set")
	}

	for _, seed := range c.Dataset.Seeds {
		if seed < 0 {
			return fmt.Errorf("dataset.seeds must be >= 0, got %d", seed)
		}
	}

	if len(c.Metrics.KValues) == 0 {
		return fmt.Errorf("metrics.k_values cannot be empty")
	}
	for _, k := range c.Metrics.KValues {
		if k <= 0 {
			return fmt.Errorf("metrics.k_values must be > 0, got %d", k)
		}
	}

	if c.Performance.MaxWorkers < 0 {
		return fmt.Errorf("performance.max_workers must be >= 0, got %d", c.Performance.MaxWorkers)
	}
	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}
	if c.Performance.CacheSize < 1 {
		return fmt.Errorf("performance.cache_size must be >= 1, got %d", c.Performance.CacheSize)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"yaml": true,
		"csv":  true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, csv", c.Output.Format)
	}

	if c.Archive.Enabled {
		if c.Archive.Endpoint == "" {
			return fmt.Errorf("archive.endpoint is required when archive.enabled is true")
		}
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket is required when archive.enabled is true")
		}
	}

	return nil
}

// GroundTruthSettings returns the loader settings for ground-truth sources
func (c *Config) GroundTruthSettings() domain.SourceSettings {
	return c.sourceSettings(c.GroundTruth.Format, c.GroundTruth.Normalizer)
}

// DetectorSettings returns the loader settings for the detector report
func (c *Config) DetectorSettings() domain.SourceSettings {
	return c.sourceSettings(c.Detector.Format, c.Detector.Normalizer)
}

func (c *Config) sourceSettings(format, normalizer string) domain.SourceSettings {
	return domain.SourceSettings{
		Format:          domain.SourceFormat(format),
		Normalizer:      normalizer,
		HeaderMode:      domain.HeaderMode(c.Loader.HeaderMode),
		HeaderMarker:    c.Loader.HeaderMarker,
		ExistenceFilter: c.Loader.ExistenceFilter,
		SourceRoot:      c.Loader.SourceRoot,
		Delimiter:       c.Loader.Delimiter,
	}
}

// Categories returns the configured clone types
func (c *Config) Categories() []domain.CloneCategory {
	out := make([]domain.CloneCategory, 0, len(c.Dataset.CloneTypes))
	for _, t := range c.Dataset.CloneTypes {
		out = append(out, domain.CloneCategory(t))
	}
	return out
}

// Workers returns the effective worker count
func (c *Config) Workers() int {
	if c.Performance.MaxWorkers > 0 {
		return c.Performance.MaxWorkers
	}
	return runtime.NumCPU()
}

// Timeout returns the run timeout, 0 for none
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Performance.TimeoutSeconds) * time.Second
}
