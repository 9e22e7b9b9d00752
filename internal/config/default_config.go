package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// defaultConfigTmpl contains the embedded default configuration template
//
//go:embed default_config.toml.tmpl
var defaultConfigTmpl string

// DefaultConfigValues holds all values used to render the default config template.
// All values are sourced from DefaultConfig to keep a single source of truth.
type DefaultConfigValues struct {
	Seeds   string
	KValues string

	GroundTruthGlob       string
	GroundTruthTemplate   string
	GroundTruthNormalizer string
	DetectorTemplate      string
	DetectorNormalizer    string
	SampleTemplate        string
	Format                string

	HeaderMode   string
	HeaderMarker string
	Delimiter    string

	TimeoutSeconds int
	CacheSize      int

	ReportDirectory string
	ResultsFile     string

	ArchiveBucket string
	ArchiveRegion string
}

func newDefaultConfigValues() DefaultConfigValues {
	cfg := DefaultConfig()
	return DefaultConfigValues{
		Seeds:                 joinInts(cfg.Dataset.Seeds),
		KValues:               joinInts(cfg.Metrics.KValues),
		GroundTruthGlob:       cfg.GroundTruth.Glob,
		GroundTruthTemplate:   cfg.GroundTruth.PathTemplate,
		GroundTruthNormalizer: cfg.GroundTruth.Normalizer,
		DetectorTemplate:      cfg.Detector.PathTemplate,
		DetectorNormalizer:    cfg.Detector.Normalizer,
		SampleTemplate:        cfg.Samples.PathTemplate,
		Format:                cfg.GroundTruth.Format,
		HeaderMode:            cfg.Loader.HeaderMode,
		HeaderMarker:          cfg.Loader.HeaderMarker,
		Delimiter:             cfg.Loader.Delimiter,
		TimeoutSeconds:        cfg.Performance.TimeoutSeconds,
		CacheSize:             cfg.Performance.CacheSize,
		ReportDirectory:       cfg.Output.Directory,
		ResultsFile:           cfg.Output.ResultsFile,
		ArchiveBucket:         cfg.Archive.Bucket,
		ArchiveRegion:         cfg.Archive.Region,
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

// GenerateDefaultConfigTOML renders the commented default .cloneval.toml
func GenerateDefaultConfigTOML() (string, error) {
	tmpl, err := template.New("default_config").Parse(defaultConfigTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse default config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newDefaultConfigValues()); err != nil {
		return "", fmt.Errorf("failed to render default config template: %w", err)
	}

	return buf.String(), nil
}
