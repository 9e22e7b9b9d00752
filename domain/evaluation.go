package domain

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CloneCategory labels a ground-truth partition, e.g. T1, T2, VST3, MT3
type CloneCategory string

// SourceFormat selects how a clone-pair source is decoded
type SourceFormat string

const (
	SourceFormatAuto      SourceFormat = "auto"
	SourceFormatDelimited SourceFormat = "delimited"
	SourceFormatXML       SourceFormat = "xml"
)

// HeaderMode controls whether the first record of a delimited source is skipped
type HeaderMode string

const (
	HeaderModeAuto   HeaderMode = "auto"
	HeaderModeAlways HeaderMode = "always"
	HeaderModeNever  HeaderMode = "never"
)

// Normalizer variant names
const (
	NormalizerFirstDot = "first_dot"
	NormalizerLastDot  = "last_dot"
)

// Default values shared by configuration and requests
const (
	DefaultHeaderMarker = "header"
	DefaultDelimiter    = ","
	DefaultCacheSize    = 64
)

// DefaultKValues are the cut-offs reported for precision
var DefaultKValues = []int{5, 10}

// DefaultSeeds are the sampling seeds evaluated when none are configured
var DefaultSeeds = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

// SourceSettings describes how one clone-pair source is read
type SourceSettings struct {
	Format          SourceFormat `json:"format" yaml:"format"`
	Normalizer      string       `json:"normalizer" yaml:"normalizer"`
	HeaderMode      HeaderMode   `json:"header_mode" yaml:"header_mode"`
	HeaderMarker    string       `json:"header_marker" yaml:"header_marker"`
	ExistenceFilter bool         `json:"existence_filter" yaml:"existence_filter"`
	SourceRoot      string       `json:"source_root,omitempty" yaml:"source_root,omitempty"`
	Delimiter       string       `json:"delimiter" yaml:"delimiter"`
}

// Key returns a stable string identifying the settings, used for caching
func (s SourceSettings) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s|%t|%s|%s",
		s.Format, s.Normalizer, s.HeaderMode, s.HeaderMarker, s.ExistenceFilter, s.SourceRoot, s.Delimiter)
}

// Validate checks the settings
func (s SourceSettings) Validate() error {
	switch s.Format {
	case "", SourceFormatAuto, SourceFormatDelimited, SourceFormatXML:
	default:
		return NewValidationError(fmt.Sprintf("unknown source format: %s", s.Format))
	}
	switch s.Normalizer {
	case "", NormalizerFirstDot, NormalizerLastDot:
	default:
		return NewValidationError(fmt.Sprintf("unknown normalizer: %s (expected %s or %s)",
			s.Normalizer, NormalizerFirstDot, NormalizerLastDot))
	}
	switch s.HeaderMode {
	case "", HeaderModeAuto, HeaderModeAlways, HeaderModeNever:
	default:
		return NewValidationError(fmt.Sprintf("unknown header mode: %s", s.HeaderMode))
	}
	if len([]rune(s.Delimiter)) > 1 {
		return NewValidationError(fmt.Sprintf("delimiter must be a single character, got %q", s.Delimiter))
	}
	if s.ExistenceFilter && s.SourceRoot == "" {
		return NewValidationError("existence filter requires a source root")
	}
	return nil
}

// EvaluationUnit is one (category, seed) pair with its resolved sources
type EvaluationUnit struct {
	Category        CloneCategory `json:"clone_type" yaml:"clone_type"`
	Seed            int           `json:"seed" yaml:"seed"`
	GroundTruthPath string        `json:"ground_truth" yaml:"ground_truth"`
	DetectorPath    string        `json:"detector" yaml:"detector"`
	SamplePath      string        `json:"sample" yaml:"sample"`
}

// Name returns a short label for progress and error messages
func (u EvaluationUnit) Name() string {
	return fmt.Sprintf("%s/seed=%d", u.Category, u.Seed)
}

// MetricSet holds the retrieval metrics of one comparison
type MetricSet struct {
	Recall       float64         `json:"recall" yaml:"recall"`
	PrecisionAtK map[int]float64 `json:"precision_at_k" yaml:"precision_at_k"`
	MRR          float64         `json:"mrr" yaml:"mrr"`
	MAP          float64         `json:"map" yaml:"map"`

	// Number of queries that entered each average
	PrecisionQueries int `json:"precision_queries" yaml:"precision_queries"`
	RankedQueries    int `json:"ranked_queries" yaml:"ranked_queries"`
	AveragedQueries  int `json:"averaged_queries" yaml:"averaged_queries"`
}

// Precision returns precision at k, or 0 when k was not computed
func (m MetricSet) Precision(k int) float64 {
	return m.PrecisionAtK[k]
}

// Ks returns the computed cut-offs in ascending order
func (m MetricSet) Ks() []int {
	ks := make([]int, 0, len(m.PrecisionAtK))
	for k := range m.PrecisionAtK {
		ks = append(ks, k)
	}
	slices.Sort(ks)
	return ks
}

// Rounded returns a copy with every metric rounded to 3 decimals
func (m MetricSet) Rounded() MetricSet {
	out := m
	out.Recall = Round3(m.Recall)
	out.MRR = Round3(m.MRR)
	out.MAP = Round3(m.MAP)
	out.PrecisionAtK = make(map[int]float64, len(m.PrecisionAtK))
	for k, v := range m.PrecisionAtK {
		out.PrecisionAtK[k] = Round3(v)
	}
	return out
}

// Round3 rounds v to 3 decimal places
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// SourceStats summarizes how a source was loaded
type SourceStats struct {
	Path            string `json:"path" yaml:"path"`
	Records         int    `json:"records" yaml:"records"`
	Accepted        int    `json:"accepted" yaml:"accepted"`
	Skipped         int    `json:"skipped" yaml:"skipped"`
	Filtered        int    `json:"filtered" yaml:"filtered"`
	Keys            int    `json:"keys" yaml:"keys"`
	UniqueFragments int    `json:"unique_fragments" yaml:"unique_fragments"`
	Cached          bool   `json:"cached" yaml:"cached"`
}

// EvaluationResult is the outcome of one evaluation unit
type EvaluationResult struct {
	RunID       string         `json:"run_id" yaml:"run_id"`
	Unit        EvaluationUnit `json:"unit" yaml:"unit"`
	Metrics     MetricSet      `json:"metrics" yaml:"metrics"`
	Queries     int            `json:"queries" yaml:"queries"`
	GroundTruth *SourceStats   `json:"ground_truth_stats,omitempty" yaml:"ground_truth_stats,omitempty"`
	Detector    *SourceStats   `json:"detector_stats,omitempty" yaml:"detector_stats,omitempty"`
	Error       string         `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMs  int64          `json:"duration_ms" yaml:"duration_ms"`
}

// Failed reports whether the unit could not be evaluated
func (r *EvaluationResult) Failed() bool {
	return r.Error != ""
}

// ResultHeader returns the persisted column names for the given cut-offs
func ResultHeader(ks []int) []string {
	header := []string{"cloneType"}
	for _, k := range ks {
		header = append(header, fmt.Sprintf("precision@%d", k))
	}
	return append(header, "MRR", "MAP", "recall", "seed")
}

// Row returns the persisted row: cloneType, precision@k..., MRR, MAP, recall, seed
func (r *EvaluationResult) Row(ks []int) []string {
	m := r.Metrics.Rounded()
	row := []string{string(r.Unit.Category)}
	for _, k := range ks {
		row = append(row, formatMetric(m.Precision(k)))
	}
	return append(row,
		formatMetric(m.MRR),
		formatMetric(m.MAP),
		formatMetric(m.Recall),
		strconv.Itoa(r.Unit.Seed),
	)
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CategorySummary aggregates the successful units of one category
type CategorySummary struct {
	Category CloneCategory `json:"clone_type" yaml:"clone_type"`
	Units    int           `json:"units" yaml:"units"`
	Failed   int           `json:"failed" yaml:"failed"`
	Mean     MetricSet     `json:"mean" yaml:"mean"`
}

// EvaluationRequest describes a batch evaluation over categories and seeds
type EvaluationRequest struct {
	DatasetRoot string          `json:"dataset_root"`
	Categories  []CloneCategory `json:"clone_types"`
	Seeds       []int           `json:"seeds"`
	KValues     []int           `json:"k_values"`

	GroundTruthGlob     string `json:"ground_truth_glob"`
	GroundTruthTemplate string `json:"ground_truth_template"`
	DetectorTemplate    string `json:"detector_template"`
	SampleTemplate      string `json:"sample_template"`

	GroundTruth SourceSettings `json:"ground_truth"`
	Detector    SourceSettings `json:"detector"`

	MaxWorkers int           `json:"max_workers"`
	Timeout    time.Duration `json:"timeout"`

	OutputFormat OutputFormat `json:"output_format"`
	OutputWriter io.Writer    `json:"-"`
	OutputPath   string       `json:"output_path"`
	ResultsFile  string       `json:"results_file"`
	ShowProgress bool         `json:"show_progress"`
	Verbose      bool         `json:"verbose"`

	ConfigPath string `json:"config_path"`
}

// Validate validates an evaluation request
func (r *EvaluationRequest) Validate() error {
	if r.DatasetRoot == "" {
		return NewValidationError("dataset root is required")
	}
	if len(r.Categories) == 0 && r.GroundTruthGlob == "" {
		return NewValidationError("either clone types or a ground truth glob must be given")
	}
	if r.GroundTruthTemplate == "" || r.DetectorTemplate == "" || r.SampleTemplate == "" {
		return NewValidationError("ground truth, detector and sample path templates are required")
	}
	for _, seed := range r.Seeds {
		if seed < 0 {
			return NewValidationError(fmt.Sprintf("seed must be non-negative, got %d", seed))
		}
	}
	for _, k := range r.KValues {
		if k <= 0 {
			return NewValidationError(fmt.Sprintf("k must be positive, got %d", k))
		}
	}
	if r.MaxWorkers < 0 {
		return NewValidationError("max workers must be >= 0")
	}
	if r.Timeout < 0 {
		return NewValidationError("timeout must be >= 0")
	}
	if err := r.GroundTruth.Validate(); err != nil {
		return fmt.Errorf("ground truth: %w", err)
	}
	if err := r.Detector.Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	return nil
}

// EvaluationResponse is the result of a batch evaluation
type EvaluationResponse struct {
	RunID       string              `json:"run_id" yaml:"run_id"`
	DatasetRoot string              `json:"dataset_root" yaml:"dataset_root"`
	KValues     []int               `json:"k_values" yaml:"k_values"`
	Results     []*EvaluationResult `json:"results" yaml:"results"`
	Summary     []CategorySummary   `json:"summary" yaml:"summary"`
	Total       int                 `json:"total" yaml:"total"`
	Failed      int                 `json:"failed" yaml:"failed"`
	Warnings    []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	GeneratedAt string              `json:"generated_at" yaml:"generated_at"`
	DurationMs  int64               `json:"duration_ms" yaml:"duration_ms"`
	Version     string              `json:"version" yaml:"version"`
}

// FailedUnits returns the names of the units that failed
func (r *EvaluationResponse) FailedUnits() []string {
	var names []string
	for _, res := range r.Results {
		if res.Failed() {
			names = append(names, res.Unit.Name())
		}
	}
	return names
}

// InspectRequest asks for load diagnostics of one or more sources
type InspectRequest struct {
	Paths        []string       `json:"paths"`
	Settings     SourceSettings `json:"settings"`
	OutputFormat OutputFormat   `json:"output_format"`
	OutputWriter io.Writer      `json:"-"`
	OutputPath   string         `json:"output_path"`
}

// Validate validates an inspect request
func (r *InspectRequest) Validate() error {
	if len(r.Paths) == 0 {
		return NewValidationError("at least one source path is required")
	}
	return r.Settings.Validate()
}

// SourceReport is the load diagnostics of one source
type SourceReport struct {
	Path                 string             `json:"path" yaml:"path"`
	Format               SourceFormat       `json:"format" yaml:"format"`
	Records              int                `json:"records" yaml:"records"`
	Accepted             int                `json:"accepted" yaml:"accepted"`
	Skipped              int                `json:"skipped" yaml:"skipped"`
	Filtered             int                `json:"filtered" yaml:"filtered"`
	Keys                 int                `json:"keys" yaml:"keys"`
	Pairs                int                `json:"pairs" yaml:"pairs"`
	UniqueFragments      int                `json:"unique_fragments" yaml:"unique_fragments"`
	MultiUniqueFragments int                `json:"multi_unique_fragments" yaml:"multi_unique_fragments"`
	MultiEntries         int                `json:"multi_entries" yaml:"multi_entries"`
	Diagnostics          []RecordDiagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	DurationMs           int64              `json:"duration_ms" yaml:"duration_ms"`
}

// InspectResponse holds one report per loaded source
type InspectResponse struct {
	Sources     []SourceReport `json:"sources" yaml:"sources"`
	GeneratedAt string         `json:"generated_at" yaml:"generated_at"`
	Version     string         `json:"version" yaml:"version"`
}

// CategoryFromPath derives a clone category from a ground-truth file name
func CategoryFromPath(path string) CloneCategory {
	base := filepath.Base(path)
	return CloneCategory(strings.TrimSuffix(base, filepath.Ext(base)))
}

// EvaluationService runs batch evaluations
type EvaluationService interface {
	Evaluate(ctx context.Context, req *EvaluationRequest) (*EvaluationResponse, error)
}

// InspectService loads sources and reports diagnostics
type InspectService interface {
	Inspect(ctx context.Context, req *InspectRequest) (*InspectResponse, error)
}

// EvaluationFormatter formats evaluation and inspect responses
type EvaluationFormatter interface {
	Write(response *EvaluationResponse, format OutputFormat, writer io.Writer) error
	WriteInspect(response *InspectResponse, format OutputFormat, writer io.Writer) error
}

// ResultSink receives each completed unit's result. Implementations must be
// safe for concurrent use.
type ResultSink interface {
	Append(ctx context.Context, result *EvaluationResult) error
	Close() error
}

// ReportArchiver stores a finished report somewhere durable and returns its location
type ReportArchiver interface {
	Archive(ctx context.Context, runID, name string, content []byte) (string, error)
}
