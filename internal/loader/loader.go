package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/internal/analyzer"
)

// MaxDiagnostics caps the number of skipped-record diagnostics kept per load
const MaxDiagnostics = 100

// Options configures how a clone-pair source is read
type Options struct {
	// Format forces a decoder; auto picks XML for .xml files and delimited otherwise
	Format domain.SourceFormat

	// Normalizer builds fragment identifiers. When nil, XML reports use the
	// last-dot variant and delimited sources the first-dot variant.
	Normalizer analyzer.FragmentNormalizer

	// ExistenceFilter drops pairs whose files are not present under SourceRoot
	ExistenceFilter bool
	SourceRoot      string

	HeaderMode   domain.HeaderMode
	HeaderMarker string

	// KeepDuplicates also builds the list-valued map
	KeepDuplicates bool

	Delimiter rune

	// Exists overrides the file check used by the existence filter
	Exists func(path string) bool
}

// OptionsFromSettings converts serializable settings into loader options
func OptionsFromSettings(s domain.SourceSettings) (Options, error) {
	if err := s.Validate(); err != nil {
		return Options{}, err
	}

	opts := Options{
		Format:          s.Format,
		ExistenceFilter: s.ExistenceFilter,
		SourceRoot:      s.SourceRoot,
		HeaderMode:      s.HeaderMode,
		HeaderMarker:    s.HeaderMarker,
	}
	if s.Normalizer != "" {
		n, err := analyzer.NormalizerByName(s.Normalizer)
		if err != nil {
			return Options{}, err
		}
		opts.Normalizer = n
	}
	if s.Delimiter != "" {
		opts.Delimiter = []rune(s.Delimiter)[0]
	}
	return opts, nil
}

// Result is the outcome of loading one source
type Result struct {
	Source string
	Format domain.SourceFormat

	Map   *domain.AdjacencyMap
	Multi *domain.MultiAdjacency

	Records         int
	Accepted        int
	Skipped         int
	Filtered        int
	UniqueFragments int

	Diagnostics []domain.RecordDiagnostic
	Duration    time.Duration
}

// Stats summarizes the result for reports
func (r *Result) Stats() *domain.SourceStats {
	return &domain.SourceStats{
		Path:            r.Source,
		Records:         r.Records,
		Accepted:        r.Accepted,
		Skipped:         r.Skipped,
		Filtered:        r.Filtered,
		Keys:            r.Map.Len(),
		UniqueFragments: r.UniqueFragments,
	}
}

// Loader reads a clone-pair source into an adjacency map
type Loader interface {
	Load(ctx context.Context, path string) (*Result, error)
}

// SourceLoader implements Loader for delimited files and XML clone reports
type SourceLoader struct {
	opts Options
}

// New creates a loader with defaults applied to opts
func New(opts Options) *SourceLoader {
	if opts.Format == "" {
		opts.Format = domain.SourceFormatAuto
	}
	if opts.HeaderMode == "" {
		opts.HeaderMode = domain.HeaderModeAuto
	}
	if opts.HeaderMarker == "" {
		opts.HeaderMarker = domain.DefaultHeaderMarker
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Exists == nil {
		opts.Exists = fileExists
	}
	return &SourceLoader{opts: opts}
}

// DetectFormat resolves the decoder for path
func DetectFormat(path string, forced domain.SourceFormat) domain.SourceFormat {
	switch forced {
	case domain.SourceFormatDelimited, domain.SourceFormatXML:
		return forced
	}
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return domain.SourceFormatXML
	}
	return domain.SourceFormatDelimited
}

// Load reads path and returns the frozen adjacency map with load counters.
// Malformed records are skipped; a missing or unreadable source is an error.
func (l *SourceLoader) Load(ctx context.Context, path string) (*Result, error) {
	if path == "" {
		return nil, domain.NewInvalidInputError("source path is empty", nil)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewFileNotFoundError(path, err)
		}
		return nil, domain.NewConfigError(fmt.Sprintf("cannot read clone-pair source %s", path), err)
	}
	defer f.Close()

	return l.LoadReader(ctx, path, f)
}

// LoadReader reads an already-open source. name is used for format detection,
// header detection and diagnostics.
func (l *SourceLoader) LoadReader(ctx context.Context, name string, r io.Reader) (*Result, error) {
	start := time.Now()
	format := DetectFormat(name, l.opts.Format)

	c := l.newCollector(name, format)
	var err error
	switch format {
	case domain.SourceFormatXML:
		err = l.readXML(ctx, name, r, c)
	default:
		err = l.readDelimited(ctx, name, r, c)
	}
	if err != nil {
		return nil, err
	}

	result := c.finish()
	result.Duration = time.Since(start)
	return result, nil
}

func (l *SourceLoader) newCollector(source string, format domain.SourceFormat) *collector {
	normalizer := l.opts.Normalizer
	if normalizer == nil {
		if format == domain.SourceFormatXML {
			normalizer = analyzer.LastDotNormalizer{}
		} else {
			normalizer = analyzer.FirstDotNormalizer{}
		}
	}

	c := &collector{
		source:     source,
		format:     format,
		opts:       l.opts,
		normalizer: normalizer,
		builder:    domain.NewAdjacencyBuilder(),
	}
	if l.opts.KeepDuplicates {
		c.multi = domain.NewMultiAdjacency()
	}
	return c
}

// skipsHeader reports whether the first record of source is a header
func (l *SourceLoader) skipsHeader(source string) bool {
	switch l.opts.HeaderMode {
	case domain.HeaderModeAlways:
		return true
	case domain.HeaderModeNever:
		return false
	default:
		base := strings.ToLower(filepath.Base(source))
		return strings.Contains(base, strings.ToLower(l.opts.HeaderMarker))
	}
}

// collector accumulates decoded records into maps and counters
type collector struct {
	source     string
	format     domain.SourceFormat
	opts       Options
	normalizer analyzer.FragmentNormalizer

	builder *domain.AdjacencyBuilder
	multi   *domain.MultiAdjacency

	records     int
	accepted    int
	skipped     int
	filtered    int
	diagnostics []domain.RecordDiagnostic
}

func (c *collector) add(rec ClonePairRecord) {
	c.records++

	if c.opts.ExistenceFilter {
		if !c.opts.Exists(c.sourcePath(rec.First)) || !c.opts.Exists(c.sourcePath(rec.Second)) {
			c.filtered++
			return
		}
	}

	a := c.normalizer.Normalize(rec.First.File, rec.First.StartLine, rec.First.EndLine)
	b := c.normalizer.Normalize(rec.Second.File, rec.Second.StartLine, rec.Second.EndLine)

	c.builder.AddPair(a, b)
	if c.multi != nil {
		c.multi.AddPair(a, b)
	}
	c.accepted++
}

func (c *collector) skip(err error) {
	c.records++
	c.skipped++

	var mre *domain.MalformedRecordError
	if !errors.As(err, &mre) {
		mre = &domain.MalformedRecordError{Source: c.source, Reason: err.Error()}
	}
	if len(c.diagnostics) < MaxDiagnostics {
		c.diagnostics = append(c.diagnostics, mre.Diagnostic())
	}
}

// sourcePath builds SourceRoot/dir/file for the existence filter
func (c *collector) sourcePath(ref FragmentRef) string {
	p := ref.Path()
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.opts.SourceRoot, p)
}

func (c *collector) finish() *Result {
	m := c.builder.Build()
	r := &Result{
		Source:          c.source,
		Format:          c.format,
		Map:             m,
		Multi:           c.multi,
		Records:         c.records,
		Accepted:        c.accepted,
		Skipped:         c.skipped,
		Filtered:        c.filtered,
		UniqueFragments: m.UniqueFragments(),
		Diagnostics:     c.diagnostics,
	}
	return r
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
