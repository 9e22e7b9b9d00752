package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/internal/loader"
	"github.com/ludo-technologies/cloneval/internal/version"
)

// InspectServiceImpl loads sources with duplicate tracking and reports their
// load counters
type InspectServiceImpl struct {
	fileReader *FileReaderImpl
}

// NewInspectService creates a new inspect service
func NewInspectService() *InspectServiceImpl {
	return &InspectServiceImpl{fileReader: NewFileReader()}
}

// Inspect loads every source named by req.Paths (files, directories or
// doublestar globs). Any source that cannot be loaded fails the request.
func (s *InspectServiceImpl) Inspect(ctx context.Context, req *domain.InspectRequest) (*domain.InspectResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("inspect request cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inspect request: %w", err)
	}

	paths, err := s.fileReader.CollectSources(req.Paths)
	if err != nil {
		return nil, err
	}

	opts, err := loader.OptionsFromSettings(req.Settings)
	if err != nil {
		return nil, err
	}
	opts.KeepDuplicates = true
	l := loader.New(opts)

	reports := make([]domain.SourceReport, 0, len(paths))
	for _, path := range paths {
		res, err := l.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		reports = append(reports, sourceReport(res))
	}

	return &domain.InspectResponse{
		Sources:     reports,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
	}, nil
}

func sourceReport(res *loader.Result) domain.SourceReport {
	report := domain.SourceReport{
		Path:            res.Source,
		Format:          res.Format,
		Records:         res.Records,
		Accepted:        res.Accepted,
		Skipped:         res.Skipped,
		Filtered:        res.Filtered,
		Keys:            res.Map.Len(),
		Pairs:           res.Map.PairCount(),
		UniqueFragments: res.UniqueFragments,
		Diagnostics:     res.Diagnostics,
		DurationMs:      res.Duration.Milliseconds(),
	}
	if res.Multi != nil {
		report.MultiUniqueFragments = res.Multi.UniqueFragments()
		report.MultiEntries = res.Multi.EntryCount()
	}
	return report
}
