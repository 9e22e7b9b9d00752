package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/internal/analyzer"
	"github.com/ludo-technologies/cloneval/internal/version"
)

// EvaluationServiceImpl implements domain.EvaluationService. Units run on the
// parallel executor and share the source cache.
type EvaluationServiceImpl struct {
	fileReader *FileReaderImpl
	cache      *SourceCache
	sink       domain.ResultSink
	progress   domain.ProgressManager

	statusMu sync.Mutex
	status   io.Writer

	newRunID func() string
	now      func() time.Time
}

// NewEvaluationService creates an evaluation service.
// sink and progress can be nil.
func NewEvaluationService(cache *SourceCache, sink domain.ResultSink, progress domain.ProgressManager) *EvaluationServiceImpl {
	return &EvaluationServiceImpl{
		fileReader: NewFileReader(),
		cache:      cache,
		sink:       sink,
		progress:   progress,
		status:     os.Stderr,
		newRunID:   uuid.NewString,
		now:        time.Now,
	}
}

// SetStatusWriter redirects warnings and verbose lines (stderr by default)
func (s *EvaluationServiceImpl) SetStatusWriter(w io.Writer) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if w == nil {
		w = io.Discard
	}
	s.status = w
}

// Evaluate runs every (clone type, seed) unit of the request. A unit that
// fails is recorded in its result; the others still run. Results are ordered
// by category, then seed.
func (s *EvaluationServiceImpl) Evaluate(ctx context.Context, req *domain.EvaluationRequest) (*domain.EvaluationResponse, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if req == nil {
		return nil, fmt.Errorf("evaluation request cannot be nil")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid evaluation request: %w", err)
	}

	start := s.now()

	categories := req.Categories
	if len(categories) == 0 {
		discovered, err := s.fileReader.DiscoverCategories(req.DatasetRoot, req.GroundTruthGlob)
		if err != nil {
			return nil, err
		}
		categories = discovered
	}

	ks := req.KValues
	if len(ks) == 0 {
		ks = domain.DefaultKValues
	}

	cache := s.cache
	if cache == nil {
		c, err := NewSourceCache(domain.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		cache = c
	}

	runID := s.newRunID()
	units := s.fileReader.BuildUnits(req, categories)
	results := make([]*domain.EvaluationResult, len(units))

	var warnMu sync.Mutex
	var warnings []string
	warn := func(msg string) {
		warnMu.Lock()
		warnings = append(warnings, msg)
		warnMu.Unlock()
		s.printf("Warning: %s\n", msg)
	}

	if s.progress != nil && req.ShowProgress {
		s.progress.Initialize(len(units))
		s.progress.Start()
	}

	tasks := make([]domain.ExecutableTask, len(units))
	for i, unit := range units {
		tasks[i] = NewSimpleTask(unit.Name(), func(ctx context.Context) error {
			res := s.evaluateUnit(ctx, cache, runID, unit, req, ks, warn)
			results[i] = res

			if s.sink != nil {
				if err := s.sink.Append(ctx, res); err != nil {
					warn(fmt.Sprintf("%s: storing result failed: %v", unit.Name(), err))
				}
			}
			if s.progress != nil && req.ShowProgress {
				s.progress.Increment()
			}
			if req.Verbose {
				s.printUnit(res, ks)
			}
			if res.Failed() {
				return errors.New(res.Error)
			}
			return nil
		})
	}

	executor := NewParallelExecutor()
	workers := req.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	executor.SetMaxConcurrency(workers)
	executor.SetTimeout(req.Timeout)

	execErr := executor.Execute(ctx, tasks)

	// units that never started (cancelled or timed out) are failures too
	for i, res := range results {
		if res != nil {
			continue
		}
		reason := "not evaluated"
		if execErr != nil {
			reason = fmt.Sprintf("not evaluated: %v", contextCause(ctx, execErr))
		}
		results[i] = &domain.EvaluationResult{RunID: runID, Unit: units[i], Error: reason}
	}

	failed := 0
	for _, res := range results {
		if res.Failed() {
			failed++
		}
	}

	if s.progress != nil && req.ShowProgress {
		s.progress.Complete(failed == 0)
	}

	end := s.now()
	return &domain.EvaluationResponse{
		RunID:       runID,
		DatasetRoot: req.DatasetRoot,
		KValues:     append([]int(nil), ks...),
		Results:     results,
		Summary:     summarize(results, categories, ks),
		Total:       len(results),
		Failed:      failed,
		Warnings:    warnings,
		GeneratedAt: end.Format(time.RFC3339),
		DurationMs:  end.Sub(start).Milliseconds(),
		Version:     version.Version,
	}, nil
}

// evaluateUnit loads the unit's sources and computes its metrics
func (s *EvaluationServiceImpl) evaluateUnit(
	ctx context.Context,
	cache *SourceCache,
	runID string,
	unit domain.EvaluationUnit,
	req *domain.EvaluationRequest,
	ks []int,
	warn func(string),
) *domain.EvaluationResult {
	start := time.Now()
	res := &domain.EvaluationResult{RunID: runID, Unit: unit}
	fail := func(err error) *domain.EvaluationResult {
		res.Error = err.Error()
		res.DurationMs = time.Since(start).Milliseconds()
		return res
	}

	gt, gtCached, err := cache.Load(ctx, unit.GroundTruthPath, req.GroundTruth)
	if err != nil {
		return fail(fmt.Errorf("ground truth: %w", err))
	}
	res.GroundTruth = gt.Stats()
	res.GroundTruth.Cached = gtCached
	if !gtCached && gt.Skipped > 0 {
		warn(fmt.Sprintf("%s: skipped %d malformed records", gt.Source, gt.Skipped))
	}

	det, detCached, err := cache.Load(ctx, unit.DetectorPath, req.Detector)
	if err != nil {
		return fail(fmt.Errorf("detector: %w", err))
	}
	res.Detector = det.Stats()
	res.Detector.Cached = detCached
	if !detCached && det.Skipped > 0 {
		warn(fmt.Sprintf("%s: skipped %d malformed records", det.Source, det.Skipped))
	}

	sample, _, err := cache.LoadSample(ctx, unit.SamplePath)
	if err != nil {
		return fail(fmt.Errorf("sample: %w", err))
	}

	res.Metrics = analyzer.Evaluate(gt.Map, det.Map, sample, ks)
	res.Queries = sample.Len()
	res.DurationMs = time.Since(start).Milliseconds()
	return res
}

// summarize averages the successful units of each category
func summarize(results []*domain.EvaluationResult, categories []domain.CloneCategory, ks []int) []domain.CategorySummary {
	summaries := make([]domain.CategorySummary, 0, len(categories))
	index := make(map[domain.CloneCategory]int, len(categories))
	for _, c := range categories {
		index[c] = len(summaries)
		summaries = append(summaries, domain.CategorySummary{
			Category: c,
			Mean:     domain.MetricSet{PrecisionAtK: make(map[int]float64, len(ks))},
		})
	}

	for _, res := range results {
		i, ok := index[res.Unit.Category]
		if !ok {
			continue
		}
		sum := &summaries[i]
		if res.Failed() {
			sum.Failed++
			continue
		}
		sum.Units++
		sum.Mean.Recall += res.Metrics.Recall
		sum.Mean.MRR += res.Metrics.MRR
		sum.Mean.MAP += res.Metrics.MAP
		for _, k := range ks {
			sum.Mean.PrecisionAtK[k] += res.Metrics.Precision(k)
		}
	}

	for i := range summaries {
		sum := &summaries[i]
		if sum.Units == 0 {
			continue
		}
		n := float64(sum.Units)
		sum.Mean.Recall /= n
		sum.Mean.MRR /= n
		sum.Mean.MAP /= n
		for _, k := range ks {
			sum.Mean.PrecisionAtK[k] /= n
		}
	}
	return summaries
}

func (s *EvaluationServiceImpl) printUnit(res *domain.EvaluationResult, ks []int) {
	if res.Failed() {
		s.printf("  %s: FAILED: %s\n", res.Unit.Name(), res.Error)
		return
	}
	m := res.Metrics.Rounded()
	line := fmt.Sprintf("  %s: recall=%.3f", res.Unit.Name(), m.Recall)
	for _, k := range ks {
		line += fmt.Sprintf(" p@%d=%.3f", k, m.Precision(k))
	}
	s.printf("%s mrr=%.3f map=%.3f (%dms)\n", line, m.MRR, m.MAP, res.DurationMs)
}

func (s *EvaluationServiceImpl) printf(format string, args ...interface{}) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	fmt.Fprintf(s.status, format, args...)
}

// contextCause prefers the context error over the joined task errors
func contextCause(ctx context.Context, execErr error) error {
	if errors.Is(execErr, context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return execErr
}
