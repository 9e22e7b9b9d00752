package app

import (
	"context"
	"io"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/internal/archive"
	"github.com/ludo-technologies/cloneval/internal/config"
	"github.com/ludo-technologies/cloneval/internal/resultdb"
	"github.com/ludo-technologies/cloneval/service"
)

// EvaluateDependencies are the optional collaborators of a configured run
type EvaluateDependencies struct {
	// Status receives warnings, verbose lines and report locations
	Status io.Writer

	// Progress is used when the request asks for progress, may be nil
	Progress domain.ProgressManager
}

// NewEvaluateUseCaseFromConfig wires the evaluation use case from
// configuration: source cache, results file, results database and archive.
func NewEvaluateUseCaseFromConfig(ctx context.Context, cfg *config.Config, req *domain.EvaluationRequest, deps EvaluateDependencies) (*EvaluateUseCase, error) {
	cache, err := service.NewSourceCache(cfg.Performance.CacheSize)
	if err != nil {
		return nil, domain.NewConfigError("invalid performance.cache_size", err)
	}

	sink, err := newResultSink(ctx, cfg, req)
	if err != nil {
		return nil, err
	}

	evaluation := service.NewEvaluationService(cache, sink, deps.Progress)
	if deps.Status != nil {
		evaluation.SetStatusWriter(deps.Status)
	}

	builder := NewEvaluateUseCaseBuilder().
		WithService(evaluation).
		WithFormatter(service.NewEvaluationFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(deps.Status)).
		WithStatusWriter(deps.Status)
	if sink != nil {
		builder = builder.WithSink(sink)
	}

	if cfg.Archive.Enabled {
		archiver, err := archive.NewS3Archiver(archive.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			if sink != nil {
				_ = sink.Close()
			}
			return nil, err
		}
		builder = builder.WithArchiver(archiver)
	}

	return builder.Build()
}

// newResultSink returns nil when neither a results file nor a database is configured
func newResultSink(ctx context.Context, cfg *config.Config, req *domain.EvaluationRequest) (domain.ResultSink, error) {
	var csvSink, dbSink domain.ResultSink

	if req.ResultsFile != "" {
		csvSink = service.NewCSVResultSink(req.ResultsFile, req.KValues)
	}
	if cfg.Results.PostgresDSN != "" {
		store, err := resultdb.Connect(ctx, cfg.Results.PostgresDSN)
		if err != nil {
			return nil, err
		}
		dbSink = store
	}

	multi := service.NewMultiSink(csvSink, dbSink)
	if multi.Len() == 0 {
		return nil, nil
	}
	return multi, nil
}
