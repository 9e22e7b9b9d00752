package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ludo-technologies/cloneval/domain"
)

// EvaluateUseCase orchestrates a batch evaluation: run, report, archive
type EvaluateUseCase struct {
	service   domain.EvaluationService
	formatter domain.EvaluationFormatter
	output    domain.ReportWriter
	sink      domain.ResultSink
	archiver  domain.ReportArchiver
	status    io.Writer
}

// EvaluateOutcome is what a finished run produced
type EvaluateOutcome struct {
	Response   *domain.EvaluationResponse
	ArchivedTo string
}

// Execute performs the complete evaluation workflow. The report is written
// even when some units failed; the returned error then names them.
func (uc *EvaluateUseCase) Execute(ctx context.Context, req domain.EvaluationRequest) (*EvaluateOutcome, error) {
	if uc.sink != nil {
		defer uc.sink.Close()
	}

	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	response, err := uc.service.Evaluate(ctx, &req)
	if err != nil {
		var domainErr domain.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, domain.NewEvaluationError("evaluation failed", err)
	}

	var report bytes.Buffer
	err = uc.output.Write(req.OutputWriter, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		if uc.archiver != nil {
			w = io.MultiWriter(w, &report)
		}
		return uc.formatter.Write(response, req.OutputFormat, w)
	})
	if err != nil {
		return nil, domain.NewOutputError("failed to write output", err)
	}

	outcome := &EvaluateOutcome{Response: response}

	if uc.archiver != nil {
		location, err := uc.archiver.Archive(ctx, response.RunID, reportName(req), report.Bytes())
		if err != nil {
			return outcome, err
		}
		outcome.ArchivedTo = location
		fmt.Fprintf(uc.status, "Report archived to %s\n", location)
	}

	if failed := response.FailedUnits(); len(failed) > 0 {
		return outcome, domain.NewEvaluationError(
			fmt.Sprintf("%d of %d units failed: %s", len(failed), response.Total, strings.Join(failed, ", ")), nil)
	}

	return outcome, nil
}

func (uc *EvaluateUseCase) validateRequest(req domain.EvaluationRequest) error {
	if req.DatasetRoot == "" {
		return fmt.Errorf("dataset root is required")
	}
	if req.OutputWriter == nil && req.OutputPath == "" {
		return fmt.Errorf("output writer or output path is required")
	}
	return nil
}

// reportName names the archived object after the report file
func reportName(req domain.EvaluationRequest) string {
	if req.OutputPath != "" {
		return filepath.Base(req.OutputPath)
	}
	ext := string(req.OutputFormat)
	if ext == "" || req.OutputFormat == domain.OutputFormatText {
		ext = "txt"
	}
	return "report." + ext
}

// EvaluateUseCaseBuilder helps build EvaluateUseCase with dependencies
type EvaluateUseCaseBuilder struct {
	service   domain.EvaluationService
	formatter domain.EvaluationFormatter
	output    domain.ReportWriter
	sink      domain.ResultSink
	archiver  domain.ReportArchiver
	status    io.Writer
}

// NewEvaluateUseCaseBuilder creates a new builder for EvaluateUseCase
func NewEvaluateUseCaseBuilder() *EvaluateUseCaseBuilder {
	return &EvaluateUseCaseBuilder{}
}

// WithService sets the evaluation service
func (b *EvaluateUseCaseBuilder) WithService(service domain.EvaluationService) *EvaluateUseCaseBuilder {
	b.service = service
	return b
}

// WithFormatter sets the report formatter
func (b *EvaluateUseCaseBuilder) WithFormatter(formatter domain.EvaluationFormatter) *EvaluateUseCaseBuilder {
	b.formatter = formatter
	return b
}

// WithOutputWriter sets the report writer
func (b *EvaluateUseCaseBuilder) WithOutputWriter(output domain.ReportWriter) *EvaluateUseCaseBuilder {
	b.output = output
	return b
}

// WithSink sets the result sink the use case closes when done
func (b *EvaluateUseCaseBuilder) WithSink(sink domain.ResultSink) *EvaluateUseCaseBuilder {
	b.sink = sink
	return b
}

// WithArchiver sets the report archiver
func (b *EvaluateUseCaseBuilder) WithArchiver(archiver domain.ReportArchiver) *EvaluateUseCaseBuilder {
	b.archiver = archiver
	return b
}

// WithStatusWriter sets where status lines go (stderr by default)
func (b *EvaluateUseCaseBuilder) WithStatusWriter(status io.Writer) *EvaluateUseCaseBuilder {
	b.status = status
	return b
}

// Build creates the EvaluateUseCase
func (b *EvaluateUseCaseBuilder) Build() (*EvaluateUseCase, error) {
	if b.service == nil {
		return nil, fmt.Errorf("evaluation service is required")
	}
	if b.formatter == nil {
		return nil, fmt.Errorf("formatter is required")
	}
	if b.output == nil {
		return nil, fmt.Errorf("output writer is required")
	}
	status := b.status
	if status == nil {
		status = os.Stderr
	}

	return &EvaluateUseCase{
		service:   b.service,
		formatter: b.formatter,
		output:    b.output,
		sink:      b.sink,
		archiver:  b.archiver,
		status:    status,
	}, nil
}
