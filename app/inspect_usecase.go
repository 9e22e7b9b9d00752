package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ludo-technologies/cloneval/domain"
)

// InspectUseCase loads clone-pair sources and reports their diagnostics
type InspectUseCase struct {
	service   domain.InspectService
	formatter domain.EvaluationFormatter
	output    domain.ReportWriter
}

// NewInspectUseCase creates a new inspect use case
func NewInspectUseCase(
	service domain.InspectService,
	formatter domain.EvaluationFormatter,
	output domain.ReportWriter,
) *InspectUseCase {
	return &InspectUseCase{
		service:   service,
		formatter: formatter,
		output:    output,
	}
}

// Execute inspects the requested sources and writes the report
func (uc *InspectUseCase) Execute(ctx context.Context, req domain.InspectRequest) (*domain.InspectResponse, error) {
	if req.OutputWriter == nil && req.OutputPath == "" {
		return nil, domain.NewInvalidInputError("invalid request", fmt.Errorf("output writer or output path is required"))
	}

	response, err := uc.service.Inspect(ctx, &req)
	if err != nil {
		var domainErr domain.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, domain.NewInvalidInputError("inspect failed", err)
	}

	err = uc.output.Write(req.OutputWriter, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return uc.formatter.WriteInspect(response, req.OutputFormat, w)
	})
	if err != nil {
		return nil, domain.NewOutputError("failed to write output", err)
	}
	return response, nil
}
