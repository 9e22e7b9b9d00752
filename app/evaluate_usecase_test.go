package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEvaluationService struct {
	mock.Mock
}

func (m *mockEvaluationService) Evaluate(ctx context.Context, req *domain.EvaluationRequest) (*domain.EvaluationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EvaluationResponse), args.Error(1)
}

type mockFormatter struct {
	mock.Mock
}

func (m *mockFormatter) Write(response *domain.EvaluationResponse, format domain.OutputFormat, writer io.Writer) error {
	args := m.Called(response, format, writer)
	if args.Error(0) == nil {
		_, _ = io.WriteString(writer, "report:"+response.RunID)
	}
	return args.Error(0)
}

func (m *mockFormatter) WriteInspect(response *domain.InspectResponse, format domain.OutputFormat, writer io.Writer) error {
	args := m.Called(response, format, writer)
	if args.Error(0) == nil {
		_, _ = io.WriteString(writer, "inspect")
	}
	return args.Error(0)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Archive(ctx context.Context, runID, name string, content []byte) (string, error) {
	args := m.Called(ctx, runID, name, string(content))
	return args.String(0), args.Error(1)
}

type closingSink struct {
	closed bool
}

func (s *closingSink) Append(ctx context.Context, result *domain.EvaluationResult) error { return nil }

func (s *closingSink) Close() error {
	s.closed = true
	return nil
}

func okResponse() *domain.EvaluationResponse {
	return &domain.EvaluationResponse{
		RunID: "run-1",
		Total: 2,
		Results: []*domain.EvaluationResult{
			{Unit: domain.EvaluationUnit{Category: "T1", Seed: 0}},
			{Unit: domain.EvaluationUnit{Category: "T1", Seed: 1}},
		},
	}
}

func TestEvaluateUseCaseBuilder_Build(t *testing.T) {
	_, err := NewEvaluateUseCaseBuilder().Build()
	assert.Error(t, err)

	_, err = NewEvaluateUseCaseBuilder().WithService(&mockEvaluationService{}).Build()
	assert.Error(t, err)

	uc, err := NewEvaluateUseCaseBuilder().
		WithService(&mockEvaluationService{}).
		WithFormatter(&mockFormatter{}).
		WithOutputWriter(service.NewFileOutputWriter(io.Discard)).
		Build()
	require.NoError(t, err)
	assert.NotNil(t, uc.status)
}

func TestEvaluateUseCase_Execute(t *testing.T) {
	svc := &mockEvaluationService{}
	formatter := &mockFormatter{}
	sink := &closingSink{}
	var out bytes.Buffer

	svc.On("Evaluate", mock.Anything, mock.AnythingOfType("*domain.EvaluationRequest")).Return(okResponse(), nil)
	formatter.On("Write", mock.Anything, domain.OutputFormatText, mock.Anything).Return(nil)

	uc, err := NewEvaluateUseCaseBuilder().
		WithService(svc).
		WithFormatter(formatter).
		WithOutputWriter(service.NewFileOutputWriter(io.Discard)).
		WithSink(sink).
		Build()
	require.NoError(t, err)

	outcome, err := uc.Execute(context.Background(), domain.EvaluationRequest{
		DatasetRoot:  "/data",
		OutputFormat: domain.OutputFormatText,
		OutputWriter: &out,
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", outcome.Response.RunID)
	assert.Empty(t, outcome.ArchivedTo)
	assert.Equal(t, "report:run-1", out.String())
	assert.True(t, sink.closed)
	svc.AssertExpectations(t)
	formatter.AssertExpectations(t)
}

func TestEvaluateUseCase_ArchivesReportFile(t *testing.T) {
	svc := &mockEvaluationService{}
	formatter := &mockFormatter{}
	archiver := &mockArchiver{}
	var status bytes.Buffer
	path := filepath.Join(t.TempDir(), "out", "cloneval_20260101_120000.json")

	svc.On("Evaluate", mock.Anything, mock.Anything).Return(okResponse(), nil)
	formatter.On("Write", mock.Anything, domain.OutputFormatJSON, mock.Anything).Return(nil)
	archiver.On("Archive", mock.Anything, "run-1", "cloneval_20260101_120000.json", "report:run-1").
		Return("s3://reports/run-1/cloneval_20260101_120000.json", nil)

	uc, err := NewEvaluateUseCaseBuilder().
		WithService(svc).
		WithFormatter(formatter).
		WithOutputWriter(service.NewFileOutputWriter(&status)).
		WithArchiver(archiver).
		WithStatusWriter(&status).
		Build()
	require.NoError(t, err)

	outcome, err := uc.Execute(context.Background(), domain.EvaluationRequest{
		DatasetRoot:  "/data",
		OutputFormat: domain.OutputFormatJSON,
		OutputPath:   path,
	})
	require.NoError(t, err)

	assert.Equal(t, "s3://reports/run-1/cloneval_20260101_120000.json", outcome.ArchivedTo)
	assert.FileExists(t, path)
	assert.Contains(t, status.String(), "JSON report generated")
	assert.Contains(t, status.String(), "Report archived to s3://reports/run-1/")
	archiver.AssertExpectations(t)
}

func TestEvaluateUseCase_FailedUnits(t *testing.T) {
	resp := okResponse()
	resp.Results[1].Error = "detector: file not found"
	resp.Failed = 1

	svc := &mockEvaluationService{}
	formatter := &mockFormatter{}
	svc.On("Evaluate", mock.Anything, mock.Anything).Return(resp, nil)
	formatter.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	uc, err := NewEvaluateUseCaseBuilder().
		WithService(svc).
		WithFormatter(formatter).
		WithOutputWriter(service.NewFileOutputWriter(io.Discard)).
		Build()
	require.NoError(t, err)

	var out bytes.Buffer
	outcome, err := uc.Execute(context.Background(), domain.EvaluationRequest{DatasetRoot: "/data", OutputWriter: &out})
	require.Error(t, err)

	// the report is still written
	require.NotNil(t, outcome)
	assert.Equal(t, "report:run-1", out.String())
	assert.True(t, domain.HasErrorCode(err, domain.ErrCodeEvaluationError))
	assert.Contains(t, err.Error(), "1 of 2 units failed: T1/seed=1")
}

func TestEvaluateUseCase_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      domain.EvaluationRequest
		svcErr   error
		fmtErr   error
		wantCode string
	}{
		{
			name:     "missing dataset root",
			req:      domain.EvaluationRequest{OutputWriter: io.Discard},
			wantCode: domain.ErrCodeInvalidInput,
		},
		{
			name:     "missing output",
			req:      domain.EvaluationRequest{DatasetRoot: "/data"},
			wantCode: domain.ErrCodeInvalidInput,
		},
		{
			name:     "service domain error passes through",
			req:      domain.EvaluationRequest{DatasetRoot: "/data", OutputWriter: io.Discard},
			svcErr:   domain.NewFileNotFoundError("/data", nil),
			wantCode: domain.ErrCodeFileNotFound,
		},
		{
			name:     "service plain error is wrapped",
			req:      domain.EvaluationRequest{DatasetRoot: "/data", OutputWriter: io.Discard},
			svcErr:   errors.New("boom"),
			wantCode: domain.ErrCodeEvaluationError,
		},
		{
			name:     "formatter error",
			req:      domain.EvaluationRequest{DatasetRoot: "/data", OutputWriter: io.Discard, OutputFormat: "html"},
			fmtErr:   domain.NewUnsupportedFormatError("html"),
			wantCode: domain.ErrCodeOutputError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockEvaluationService{}
			formatter := &mockFormatter{}
			if tt.svcErr != nil {
				svc.On("Evaluate", mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			} else {
				svc.On("Evaluate", mock.Anything, mock.Anything).Return(okResponse(), nil)
			}
			formatter.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(tt.fmtErr)

			uc, err := NewEvaluateUseCaseBuilder().
				WithService(svc).
				WithFormatter(formatter).
				WithOutputWriter(service.NewFileOutputWriter(io.Discard)).
				Build()
			require.NoError(t, err)

			_, err = uc.Execute(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, domain.HasErrorCode(err, tt.wantCode), err.Error())
		})
	}
}

func TestReportName(t *testing.T) {
	assert.Equal(t, "x.yaml", reportName(domain.EvaluationRequest{OutputPath: "/a/x.yaml"}))
	assert.Equal(t, "report.txt", reportName(domain.EvaluationRequest{}))
	assert.Equal(t, "report.csv", reportName(domain.EvaluationRequest{OutputFormat: domain.OutputFormatCSV}))
}
