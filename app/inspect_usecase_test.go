package app

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/ludo-technologies/cloneval/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockInspectService struct {
	mock.Mock
}

func (m *mockInspectService) Inspect(ctx context.Context, req *domain.InspectRequest) (*domain.InspectResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InspectResponse), args.Error(1)
}

func TestInspectUseCase_Execute(t *testing.T) {
	svc := &mockInspectService{}
	formatter := &mockFormatter{}
	resp := &domain.InspectResponse{Sources: []domain.SourceReport{{Path: "a.csv", Pairs: 3}}}

	svc.On("Inspect", mock.Anything, mock.Anything).Return(resp, nil)
	formatter.On("WriteInspect", resp, domain.OutputFormatText, mock.Anything).Return(nil)

	var out bytes.Buffer
	uc := NewInspectUseCase(svc, formatter, service.NewFileOutputWriter(io.Discard))
	got, err := uc.Execute(context.Background(), domain.InspectRequest{
		Paths:        []string{"a.csv"},
		OutputFormat: domain.OutputFormatText,
		OutputWriter: &out,
	})
	require.NoError(t, err)

	assert.Same(t, resp, got)
	assert.Equal(t, "inspect", out.String())
	svc.AssertExpectations(t)
}

func TestInspectUseCase_Errors(t *testing.T) {
	uc := NewInspectUseCase(&mockInspectService{}, &mockFormatter{}, service.NewFileOutputWriter(io.Discard))
	_, err := uc.Execute(context.Background(), domain.InspectRequest{Paths: []string{"a.csv"}})
	require.Error(t, err)
	assert.True(t, domain.HasErrorCode(err, domain.ErrCodeInvalidInput))

	svc := &mockInspectService{}
	svc.On("Inspect", mock.Anything, mock.Anything).Return(nil, domain.NewFileNotFoundError("a.csv", nil))
	uc = NewInspectUseCase(svc, &mockFormatter{}, service.NewFileOutputWriter(io.Discard))
	_, err = uc.Execute(context.Background(), domain.InspectRequest{Paths: []string{"a.csv"}, OutputWriter: io.Discard})
	require.Error(t, err)
	assert.True(t, domain.HasErrorCode(err, domain.ErrCodeFileNotFound))
}
