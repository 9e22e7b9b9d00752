package mcp

import (
	"errors"
	"testing"

	"github.com/ludo-technologies/cloneval/app"
	"github.com/ludo-technologies/cloneval/domain"
	"github.com/stretchr/testify/assert"
)

func TestRunWarning(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"no error", nil, ""},
		{"failed units", domain.NewEvaluationError("1 of 2 units failed: T1/seed=3", nil), ""},
		{
			"archive upload",
			domain.NewStorageError("failed to upload report", errors.New("connection refused")),
			"[STORAGE_ERROR] failed to upload report: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runWarning(tt.err))
		})
	}
}

func TestNewEvaluationSummary_ReportsArchiveFailure(t *testing.T) {
	response := &domain.EvaluationResponse{
		RunID:    "run-1",
		Total:    2,
		Failed:   1,
		Warnings: []string{"results.csv: disk full"},
		Results: []*domain.EvaluationResult{
			{Unit: domain.EvaluationUnit{Category: "T1", Seed: 0}},
			{Unit: domain.EvaluationUnit{Category: "T1", Seed: 3}, Error: "sample missing"},
		},
	}
	outcome := &app.EvaluateOutcome{Response: response}

	err := domain.NewStorageError("failed to upload report", errors.New("connection refused"))
	summary := newEvaluationSummary(outcome, runWarning(err))

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, []string{"T1/seed=3"}, summary.FailedUnits)
	assert.Equal(t, []string{
		"results.csv: disk full",
		"[STORAGE_ERROR] failed to upload report: connection refused",
	}, summary.Warnings)
	// the response itself is left untouched
	assert.Len(t, response.Warnings, 1)
}

func TestNewEvaluationSummary_NoWarning(t *testing.T) {
	outcome := &app.EvaluateOutcome{
		Response:   &domain.EvaluationResponse{RunID: "run-2", Total: 1},
		ArchivedTo: "s3://reports/run-2/report.json",
	}

	summary := newEvaluationSummary(outcome, "")
	assert.Empty(t, summary.Warnings)
	assert.Empty(t, summary.FailedUnits)
	assert.Equal(t, "s3://reports/run-2/report.json", summary.ArchivedTo)
}
