package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/ludo-technologies/cloneval/domain"
)

func validRequest() *domain.EvaluationRequest {
	return &domain.EvaluationRequest{
		DatasetRoot:         "/data",
		Categories:          []domain.CloneCategory{"T1"},
		Seeds:               []int{0, 1},
		KValues:             []int{5, 10},
		GroundTruthTemplate: "groundtruth/{type}.csv",
		DetectorTemplate:    "nicad/clones.xml",
		SampleTemplate:      "samples/sample_{seed}.txt",
		GroundTruth:         domain.SourceSettings{Normalizer: domain.NormalizerFirstDot},
		Detector:            domain.SourceSettings{Normalizer: domain.NormalizerLastDot},
	}
}

func TestEvaluationRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *domain.EvaluationRequest)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid request",
			mutate: func(r *domain.EvaluationRequest) {},
		},
		{
			name:    "missing dataset root",
			mutate:  func(r *domain.EvaluationRequest) { r.DatasetRoot = "" },
			wantErr: true,
			errMsg:  "dataset root is required",
		},
		{
			name: "no categories and no glob",
			mutate: func(r *domain.EvaluationRequest) {
				r.Categories = nil
				r.GroundTruthGlob = ""
			},
			wantErr: true,
			errMsg:  "ground truth glob",
		},
		{
			name: "glob instead of categories",
			mutate: func(r *domain.EvaluationRequest) {
				r.Categories = nil
				r.GroundTruthGlob = "groundtruth/*.csv"
			},
		},
		{
			name:    "negative seed",
			mutate:  func(r *domain.EvaluationRequest) { r.Seeds = []int{-1} },
			wantErr: true,
			errMsg:  "seed must be non-negative",
		},
		{
			name:    "zero k",
			mutate:  func(r *domain.EvaluationRequest) { r.KValues = []int{0} },
			wantErr: true,
			errMsg:  "k must be positive",
		},
		{
			name:    "negative timeout",
			mutate:  func(r *domain.EvaluationRequest) { r.Timeout = -time.Second },
			wantErr: true,
			errMsg:  "timeout",
		},
		{
			name:    "unknown normalizer",
			mutate:  func(r *domain.EvaluationRequest) { r.Detector.Normalizer = "middle" },
			wantErr: true,
			errMsg:  "detector: ",
		},
		{
			name: "existence filter without source root",
			mutate: func(r *domain.EvaluationRequest) {
				r.GroundTruth.ExistenceFilter = true
			},
			wantErr: true,
			errMsg:  "requires a source root",
		},
		{
			name:    "multi-character delimiter",
			mutate:  func(r *domain.EvaluationRequest) { r.GroundTruth.Delimiter = ";;" },
			wantErr: true,
			errMsg:  "single character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := req.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEvaluationResult_Row(t *testing.T) {
	res := &domain.EvaluationResult{
		Unit: domain.EvaluationUnit{Category: "T2", Seed: 3},
		Metrics: domain.MetricSet{
			Recall:       2.0 / 3.0,
			PrecisionAtK: map[int]float64{5: 0.4, 10: 0.25},
			MRR:          1,
			MAP:          0.12345,
		},
	}

	header := domain.ResultHeader([]int{5, 10})
	row := res.Row([]int{5, 10})

	want := []string{"cloneType", "precision@5", "precision@10", "MRR", "MAP", "recall", "seed"}
	if strings.Join(header, ",") != strings.Join(want, ",") {
		t.Errorf("header = %v, want %v", header, want)
	}
	if got := strings.Join(row, ","); got != "T2,0.4,0.25,1,0.123,0.667,3" {
		t.Errorf("row = %s", got)
	}
}

func TestEvaluationResponse_FailedUnits(t *testing.T) {
	resp := &domain.EvaluationResponse{
		Results: []*domain.EvaluationResult{
			{Unit: domain.EvaluationUnit{Category: "T1", Seed: 0}},
			{Unit: domain.EvaluationUnit{Category: "T1", Seed: 1}, Error: "boom"},
		},
	}

	failed := resp.FailedUnits()
	if len(failed) != 1 || failed[0] != "T1/seed=1" {
		t.Errorf("unexpected failed units: %v", failed)
	}
}

func TestCategoryFromPath(t *testing.T) {
	if got := domain.CategoryFromPath("groundtruth/WT3_T4.csv"); got != "WT3_T4" {
		t.Errorf("got %s", got)
	}
	if got := domain.CategoryFromPath("/abs/T1"); got != "T1" {
		t.Errorf("got %s", got)
	}
}

func TestHasErrorCode(t *testing.T) {
	err := domain.NewConfigError("bad", domain.NewFileNotFoundError("x.csv", nil))
	if !domain.HasErrorCode(err, domain.ErrCodeConfigError) {
		t.Error("expected CONFIG_ERROR")
	}
	if !domain.HasErrorCode(err, domain.ErrCodeFileNotFound) {
		t.Error("expected wrapped FILE_NOT_FOUND")
	}
	if domain.HasErrorCode(err, domain.ErrCodeOutputError) {
		t.Error("did not expect OUTPUT_ERROR")
	}
}

func TestMalformedRecordError(t *testing.T) {
	err := &domain.MalformedRecordError{Source: "gt.csv", Line: 4, Fields: 3, Reason: "expected at least 8 fields"}
	if err.Error() != "[MALFORMED_RECORD] gt.csv:4: expected at least 8 fields" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	d := err.Diagnostic()
	if d.Line != 4 || d.Fields != 3 {
		t.Errorf("unexpected diagnostic: %+v", d)
	}
}
