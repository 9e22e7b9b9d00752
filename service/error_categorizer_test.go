package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorCategorizer(t *testing.T) {
	categorizer := NewErrorCategorizer()
	assert.IsType(t, &ErrorCategorizerImpl{}, categorizer)
	assert.Nil(t, categorizer.Categorize(nil))
}

func TestCategorize_DomainCodes(t *testing.T) {
	categorizer := NewErrorCategorizer()

	tests := []struct {
		name string
		err  error
		want domain.ErrorCategory
	}{
		{"file not found", domain.NewFileNotFoundError("gt/T1.csv", nil), domain.ErrorCategoryInput},
		{"invalid input", domain.NewValidationError("dataset root is required"), domain.ErrorCategoryInput},
		{"config", domain.NewConfigError("bad toml", nil), domain.ErrorCategoryConfig},
		{"storage", domain.NewStorageError("insert failed", nil), domain.ErrorCategoryStorage},
		{"output", domain.NewOutputError("failed to write", nil), domain.ErrorCategoryOutput},
		{"evaluation wins over wrapped cause", domain.NewEvaluationError("1 unit failed",
			domain.NewFileNotFoundError("x", nil)), domain.ErrorCategoryProcessing},
		{"wrapped code", fmt.Errorf("evaluate: %w", domain.NewConfigError("x", nil)), domain.ErrorCategoryConfig},
		{"deadline", fmt.Errorf("run: %w", context.DeadlineExceeded), domain.ErrorCategoryTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categorizer.Categorize(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Category)
			assert.Equal(t, tt.err, got.Original)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestCategorize_Patterns(t *testing.T) {
	categorizer := NewErrorCategorizer()

	tests := []struct {
		msg  string
		want domain.ErrorCategory
	}{
		{"parallel execution timed out after 1s", domain.ErrorCategoryTimeout},
		{"connect to postgres: refused", domain.ErrorCategoryStorage},
		{"unknown normalizer: middle_dot", domain.ErrorCategoryConfig},
		{"open x: no such file or directory", domain.ErrorCategoryInput},
		{"could not write report", domain.ErrorCategoryOutput},
		{"malformed response", domain.ErrorCategoryProcessing},
		{"something odd", domain.ErrorCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := categorizer.Categorize(errors.New(tt.msg))
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestCategorize_UnknownKeepsMessage(t *testing.T) {
	got := NewErrorCategorizer().Categorize(errors.New("something odd"))
	assert.Equal(t, "something odd", got.Message)
	assert.Equal(t, "something odd", got.Error())
}

func TestGetRecoverySuggestions(t *testing.T) {
	categorizer := NewErrorCategorizer()

	for _, category := range []domain.ErrorCategory{
		domain.ErrorCategoryInput,
		domain.ErrorCategoryConfig,
		domain.ErrorCategoryTimeout,
		domain.ErrorCategoryOutput,
		domain.ErrorCategoryStorage,
		domain.ErrorCategoryProcessing,
		domain.ErrorCategoryUnknown,
	} {
		assert.NotEmpty(t, categorizer.GetRecoverySuggestions(category), category)
	}
	assert.Equal(t, []string{"Check the error message for more details"},
		categorizer.GetRecoverySuggestions("Other"))
}
