package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ludo-technologies/cloneval/domain"
)

// errorPattern maps message fragments to a category
type errorPattern struct {
	category domain.ErrorCategory
	patterns []string
}

// ErrorCategorizerImpl implements the ErrorCategorizer interface
type ErrorCategorizerImpl struct {
	codes    map[string]domain.ErrorCategory
	patterns []errorPattern
}

// NewErrorCategorizer creates a new error categorizer
func NewErrorCategorizer() domain.ErrorCategorizer {
	return &ErrorCategorizerImpl{
		codes:    initializeErrorCodes(),
		patterns: initializeErrorPatterns(),
	}
}

func initializeErrorCodes() map[string]domain.ErrorCategory {
	return map[string]domain.ErrorCategory{
		domain.ErrCodeInvalidInput:      domain.ErrorCategoryInput,
		domain.ErrCodeFileNotFound:      domain.ErrorCategoryInput,
		domain.ErrCodeMissingSource:     domain.ErrorCategoryInput,
		domain.ErrCodeConfigError:       domain.ErrorCategoryConfig,
		domain.ErrCodeUnsupportedFormat: domain.ErrorCategoryConfig,
		domain.ErrCodeParseError:        domain.ErrorCategoryProcessing,
		domain.ErrCodeMalformedRecord:   domain.ErrorCategoryProcessing,
		domain.ErrCodeEvaluationError:   domain.ErrorCategoryProcessing,
		domain.ErrCodeOutputError:       domain.ErrorCategoryOutput,
		domain.ErrCodeStorageError:      domain.ErrorCategoryStorage,
	}
}

// initializeErrorPatterns lists message fragments in match order
func initializeErrorPatterns() []errorPattern {
	return []errorPattern{
		{domain.ErrorCategoryTimeout, []string{
			"timeout",
			"timed out",
			"deadline",
			"context canceled",
		}},
		{domain.ErrorCategoryStorage, []string{
			"postgres",
			"database",
			"bucket",
			"s3",
			"archive",
		}},
		{domain.ErrorCategoryConfig, []string{
			"config",
			"configuration",
			"toml",
			"normalizer",
			"header mode",
		}},
		{domain.ErrorCategoryInput, []string{
			"invalid input",
			"file not found",
			"no such file",
			"no ground truth",
			"dataset root",
			"permission denied",
		}},
		{domain.ErrorCategoryOutput, []string{
			"write",
			"output",
			"cannot create",
			"report generation",
		}},
		{domain.ErrorCategoryProcessing, []string{
			"parse",
			"malformed",
			"evaluation",
			"failed units",
		}},
	}
}

// Categorize determines the category of an error. Domain error codes win over
// message patterns.
func (ec *ErrorCategorizerImpl) Categorize(err error) *domain.CategorizedError {
	if err == nil {
		return nil
	}

	if category, ok := ec.categoryFromCode(err); ok {
		return &domain.CategorizedError{
			Category: category,
			Message:  ec.getCategoryMessage(category),
			Original: err,
		}
	}

	errMsg := strings.ToLower(err.Error())
	for _, p := range ec.patterns {
		if containsAnyPattern(errMsg, p.patterns) {
			return &domain.CategorizedError{
				Category: p.category,
				Message:  ec.getCategoryMessage(p.category),
				Original: err,
			}
		}
	}

	// Default to unknown category
	return &domain.CategorizedError{
		Category: domain.ErrorCategoryUnknown,
		Message:  err.Error(),
		Original: err,
	}
}

func (ec *ErrorCategorizerImpl) categoryFromCode(err error) (domain.ErrorCategory, bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorCategoryTimeout, true
	}
	var de domain.DomainError
	if !errors.As(err, &de) {
		return "", false
	}
	category, ok := ec.codes[de.Code]
	return category, ok
}

// GetRecoverySuggestions returns recovery suggestions for an error category
func (ec *ErrorCategorizerImpl) GetRecoverySuggestions(category domain.ErrorCategory) []string {
	suggestions := map[domain.ErrorCategory][]string{
		domain.ErrorCategoryInput: {
			"Check that the dataset root contains the ground truth, detector report and sample files",
			"Try: cloneval evaluate <dataset> --verbose to see the resolved paths",
			"Use --ground-truth, --detector and --samples to override the path templates",
		},
		domain.ErrorCategoryConfig: {
			"Verify configuration file format and values",
			"Try: cloneval init to generate a valid config file",
			"Check for syntax errors in .cloneval.toml",
			"Check CLONEVAL_* environment variables and the .env file",
		},
		domain.ErrorCategoryTimeout: {
			"Increase performance.timeout_seconds or pass --timeout",
			"Evaluate fewer clone types or seeds per run",
		},
		domain.ErrorCategoryOutput: {
			"Check write permissions for output.directory and output.results_file",
			"Use the default text output to print to the terminal",
		},
		domain.ErrorCategoryStorage: {
			"Check results.postgres_dsn and that the database is reachable",
			"Check the archive endpoint, credentials and bucket name",
			"Unset CLONEVAL_RESULTS_POSTGRES_DSN or archive.enabled to skip remote storage",
		},
		domain.ErrorCategoryProcessing: {
			"Run cloneval inspect <source> to see skipped records",
			"Check that both sources use the same fragment naming (--normalizer)",
		},
		domain.ErrorCategoryUnknown: {
			"Run with --verbose for detailed error information",
			"Report the issue if it persists",
		},
	}

	if sug, ok := suggestions[category]; ok {
		return sug
	}
	return []string{"Check the error message for more details"}
}

// getCategoryMessage returns a user-friendly message for an error category
func (ec *ErrorCategorizerImpl) getCategoryMessage(category domain.ErrorCategory) string {
	messages := map[domain.ErrorCategory]string{
		domain.ErrorCategoryInput:      "Failed to locate or read evaluation inputs",
		domain.ErrorCategoryConfig:     "Configuration file or settings error",
		domain.ErrorCategoryTimeout:    "Evaluation timed out",
		domain.ErrorCategoryOutput:     "Failed to generate or write output",
		domain.ErrorCategoryStorage:    "Failed to store results",
		domain.ErrorCategoryProcessing: "One or more evaluation units failed",
		domain.ErrorCategoryUnknown:    "An unexpected error occurred",
	}

	if msg, ok := messages[category]; ok {
		return msg
	}
	return "An error occurred"
}

// containsAnyPattern checks if a string contains any of the given patterns
func containsAnyPattern(str string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(str, pattern) {
			return true
		}
	}
	return false
}
