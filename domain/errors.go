package domain

import (
	"fmt"
)

// DomainError represents errors in the domain layer
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e DomainError) Unwrap() error {
	return e.Cause
}

// Domain error codes
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeParseError        = "PARSE_ERROR"
	ErrCodeConfigError       = "CONFIG_ERROR"
	ErrCodeOutputError       = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeMalformedRecord   = "MALFORMED_RECORD"
	ErrCodeMissingSource     = "MISSING_SOURCE"
	ErrCodeStorageError      = "STORAGE_ERROR"
	ErrCodeEvaluationError   = "EVALUATION_ERROR"
)

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) error {
	return DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string, cause error) error {
	return NewDomainError(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path), cause)
}

// NewParseError creates a parse error
func NewParseError(file string, cause error) error {
	return NewDomainError(ErrCodeParseError, fmt.Sprintf("failed to parse file: %s", file), cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewOutputError creates an output error
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError creates an unsupported format error
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported format: %s", format), nil)
}

// NewValidationError creates a validation error
func NewValidationError(message string) error {
	return NewDomainError(ErrCodeInvalidInput, message, nil)
}

// NewStorageError creates an error for result stores and report archives
func NewStorageError(message string, cause error) error {
	return NewDomainError(ErrCodeStorageError, message, cause)
}

// NewEvaluationError creates an error for a failed evaluation unit
func NewEvaluationError(message string, cause error) error {
	return NewDomainError(ErrCodeEvaluationError, message, cause)
}

// HasErrorCode reports whether err is (or wraps) a DomainError with the given code.
func HasErrorCode(err error, code string) bool {
	for err != nil {
		if de, ok := err.(DomainError); ok && de.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// MalformedRecordError describes a clone-pair record that could not be decoded.
// Loaders skip such records and keep going.
type MalformedRecordError struct {
	Source string
	Line   int
	Fields int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] %s:%d: %s", ErrCodeMalformedRecord, e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("[%s] %s: %s", ErrCodeMalformedRecord, e.Source, e.Reason)
}

// RecordDiagnostic is the serializable form of a skipped record.
type RecordDiagnostic struct {
	Line   int    `json:"line" yaml:"line"`
	Fields int    `json:"fields" yaml:"fields"`
	Reason string `json:"reason" yaml:"reason"`
}

// Diagnostic converts the error into a RecordDiagnostic
func (e *MalformedRecordError) Diagnostic() RecordDiagnostic {
	return RecordDiagnostic{Line: e.Line, Fields: e.Fields, Reason: e.Reason}
}
