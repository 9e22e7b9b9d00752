package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ludo-technologies/cloneval/domain"
)

// CSVResultSink appends one row per evaluation unit to a CSV file. The header
// is written only when the file is new or empty.
type CSVResultSink struct {
	mu     sync.Mutex
	path   string
	ks     []int
	file   *os.File
	writer *csv.Writer
}

// NewCSVResultSink creates a sink appending to path. The file is opened on
// the first Append.
func NewCSVResultSink(path string, ks []int) *CSVResultSink {
	if len(ks) == 0 {
		ks = domain.DefaultKValues
	}
	return &CSVResultSink{path: path, ks: append([]int(nil), ks...)}
}

// Path returns the file rows are appended to
func (s *CSVResultSink) Path() string {
	return s.path
}

// Append writes the result's row. Failed units are not persisted.
func (s *CSVResultSink) Append(ctx context.Context, result *domain.EvaluationResult) error {
	if result == nil || result.Failed() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.open(); err != nil {
		return err
	}

	if err := s.writer.Write(result.Row(s.ks)); err != nil {
		return domain.NewOutputError(fmt.Sprintf("failed to append result to %s", s.path), err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return domain.NewOutputError(fmt.Sprintf("failed to append result to %s", s.path), err)
	}
	return nil
}

func (s *CSVResultSink) open() error {
	if s.file != nil {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.NewOutputError(fmt.Sprintf("failed to create directory %s", dir), err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.NewOutputError(fmt.Sprintf("failed to open results file %s", s.path), err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return domain.NewOutputError(fmt.Sprintf("failed to stat results file %s", s.path), err)
	}

	s.file = f
	s.writer = csv.NewWriter(f)
	if info.Size() == 0 {
		if err := s.writer.Write(domain.ResultHeader(s.ks)); err != nil {
			return domain.NewOutputError("failed to write results header", err)
		}
	}
	return nil
}

// Close flushes and closes the file
func (s *CSVResultSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	s.writer.Flush()
	err := errors.Join(s.writer.Error(), s.file.Close())
	s.file = nil
	s.writer = nil
	return err
}

// MultiSink fans a result out to several sinks
type MultiSink struct {
	sinks []domain.ResultSink
}

// NewMultiSink combines sinks, skipping nil entries
func NewMultiSink(sinks ...domain.ResultSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of sinks
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// Append hands the result to every sink, even when one fails
func (m *MultiSink) Append(ctx context.Context, result *domain.EvaluationResult) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Append(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
