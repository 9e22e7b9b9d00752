package service

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatResolver_Determine(t *testing.T) {
	tests := []struct {
		name            string
		json, yaml, csv bool
		want            domain.OutputFormat
		wantExt         string
		wantErr         bool
	}{
		{name: "default text", want: domain.OutputFormatText},
		{name: "json", json: true, want: domain.OutputFormatJSON, wantExt: "json"},
		{name: "yaml", yaml: true, want: domain.OutputFormatYAML, wantExt: "yaml"},
		{name: "csv", csv: true, want: domain.OutputFormatCSV, wantExt: "csv"},
		{name: "two flags", json: true, csv: true, wantErr: true},
	}

	r := NewOutputFormatResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ext, err := r.Determine(tt.json, tt.yaml, tt.csv)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "only one output format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantExt, ext)
			assert.Equal(t, tt.wantExt, r.Extension(got))
		})
	}
}

func TestFileOutputWriter_WritesToWriter(t *testing.T) {
	var status, out bytes.Buffer
	w := NewFileOutputWriter(&status)

	err := w.Write(&out, "", domain.OutputFormatText, func(dst io.Writer) error {
		_, err := io.WriteString(dst, "report")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "report", out.String())
	assert.Empty(t, status.String())
}

func TestFileOutputWriter_CreatesFileAndParents(t *testing.T) {
	var status bytes.Buffer
	w := NewFileOutputWriter(&status)
	path := filepath.Join(t.TempDir(), "reports", "nested", "run.json")

	err := w.Write(nil, path, domain.OutputFormatJSON, func(dst io.Writer) error {
		_, err := io.WriteString(dst, "{}")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.Contains(t, status.String(), "JSON report generated: ")
}

func TestFileOutputWriter_WriteFuncError(t *testing.T) {
	w := NewFileOutputWriter(io.Discard)
	err := w.Write(io.Discard, "", domain.OutputFormatText, func(io.Writer) error {
		return errors.New("disk full")
	})
	require.Error(t, err)
	assert.True(t, domain.HasErrorCode(err, domain.ErrCodeOutputError))
}
