package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// generateTimestampedFileName generates a filename with timestamp suffix
func generateTimestampedFileName(command, extension string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", command, now.Format("20060102_150405"), extension)
}

// resolveOutputDirectory anchors a relative report directory at the working directory
func resolveOutputDirectory(directory string) string {
	if directory == "" {
		directory = filepath.Join(".cloneval", "reports")
	}
	if filepath.IsAbs(directory) {
		return directory
	}
	cwd, err := os.Getwd()
	if err != nil {
		return directory
	}
	return filepath.Join(cwd, directory)
}

// generateOutputFilePath returns a timestamped report path inside directory,
// creating the directory
func generateOutputFilePath(command, extension, directory string) (string, error) {
	outputDir := resolveOutputDirectory(directory)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	return filepath.Join(outputDir, generateTimestampedFileName(command, extension, time.Now())), nil
}
