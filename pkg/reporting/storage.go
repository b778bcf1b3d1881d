package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Storage archives benchmark result files in an output directory,
// keeping only the most recent runs.
type Storage struct {
	outputDir string
	keepLastN int
	logger    *Logger
}

// NewStorage creates a new storage instance
func NewStorage(outputDir string, keepLastN int, logger *Logger) (*Storage, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Storage{
		outputDir: outputDir,
		keepLastN: keepLastN,
		logger:    logger,
	}, nil
}

// SaveResults writes the marshalable payload to a timestamped JSON file
// and prunes old result files. The timestamp comes from the caller so
// that runs honouring SOURCE_DATE_EPOCH archive deterministically.
func (s *Storage) SaveResults(payload any, startTime time.Time) (string, error) {
	timestamp := startTime.Format("20060102-150405")
	filename := fmt.Sprintf("benchmark-%s.json", timestamp)
	path := filepath.Join(s.outputDir, filename)

	// Marshal results to JSON with indentation
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write results file: %w", err)
	}

	s.logger.Info("Benchmark results saved", "path", path)

	// Cleanup old results if necessary
	if s.keepLastN > 0 {
		if err := s.cleanupOldResults(); err != nil {
			s.logger.Warn("Failed to cleanup old results", "error", err)
		}
	}

	return path, nil
}

// ListResultFiles lists all archived result files, newest first.
func (s *Storage) ListResultFiles() ([]string, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	files := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		files = append(files, filepath.Join(s.outputDir, entry.Name()))
	}

	// The timestamped names sort chronologically; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

// cleanupOldResults removes old result files, keeping only the last N
func (s *Storage) cleanupOldResults() error {
	files, err := s.ListResultFiles()
	if err != nil {
		return err
	}

	if len(files) <= s.keepLastN {
		return nil
	}

	// Delete oldest results
	for _, path := range files[s.keepLastN:] {
		if err := os.Remove(path); err != nil {
			s.logger.Warn("Failed to delete old results", "path", path, "error", err)
		} else {
			s.logger.Debug("Deleted old results", "path", path)
		}
	}

	return nil
}

// GetOutputDir returns the output directory path
func (s *Storage) GetOutputDir() string {
	return s.outputDir
}
