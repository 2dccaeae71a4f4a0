package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// tmpSuffix marks in-flight writes. Files carrying it are never valid
// artifacts and are swept at the start of the next run.
const tmpSuffix = ".tmp"

// Manager owns the destination directory and makes every file write
// atomic with respect to process crashes: content lands in a temp file
// and becomes visible only through a rename. The final path either
// holds complete content or does not exist.
type Manager struct {
	outputDir string
	existing  map[string]bool
	mu        sync.RWMutex
}

// NewManager creates the destination directory if needed and scans it
// for already downloaded files.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		existing:  make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles records completed files for duplicate detection.
// Temp files are not completed artifacts and are excluded.
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && !strings.HasSuffix(entry.Name(), tmpSuffix) {
			m.existing[entry.Name()] = true
		}
	}

	return nil
}

// Exists reports whether a completed file with the given name is
// already present in the destination directory.
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	known := m.existing[name]
	m.mu.RUnlock()
	if known {
		return true
	}

	// Double-check the filesystem in case the file appeared after the scan
	if _, err := os.Stat(m.Path(name)); err == nil {
		m.mu.Lock()
		m.existing[name] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// Save streams r into the named destination file atomically. On a
// mid-write failure the temp file may remain; the next run's SweepTemp
// removes it.
func (m *Manager) Save(r io.Reader, name string) error {
	final := m.Path(name)
	tempFile := final + tmpSuffix

	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		return fmt.Errorf("failed to write file data: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	// Atomic rename
	if err := os.Rename(tempFile, final); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.existing[name] = true
	m.mu.Unlock()

	return nil
}

// SaveText commits a text file atomically
func (m *Manager) SaveText(text string, name string) error {
	return m.Save(strings.NewReader(text), name)
}

// SweepTemp deletes every leftover temp file in the destination
// directory. Interrupted downloads are never resumed byte-wise; a
// restarted download always starts from zero.
func (m *Manager) SweepTemp() (int, error) {
	matches, err := filepath.Glob(filepath.Join(m.outputDir, "*"+tmpSuffix))
	if err != nil {
		return 0, fmt.Errorf("failed to list temp files: %w", err)
	}

	removed := 0
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", match, err)
		}
		removed++
	}

	return removed, nil
}

// Path returns the absolute destination path for a file name
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// OutputDir returns the destination directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// CompletedCount returns the number of completed files known to the manager
func (m *Manager) CompletedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.existing)
}
