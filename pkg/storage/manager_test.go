package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestManagerSaveAndExists(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.CompletedCount() != 0 {
		t.Error("Expected initial completed count to be 0")
	}

	if manager.Exists("2024-01-01T10:00:00-photo.jpg") {
		t.Error("Expected Exists to return false for a new file")
	}

	testData := []byte("media bytes")
	if err := manager.Save(bytes.NewReader(testData), "2024-01-01T10:00:00-photo.jpg"); err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	// Final file exists with complete content
	content, err := os.ReadFile(filepath.Join(tempDir, "2024-01-01T10:00:00-photo.jpg"))
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match written data")
	}

	// No temp file left behind after a successful save
	if _, err := os.Stat(filepath.Join(tempDir, "2024-01-01T10:00:00-photo.jpg.tmp")); !os.IsNotExist(err) {
		t.Error("Expected temp file to be gone after rename")
	}

	if !manager.Exists("2024-01-01T10:00:00-photo.jpg") {
		t.Error("Expected Exists to return true after save")
	}
	if manager.CompletedCount() != 1 {
		t.Errorf("Expected completed count 1, got %d", manager.CompletedCount())
	}
}

func TestManagerScansExistingFiles(t *testing.T) {
	tempDir := t.TempDir()

	// Pre-populate a completed file and an orphan temp file
	if err := os.WriteFile(filepath.Join(tempDir, "done.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "partial.jpg.tmp"), []byte("y"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if !manager.Exists("done.jpg") {
		t.Error("Expected completed file to be detected by the scan")
	}
	// A temp file is not a completed artifact
	if manager.Exists("partial.jpg.tmp") {
		t.Error("Expected temp file to be excluded from the scan")
	}
	if manager.CompletedCount() != 1 {
		t.Errorf("Expected completed count 1, got %d", manager.CompletedCount())
	}
}

func TestManagerSweepTemp(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	// Simulate a write interrupted after the temp file was created but
	// before the rename: the final path must never exist, and the next
	// run's sweep removes the orphan.
	orphan := filepath.Join(tempDir, "interrupted.mp4.tmp")
	if err := os.WriteFile(orphan, []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "keep.jpg"), []byte("done"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, "interrupted.mp4")); !os.IsNotExist(err) {
		t.Fatal("final path must not exist for an interrupted write")
	}

	removed, err := manager.SweepTemp()
	if err != nil {
		t.Fatalf("SweepTemp failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 temp file removed, got %d", removed)
	}

	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Error("Expected orphan temp file to be removed")
	}
	if _, err := os.Stat(filepath.Join(tempDir, "keep.jpg")); err != nil {
		t.Error("Expected completed file to survive the sweep")
	}
}

// failingReader simulates a network stream that dies mid-copy
type failingReader struct {
	data []byte
	sent bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.sent {
		f.sent = true
		n := copy(p, f.data)
		return n, nil
	}
	return 0, errors.New("connection reset")
}

func TestManagerSaveFailureLeavesNoFinalFile(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	err = manager.Save(&failingReader{data: []byte("partial data")}, "broken.jpg")
	if err == nil {
		t.Fatal("Expected save to fail")
	}

	// The final path must not exist after a failed write
	if _, statErr := os.Stat(filepath.Join(tempDir, "broken.jpg")); !os.IsNotExist(statErr) {
		t.Error("Expected final file to be absent after failed save")
	}
	if manager.Exists("broken.jpg") {
		t.Error("Expected failed save to not be recorded as completed")
	}

	// A following run sweeps whatever temp residue is left
	if _, err := manager.SweepTemp(); err != nil {
		t.Fatalf("SweepTemp failed: %v", err)
	}
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty directory after sweep, found %d entries", len(entries))
	}
}

func TestManagerSaveText(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.SaveText("**mom**: so cute\n\n", "photo.md"); err != nil {
		t.Fatalf("Failed to save text: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tempDir, "photo.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "**mom**: so cute\n\n" {
		t.Errorf("Unexpected text content: %q", content)
	}
}

func TestManagerPath(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	want := filepath.Join(tempDir, "photo.jpg")
	if got := manager.Path("photo.jpg"); got != want {
		t.Errorf("Expected path %q, got %q", want, got)
	}
	if manager.OutputDir() != tempDir {
		t.Errorf("Expected output dir %q, got %q", tempDir, manager.OutputDir())
	}
}
