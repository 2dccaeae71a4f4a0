package ui

import (
	"fmt"
	"sync"
	"time"
)

// StatusTracker keeps track of a download run's progress
type StatusTracker struct {
	mu         sync.Mutex
	downloaded int
	skipped    int
	failed     int
	startTime  time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		startTime: time.Now(),
	}
}

// IncrementDownloaded records one completed download
func (st *StatusTracker) IncrementDownloaded() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.downloaded++
}

// IncrementSkipped records one item skipped because it already existed
func (st *StatusTracker) IncrementSkipped() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.skipped++
}

// IncrementFailed records one item whose download failed
func (st *StatusTracker) IncrementFailed() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.failed++
}

// Counts returns the downloaded, skipped and failed totals
func (st *StatusTracker) Counts() (downloaded, skipped, failed int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.downloaded, st.skipped, st.failed
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.startTime)
}

// PrintSummary prints the end-of-run totals
func (st *StatusTracker) PrintSummary() {
	downloaded, skipped, failed := st.Counts()
	elapsed := st.GetElapsedTime().Round(time.Second)

	if IsQuietMode() {
		return
	}

	line := fmt.Sprintf("downloaded %d, skipped %d, failed %d in %s",
		downloaded, skipped, failed, elapsed)
	if failed > 0 {
		fmt.Println(Yellow(line))
	} else {
		fmt.Println(Green(line))
	}
}
