package dirstat

import (
	"sort"
	"sync"
	"time"
)

// ModTimeLayout renders modification timestamps as fixed-width, zero-padded
// local time. Lexicographic order of rendered values equals time order.
const ModTimeLayout = "2006-01-02 15:04:05.000000"

// Stats holds aggregate statistics for a directory walk.
type Stats struct {
	// FileCount is the number of regular files found.
	FileCount int64 `json:"file_count" yaml:"file_count"`
	// TotalBytes is the cumulative size of all regular files.
	TotalBytes int64 `json:"total_bytes" yaml:"total_bytes"`
	// ModTimes holds one rendered modification timestamp per file, sorted ascending.
	ModTimes []string `json:"mod_times" yaml:"mod_times"`
	// ErrorCount is the number of entries that could not be inspected.
	ErrorCount int64 `json:"error_count" yaml:"error_count"`
	// Elapsed is the total time taken for the walk.
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Options configures a statistics walk.
type Options struct {
	// Path is the object tree to analyze.
	Path string
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Debug indicates whether debug output is enabled.
	Debug bool
}

// collector aggregates statistics from concurrent fastwalk callbacks using a mutex.
type collector struct {
	mu         sync.Mutex // Protect concurrent access
	modTimes   []string
	fileCount  int64
	totalBytes int64
	errorCount int64
}

func newCollector() *collector {
	return &collector{modTimes: make([]string, 0)}
}

// addError increments the error counter. This operation is protected by a mutex
// since fastwalk calls the callback from multiple goroutines concurrently.
func (c *collector) addError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorCount++
}

// add records one regular file.
func (c *collector) add(size int64, modTime time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fileCount++
	c.totalBytes += size
	c.modTimes = append(c.modTimes, modTime.Local().Format(ModTimeLayout))
}

// snapshot returns the running file count and byte total.
func (c *collector) snapshot() (int64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fileCount, c.totalBytes
}

// finalize produces the final Stats from the collected data.
// Timestamps are sorted so the result does not depend on walk scheduling.
func (c *collector) finalize() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	modTimes := make([]string, len(c.modTimes))
	copy(modTimes, c.modTimes)
	sort.Strings(modTimes)

	return &Stats{
		FileCount:  c.fileCount,
		TotalBytes: c.totalBytes,
		ModTimes:   modTimes,
		ErrorCount: c.errorCount,
	}
}
