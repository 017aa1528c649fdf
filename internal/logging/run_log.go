package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RunLog is a plain-text log file covering one inbox run: a header, a
// section per processed document and a footer with totals.
type RunLog struct {
	name      string
	path      string
	logFile   *os.File
	mutex     sync.Mutex
	startTime time.Time
	processed int
	failed    int
}

// StartRunLog creates dir/<name>_<timestamp>.log and writes the header
func StartRunLog(dir, name string) (*RunLog, error) {
	start := time.Now()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", name, start.Format("20060102_150405")))
	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	r := &RunLog{name: name, path: logPath, logFile: logFile, startTime: start}
	r.writeHeader()
	return r, nil
}

// Path is where the log is written
func (r *RunLog) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Log writes a timestamped line
func (r *RunLog) Log(format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.write(fmt.Sprintf(format, args...))
}

func (r *RunLog) write(message string) {
	if r.logFile == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	elapsed := time.Since(r.startTime).Round(time.Millisecond)
	fmt.Fprintf(r.logFile, "[%s] [+%v] %s\n", timestamp, elapsed, message)
	r.logFile.Sync()
}

// LogSection writes a section header
func (r *RunLog) LogSection(title string) {
	if r == nil {
		return
	}
	separator := strings.Repeat("=", 80)
	r.Log("%s", separator)
	r.Log("= %s", title)
	r.Log("%s", separator)
}

// LogOutcome records the result of processing one document
func (r *RunLog) LogOutcome(file string, outputs []string, err error) {
	if r == nil {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err != nil {
		r.failed++
		r.write(fmt.Sprintf("FAILED %s: %v", file, err))
		return
	}
	r.processed++
	r.write(fmt.Sprintf("OK %s -> %s", file, strings.Join(outputs, ", ")))
}

// Counts returns how many documents succeeded and failed
func (r *RunLog) Counts() (processed, failed int) {
	if r == nil {
		return 0, 0
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.processed, r.failed
}

// Close writes the footer and closes the file
func (r *RunLog) Close() {
	if r == nil {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.logFile == nil {
		return
	}

	r.write(fmt.Sprintf("Run completed. Processed: %d, failed: %d, total duration: %v",
		r.processed, r.failed, time.Since(r.startTime).Round(time.Millisecond)))
	r.logFile.Close()
	r.logFile = nil

	log.Info().Str("log", r.path).Int("processed", r.processed).Int("failed", r.failed).Msg("Run log closed")
}

func (r *RunLog) writeHeader() {
	header := fmt.Sprintf(`LEXI %s LOG
Start Time: %s
Log Format: [HH:MM:SS.mmm] [+duration] message

`, strings.ToUpper(r.name), r.startTime.Format("2006-01-02 15:04:05"))

	r.logFile.WriteString(header)
	r.logFile.Sync()
}
