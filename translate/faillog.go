package translate

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// FailureLog is the append-only record of literals that could not be
// translated after exhausting their retries. One original (unmasked) literal
// per line; the pipeline only ever writes it, never reads it back.
type FailureLog struct {
	mu   sync.Mutex
	path string
}

// NewFailureLog returns a failure log backed by the file at path.
// The file is created on first Record.
func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path}
}

// Path returns the failure log file path.
func (l *FailureLog) Path() string {
	return l.path
}

// Record appends one failed literal to the log.
func (l *FailureLog) Record(literal string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening failure log %s: %w", l.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, literal); err != nil {
		return fmt.Errorf("writing failure log %s: %w", l.path, err)
	}
	return nil
}

// CountFailures returns the number of recorded failures in the log at path.
// A missing log means zero failures.
func CountFailures(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading failure log %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if scanner.Text() != "" {
			n++
		}
	}
	return n, scanner.Err()
}
