package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// statInterval bounds how often the sink checks that its file still exists.
const statInterval = time.Second

// fileSink appends to a log file and reopens it when the file is removed
// or renamed underneath it, as logrotate does.
type fileSink struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	lastCheck time.Time
}

func newFileSink(path string) *fileSink {
	return &fileSink{path: path}
}

// Write implements the io.Writer interface.
func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.writer()
	if err != nil {
		// Log to stderr as a last resort
		fmt.Fprintf(os.Stderr, "layman-log: %v\n", err)
		return 0, err
	}
	return w.Write(p)
}

// Close implements the io.Closer interface.
func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

func (s *fileSink) writer() (io.Writer, error) {
	if s.file != nil && time.Since(s.lastCheck) >= statInterval {
		s.lastCheck = time.Now()
		if s.rotated() {
			s.file.Close()
			s.file = nil
		}
	}

	if s.file == nil {
		if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		s.file = file
		s.lastCheck = time.Now()
	}

	return s.file, nil
}

// rotated reports whether the path no longer names the open file.
func (s *fileSink) rotated() bool {
	onDisk, err := os.Stat(s.path)
	if err != nil {
		return true
	}
	open, err := s.file.Stat()
	if err != nil {
		return true
	}
	return !os.SameFile(onDisk, open)
}
