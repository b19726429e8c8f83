package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	filePrefix = "bwrofi-"
	fileSuffix = ".log"
	dateLayout = "2006-01-02"
)

// RollerConfig configures the debug log file.
type RollerConfig struct {
	Dir     string // directory holding the daily files
	MaxDays int    // days of files to keep (0 = keep all)
}

// DefaultRollerConfig keeps a week of logs in dir.
func DefaultRollerConfig(dir string) RollerConfig {
	return RollerConfig{Dir: dir, MaxDays: 7}
}

// Roller is an io.Writer that appends to one log file per day.
type Roller struct {
	config      RollerConfig
	currentFile *os.File
	currentDate string
	mu          sync.Mutex
	now         func() time.Time
}

// NewRoller opens today's log file and prunes files past retention.
func NewRoller(config RollerConfig) (*Roller, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("log directory not set")
	}
	r := &Roller{config: config, now: time.Now}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.rotateIfNeeded(); err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return r, nil
}

// Write appends p to the current day's file, rotating first if the date changed.
func (r *Roller) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.rotateIfNeeded(); err != nil {
		return 0, fmt.Errorf("log rotation failed: %w", err)
	}
	return r.currentFile.Write(p)
}

func (r *Roller) rotateIfNeeded() error {
	date := r.now().Format(dateLayout)
	if date == r.currentDate && r.currentFile != nil {
		return nil
	}

	if r.currentFile != nil {
		r.currentFile.Close()
		r.currentFile = nil
	}

	path := r.pathFor(date)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	r.currentFile = file
	r.currentDate = date

	if r.config.MaxDays > 0 {
		r.cleanupOldLogs()
	}
	return nil
}

func (r *Roller) cleanupOldLogs() {
	cutoff := r.now().AddDate(0, 0, -r.config.MaxDays)

	files, err := filepath.Glob(filepath.Join(r.config.Dir, filePrefix+"*"+fileSuffix))
	if err != nil {
		return
	}
	for _, file := range files {
		dateStr := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(file), filePrefix), fileSuffix)
		fileDate, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}
		if fileDate.Before(cutoff) {
			os.Remove(file)
		}
	}
}

func (r *Roller) pathFor(date string) string {
	return filepath.Join(r.config.Dir, filePrefix+date+fileSuffix)
}

// CurrentPath returns the file currently written to.
func (r *Roller) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pathFor(r.currentDate)
}

// Close syncs and closes the current file.
func (r *Roller) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currentFile == nil {
		return nil
	}
	r.currentFile.Sync()
	err := r.currentFile.Close()
	r.currentFile = nil
	return err
}
