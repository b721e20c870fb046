// Package store persists extraction results: one text file per extraction
// and an SQLite history of everything processed.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultDir is where extracts are written when no directory is configured.
	DefaultDir = "extracts"

	nameTimeLayout   = "20060102_150405"
	headerTimeLayout = "2006-01-02 15:04:05"
	maxNameAttempts  = 5
)

// Record is one extraction to persist.
type Record struct {
	SourcePath string
	FileType   string
	Method     string
	Text       string
	Time       time.Time // Zero means now.
}

// Files writes extract files into a directory.
type Files struct {
	dir string
	now func() time.Time
}

// FilesOption configures Files.
type FilesOption func(*Files)

// WithClock sets the time source (for testing).
func WithClock(now func() time.Time) FilesOption {
	return func(f *Files) { f.now = now }
}

// NewFiles creates a writer for dir. An empty dir means DefaultDir.
func NewFiles(dir string, opts ...FilesOption) *Files {
	if dir == "" {
		dir = DefaultDir
	}
	f := &Files{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Dir returns the output directory.
func (f *Files) Dir() string { return f.dir }

// Save writes r as <stem>_<type>_<YYYYMMDD_HHMMSS>.txt and returns its path.
// An existing file is never overwritten: a short random suffix is added
// when the name is taken.
func (f *Files) Save(r Record) (string, error) {
	if err := os.MkdirAll(f.dir, 0o750); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSave, err)
	}
	if r.Time.IsZero() {
		r.Time = f.now()
	}

	base := fileName(r)
	content := render(r)
	name := base
	for range maxNameAttempts {
		path := filepath.Join(f.dir, name+".txt")
		err := writeExclusive(path, content)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %w", ErrSave, err)
		}
		name = base + "_" + uuid.NewString()[:8]
	}
	return "", fmt.Errorf("%w: no free name for %s", ErrSave, base)
}

func fileName(r Record) string {
	stem := strings.TrimSuffix(filepath.Base(r.SourcePath), filepath.Ext(r.SourcePath))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "extract"
	}
	ft := r.FileType
	if ft == "" {
		ft = "Unknown"
	}
	return fmt.Sprintf("%s_%s_%s", stem, ft, r.Time.Format(nameTimeLayout))
}

func render(r Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original file: %s\n", r.SourcePath)
	fmt.Fprintf(&b, "File type: %s\n", r.FileType)
	fmt.Fprintf(&b, "Extraction method: %s\n", r.Method)
	fmt.Fprintf(&b, "Extraction time: %s\n", r.Time.Format(headerTimeLayout))
	b.WriteString(strings.Repeat("-", 50))
	b.WriteString("\n\n")
	b.WriteString(r.Text)
	return b.String()
}

func writeExclusive(path, content string) (err error) {
	// #nosec G304 -- path is built from the configured output directory
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	_, err = f.WriteString(content)
	return err
}
