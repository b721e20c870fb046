package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/alnah/go-extract/internal/extract"
)

// newLogger writes human-readable logs to w; verbose enables debug output.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
}

// maskKey shows only the first four characters of a credential.
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", 8)
}

// fileReport is the outcome of processing one input.
type fileReport struct {
	Path      string
	Type      extract.FileType
	Result    extract.Result
	SavedPath string
	SaveErr   error
}

// Failed reports whether extraction or saving failed.
func (r fileReport) Failed() bool {
	return r.Result.Failed() || r.SaveErr != nil
}

// writeReport prints a report block: a short header, then the text.
func writeReport(w io.Writer, r fileReport) {
	status := "OK"
	if r.Failed() {
		status = "FAILED"
	}
	_, _ = fmt.Fprintf(w, "File: %s\n", r.Path)
	_, _ = fmt.Fprintf(w, "Type: %s\n", r.Type)
	_, _ = fmt.Fprintf(w, "Method: %s\n", r.Result.Method)
	_, _ = fmt.Fprintf(w, "Status: %s\n", status)
	if r.SavedPath != "" {
		_, _ = fmt.Fprintf(w, "Saved: %s\n", r.SavedPath)
	}
	if r.SaveErr != nil {
		_, _ = fmt.Fprintf(w, "Save error: %v\n", r.SaveErr)
	}
	_, _ = fmt.Fprintf(w, "%s\n%s\n\n", strings.Repeat("-", 50), strings.TrimRight(r.Result.Text, "\n"))
}
