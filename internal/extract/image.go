package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/go-tika/tika"
	"github.com/rs/zerolog"
)

// Tesseract language sets: English plus the Indic scripts the OCR packs cover.
const (
	MultilingualOCR = "eng+ben+hin+tam+tel+kan+mal"
	EnglishOCR      = "eng"
)

// Attempt is one way of reading text out of an image.
type Attempt interface {
	// Method is recorded as the extraction method when the attempt wins.
	Method() string
	Run(ctx context.Context, path string) (string, error)
}

// Chain runs attempts in order; the first one producing non-blank text wins.
type Chain struct {
	attempts []Attempt
	log      zerolog.Logger
}

// NewChain creates a chain over attempts.
func NewChain(log zerolog.Logger, attempts ...Attempt) *Chain {
	return &Chain{attempts: attempts, log: log}
}

// Extract runs the chain. Failed attempts are logged and skipped. If every
// attempt failed the result carries ErrOCR; if some ran but found nothing
// the result is a successful "no text" report.
func (c *Chain) Extract(ctx context.Context, path string) Result {
	var errs []error
	for _, a := range c.attempts {
		text, err := a.Run(ctx, path)
		if err != nil {
			c.log.Warn().Err(err).Str("method", a.Method()).Msg("ocr attempt failed")
			errs = append(errs, fmt.Errorf("%s: %w", a.Method(), err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return Result{Text: text, Method: a.Method()}
		}
		c.log.Debug().Str("method", a.Method()).Msg("ocr attempt found no text")
	}

	if len(errs) > 0 && len(errs) == len(c.attempts) {
		err := errors.Join(errs...)
		return Result{
			Text:   "Error extracting text from image: " + err.Error(),
			Method: "Error",
			Err:    fmt.Errorf("%w: %w", ErrOCR, err),
		}
	}
	return Result{Text: "No text could be detected in this image.", Method: "All methods failed"}
}

// outputRunner executes a command and returns its standard output.
type outputRunner interface {
	Output(ctx context.Context, name string, args []string) ([]byte, error)
}

type osOutputRunner struct{}

func (osOutputRunner) Output(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name is the resolved tesseract binary and args are built internally
	out, err := exec.CommandContext(ctx, name, args...).Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return out, err
}

// Tesseract runs the tesseract CLI with a language set.
type Tesseract struct {
	bin       string
	languages string
	psm       int
	method    string
	runner    outputRunner
}

// TesseractOption configures a Tesseract attempt.
type TesseractOption func(*Tesseract)

// WithPageSegmentation sets --psm (0 leaves tesseract's default).
func WithPageSegmentation(psm int) TesseractOption {
	return func(t *Tesseract) { t.psm = psm }
}

// WithTesseractRunner sets the command runner (for testing).
func WithTesseractRunner(r outputRunner) TesseractOption {
	return func(t *Tesseract) { t.runner = r }
}

// NewTesseract creates an attempt recording method when it wins.
func NewTesseract(bin, languages, method string, opts ...TesseractOption) *Tesseract {
	t := &Tesseract{
		bin:       bin,
		languages: languages,
		method:    method,
		runner:    osOutputRunner{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Method implements Attempt.
func (t *Tesseract) Method() string { return t.method }

// Run implements Attempt.
func (t *Tesseract) Run(ctx context.Context, path string) (string, error) {
	if t.bin == "" {
		return "", errors.New("tesseract not found")
	}
	args := []string{path, "stdout", "-l", t.languages}
	if t.psm > 0 {
		args = append(args, "--psm", strconv.Itoa(t.psm))
	}
	out, err := t.runner.Output(ctx, t.bin, args)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Tika sends the file to an Apache Tika server.
type Tika struct {
	client *tika.Client
}

// NewTika creates an attempt against the server at url.
func NewTika(url string) *Tika {
	return &Tika{client: tika.NewClient(nil, url)}
}

// Method implements Attempt.
func (*Tika) Method() string { return "Apache Tika (fallback)" }

// Run implements Attempt.
func (t *Tika) Run(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return t.client.Parse(ctx, f)
}

// DefaultImageChain builds the usual order: multilingual tesseract, Tika
// when tikaURL is set, then English-only tesseract.
func DefaultImageChain(tesseractBin, languages, tikaURL string, log zerolog.Logger) *Chain {
	if languages == "" {
		languages = MultilingualOCR
	}
	attempts := []Attempt{
		NewTesseract(tesseractBin, languages, "Tesseract OCR (multilingual)", WithPageSegmentation(6)),
	}
	if tikaURL != "" {
		attempts = append(attempts, NewTika(tikaURL))
	}
	attempts = append(attempts, NewTesseract(tesseractBin, EnglishOCR, "Tesseract OCR (English only)"))
	return NewChain(log, attempts...)
}
