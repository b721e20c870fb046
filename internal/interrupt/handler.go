// Package interrupt turns Ctrl+C into a two-step stop: the first signal
// drains, the second within a short window exits.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// abortWindow is how soon a second signal must follow the first to abort.
const abortWindow = 2 * time.Second

const (
	drainMessage = "\nFinishing files in progress; press Ctrl+C again to abort."
	abortMessage = "\nAborted."
)

// Handler cancels its context on the first signal. Work already started
// is expected to finish; nothing new should start. A second signal within
// abortWindow exits the process.
type Handler struct {
	mu          sync.Mutex
	firstSignal time.Time
	interrupted bool
	stopped     bool
	cancel      context.CancelFunc
	done        chan struct{}

	exitFunc func(int)
	nowFunc  func() time.Time
	stderr   io.Writer
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh    <-chan os.Signal
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr must be safe for concurrent writes.
	Stderr io.Writer
}

// NewHandler listens for SIGINT and SIGTERM.
// The returned context is cancelled on the first signal.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return NewHandlerWithOptions(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions creates a handler with injectable dependencies.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancel:   cancel,
		done:     make(chan struct{}),
		exitFunc: opts.ExitFunc,
		nowFunc:  opts.NowFunc,
		stderr:   opts.Stderr,
	}
	if h.exitFunc == nil {
		h.exitFunc = os.Exit
	}
	if h.nowFunc == nil {
		h.nowFunc = time.Now
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}
	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}

			h.mu.Lock()
			if h.stopped {
				h.mu.Unlock()
				return
			}
			now := h.nowFunc()

			if !h.interrupted {
				h.interrupted = true
				h.firstSignal = now
				h.cancel()
				h.mu.Unlock()
				_, _ = fmt.Fprintln(h.stderr, drainMessage)
				continue
			}

			if now.Sub(h.firstSignal) <= abortWindow {
				h.mu.Unlock()
				_, _ = fmt.Fprintln(h.stderr, abortMessage)
				h.exitFunc(ExitInterrupt)
				return
			}

			// Too late for an abort: this signal starts a new window.
			h.firstSignal = now
			h.mu.Unlock()
			_, _ = fmt.Fprintln(h.stderr, drainMessage)
		}
	}
}

// WasInterrupted reports whether at least one signal was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// Stop releases the signal listener. Safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	close(h.done)
	h.cancel()
}
