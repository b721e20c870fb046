package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/alnah/go-extract/internal/extract"
)

// DefaultSettle is how long a file must stay unchanged before it is extracted.
const DefaultSettle = 2 * time.Second

// WatchCmd creates the watch command.
// The env parameter provides injectable dependencies for testing.
func WatchCmd(env *Env) *cobra.Command {
	var (
		opts   runOptions
		settle time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Extract files as they appear in a directory",
		Long: `Watch a directory and extract every supported file created or modified in it.

A file is processed once it has stopped changing for the settle delay. Files
are processed one at a time, in the order they settle, until interrupted.
Subdirectories are not watched.`,
		Example: `  extract watch ~/Inbox
  extract watch ./uploads --settle 5s --backend openai`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), env, args[0], opts, settle)
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", DefaultSettle, "Quiet period before a changed file is extracted")
	addRunFlags(cmd, &opts)

	return cmd
}

// runWatch blocks until ctx is cancelled, which is a clean stop.
func runWatch(ctx context.Context, env *Env, dir string, opts runOptions, settle time.Duration) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, dir)
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, dir)
	}

	s, err := openSession(ctx, env, opts, true)
	if err != nil {
		return err
	}
	defer s.close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}

	outputDir := absPath(s.cfg.OutputDir)
	ready := make(chan string, 64)
	deb := newDebouncer(settle, ready)
	defer deb.stop()

	s.log.Info().Str("dir", dir).Dur("settle", settle).Msg("watching")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("stopped watching")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldExtract(ev, outputDir) {
				deb.touch(ev.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("watcher error")

		case path := <-ready:
			if _, err := os.Stat(path); err != nil {
				s.log.Debug().Str("file", path).Msg("file vanished before extraction")
				continue
			}
			s.process(ctx, path)
		}
	}
}

// shouldExtract filters events to created or written supported files
// outside the output directory, whose extracts would otherwise loop.
func shouldExtract(ev fsnotify.Event, outputDir string) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	if filepath.Base(ev.Name)[0] == '.' {
		return false
	}
	if absPath(filepath.Dir(ev.Name)) == outputDir {
		return false
	}
	return isSupportedFile(ev.Name)
}

func isSupportedFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return extract.Supported(path)
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// debouncer emits a path on out once it has not been touched for delay.
type debouncer struct {
	delay  time.Duration
	out    chan<- string
	mu     sync.Mutex
	timers map[string]*time.Timer
	done   chan struct{}
	once   sync.Once
}

func newDebouncer(delay time.Duration, out chan<- string) *debouncer {
	return &debouncer{
		delay:  delay,
		out:    out,
		timers: make(map[string]*time.Timer),
		done:   make(chan struct{}),
	}
}

func (d *debouncer) touch(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A later touch replaced this timer.
		if d.timers[path] != t {
			d.mu.Unlock()
			return
		}
		delete(d.timers, path)
		d.mu.Unlock()

		select {
		case d.out <- path:
		case <-d.done:
		}
	})
	d.timers[path] = t
}

func (d *debouncer) stop() {
	d.once.Do(func() {
		close(d.done)
		d.mu.Lock()
		defer d.mu.Unlock()
		for path, t := range d.timers {
			t.Stop()
			delete(d.timers, path)
		}
	})
}
