package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-extract/internal/extract"
)

// MaxParallel caps --parallel. Service calls stay paced whatever the value.
const MaxParallel = 8

// clampParallel constrains the worker count to [1, MaxParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxParallel {
		return MaxParallel
	}
	return n
}

// ExtractCmd creates the extract command.
// The env parameter provides injectable dependencies for testing.
func ExtractCmd(env *Env) *cobra.Command {
	var (
		opts     runOptions
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "extract <file>...",
		Short: "Extract text from files",
		Long: `Extract text from text, PDF, image, audio and video files.

Audio and video are transcribed and translated to English. Clips of 30 seconds
or less are sent in one request; longer recordings are split into 30-second
segments processed in order. Images are read with Tesseract OCR, falling back
to an Apache Tika server when tika-url is configured.

With --parallel above 1, several audio or video files are converted and
sliced at the same time; speech requests are still sent one at a time.

Each result is printed and saved to the output directory as
<name>_<type>_<timestamp>.txt.

Credentials: SARVAM_API_KEY (backend sarvam) or OPENAI_API_KEY (backend openai).`,
		Example: `  extract extract lecture.mp3
  extract extract notes.pdf scan.png interview.mp4 --parallel 2
  extract extract talk.m4a --backend openai --output-dir ~/extracts
  extract extract draft.txt --no-save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), env, args, opts, parallel)
		},
	}

	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1,
		fmt.Sprintf("Files processed at once (1-%d); above 1, audio/video conversion and slicing overlap while speech requests stay paced one at a time", MaxParallel))
	addRunFlags(cmd, &opts)

	return cmd
}

// addRunFlags registers the flags shared by extract and watch.
func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for extract files (default from config: extracts)")
	cmd.Flags().StringVarP(&opts.backend, "backend", "b", "", "Speech backend: sarvam, openai (default from config)")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "Print results without writing extract files")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
}

// runExtract processes every path and fails if any file failed.
// Validation order: files exist -> config -> backend -> tools.
func runExtract(ctx context.Context, env *Env, paths []string, opts runOptions, parallel int) error {
	// === VALIDATION (fail-fast) ===
	needMedia := false
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrFileNotFound, p)
			}
			return fmt.Errorf("cannot access input file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory (use watch)", ErrFileNotFound, p)
		}
		if ft := extract.DetectType(p); ft == extract.TypeAudio || ft == extract.TypeVideo {
			needMedia = true
		}
	}

	s, err := openSession(ctx, env, opts, needMedia)
	if err != nil {
		return err
	}
	defer s.close()

	// === PROCESSING ===
	reports := make([]fileReport, len(paths))
	started := make([]bool, len(paths))

	var g errgroup.Group
	g.SetLimit(clampParallel(parallel))
	for i, p := range paths {
		// Files already started finish; no new file starts after an interrupt.
		if ctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			reports[i] = s.process(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	failed, skipped := 0, 0
	for i, r := range reports {
		switch {
		case !started[i]:
			skipped++
		case r.Failed():
			failed++
		}
	}

	if skipped > 0 {
		s.log.Warn().Int("skipped", skipped).Msg("interrupted before all files were processed")
		return fmt.Errorf("%d of %d files not processed: %w", skipped, len(paths), context.Cause(ctx))
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrExtractionFailed, failed, len(paths))
	}
	return nil
}
