package pipeline_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alnah/go-extract/internal/audio"
	"github.com/alnah/go-extract/internal/transcribe"
)

type fakeProber struct {
	mu       sync.Mutex
	duration float64
	paths    []string
}

func (f *fakeProber) Probe(_ context.Context, path string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return f.duration
}

type fakeSlicer struct {
	mu       sync.Mutex
	fail     map[int]bool
	segments []audio.Segment
}

func (f *fakeSlicer) Use(_ context.Context, _ string, seg audio.Segment, fn func(string)) error {
	f.mu.Lock()
	f.segments = append(f.segments, seg)
	fail := f.fail[seg.Index]
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("%w: segment %d", audio.ErrSliceFailed, seg.Index+1)
	}
	fn(fmt.Sprintf("seg-%d.wav", seg.Index))
	return nil
}

type transcribeCall struct {
	clip   transcribe.Clip
	ctxErr error
}

// fakeTranscriber answers with respond(callIndex, clip), or a Hindi
// transcription of the clip path when respond is nil.
type fakeTranscriber struct {
	mu      sync.Mutex
	respond func(call int, clip transcribe.Clip) transcribe.Outcome
	calls   []transcribeCall
}

func (f *fakeTranscriber) Name() string { return "Fake STT" }

func (f *fakeTranscriber) Transcribe(ctx context.Context, clip transcribe.Clip) transcribe.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.calls)
	f.calls = append(f.calls, transcribeCall{clip: clip, ctxErr: ctx.Err()})
	if f.respond != nil {
		return f.respond(n, clip)
	}
	return transcribe.Transcribed("src "+clip.Path, "en "+clip.Path, "hi")
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeConverter writes a real temporary file so that release can be checked.
type fakeConverter struct {
	mu       sync.Mutex
	dir      string
	err      error
	produced []string
}

func newFakeConverter(t *testing.T) *fakeConverter {
	t.Helper()
	return &fakeConverter{dir: t.TempDir()}
}

func (f *fakeConverter) make(name string) (*audio.TempClip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		return nil, err
	}
	f.produced = append(f.produced, path)
	return audio.NewTempClip(path), nil
}

func (f *fakeConverter) ToWAV(_ context.Context, _ string) (*audio.TempClip, error) {
	return f.make("converted.wav")
}

func (f *fakeConverter) ExtractTrack(_ context.Context, _ string) (*audio.TempClip, error) {
	return f.make("track.wav")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
