package audio_test

import (
	"context"
	"encoding/binary"
	"os"
	"sync"
)

type mockCall struct {
	name string
	args []string
}

// mockCommandRunner records invocations. When write is set, the last
// argument (the output path) receives those bytes, standing in for ffmpeg.
type mockCommandRunner struct {
	mu     sync.Mutex
	calls  []mockCall
	write  []byte
	output []byte
	err    error
}

func (m *mockCommandRunner) CombinedOutput(_ context.Context, name string, args []string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, mockCall{name: name, args: append([]string(nil), args...)})
	if m.write != nil && len(args) > 0 {
		if err := os.WriteFile(args[len(args)-1], m.write, 0o600); err != nil {
			return nil, err
		}
	}
	return m.output, m.err
}

func (m *mockCommandRunner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockCommandRunner) lastArgs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1].args
}

// countingRemover deletes for real and counts calls.
type countingRemover struct {
	mu      sync.Mutex
	removed []string
}

func (r *countingRemover) Remove(name string) error {
	r.mu.Lock()
	r.removed = append(r.removed, name)
	r.mu.Unlock()
	return os.Remove(name)
}

func (r *countingRemover) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.removed)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func indexOf(args []string, s string) int {
	for i, a := range args {
		if a == s {
			return i
		}
	}
	return -1
}

// testWAV returns a mono 16 kHz pcm_s16le WAV holding samples silent samples,
// the shape ffmpeg writes for a slice.
func testWAV(samples int) []byte {
	const sampleRate = 16000
	dataSize := samples * 2
	b := make([]byte, 44+dataSize)
	copy(b[0:], "RIFF")
	binary.LittleEndian.PutUint32(b[4:], uint32(36+dataSize))
	copy(b[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint32(b[16:], 16)
	binary.LittleEndian.PutUint16(b[20:], 1)
	binary.LittleEndian.PutUint16(b[22:], 1)
	binary.LittleEndian.PutUint32(b[24:], sampleRate)
	binary.LittleEndian.PutUint32(b[28:], sampleRate*2)
	binary.LittleEndian.PutUint16(b[32:], 2)
	binary.LittleEndian.PutUint16(b[34:], 16)
	copy(b[36:], "data")
	binary.LittleEndian.PutUint32(b[40:], uint32(dataSize))
	return b
}
