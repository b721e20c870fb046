package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	tools     *mockToolResolver
	config    *mockConfigLoader
	extractor *mockExtractor
	factory   *mockExtractorFactory
	saver     *mockSaver
	history   *mockHistory
	stores    *mockStoreFactory
	stdout    *syncBuffer
	stderr    *syncBuffer
}

func newTestMocks() *testMocks {
	m := &testMocks{
		tools:     &mockToolResolver{},
		config:    &mockConfigLoader{},
		extractor: &mockExtractor{},
		saver:     &mockSaver{},
		history:   &mockHistory{},
		stdout:    &syncBuffer{},
		stderr:    &syncBuffer{},
	}
	m.factory = &mockExtractorFactory{extractor: m.extractor}
	m.stores = &mockStoreFactory{saver: m.saver, history: m.history}
	return m
}

var testNow = time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)

// defaultTestEnv provides a Sarvam key and nothing else.
func defaultTestEnv(key string) string {
	if key == "SARVAM_API_KEY" {
		return "sk-test-sarvam"
	}
	return ""
}

// testEnv creates an Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(getenv func(string) string) (*Env, *testMocks) {
	if getenv == nil {
		getenv = defaultTestEnv
	}
	m := newTestMocks()
	env := &Env{
		Stdout:           m.stdout,
		Stderr:           m.stderr,
		Getenv:           getenv,
		Now:              func() time.Time { return testNow },
		ToolResolver:     m.tools,
		ConfigLoader:     m.config,
		ExtractorFactory: m.factory,
		StoreFactory:     m.stores,
	}
	return env, m
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// createTestFile creates a file with content in dir and returns its path.
func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}
