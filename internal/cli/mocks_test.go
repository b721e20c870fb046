package cli

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-extract/internal/config"
	"github.com/alnah/go-extract/internal/extract"
	"github.com/alnah/go-extract/internal/store"
)

// ---------------------------------------------------------------------------
// Mock ToolResolver
// ---------------------------------------------------------------------------

type mockToolResolver struct {
	ResolveFunc   func(ctx context.Context) (string, error)
	TesseractFunc func() (string, error)

	mu                sync.Mutex
	resolveCalls      int
	checkVersionCalls int
}

func (m *mockToolResolver) Resolve(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx)
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockToolResolver) CheckVersion(_ context.Context, _ string, _ zerolog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkVersionCalls++
}

func (m *mockToolResolver) Tesseract() (string, error) {
	if m.TesseractFunc != nil {
		return m.TesseractFunc()
	}
	return "/usr/bin/tesseract", nil
}

func (m *mockToolResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{
		OutputDir:      "extracts",
		Backend:        config.BackendSarvam,
		SegmentSeconds: 30,
		Pacing:         0,
		HistoryPath:    "/tmp/history.db",
	}, nil
}

// ---------------------------------------------------------------------------
// Mock ExtractorFactory + FileExtractor
// ---------------------------------------------------------------------------

type mockExtractorFactory struct {
	extractor *mockExtractor
	err       error

	mu     sync.Mutex
	setups []ExtractorSetup
}

func (m *mockExtractorFactory) NewExtractor(s ExtractorSetup) (FileExtractor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setups = append(m.setups, s)
	if m.err != nil {
		return nil, m.err
	}
	return m.extractor, nil
}

func (m *mockExtractorFactory) lastSetup() ExtractorSetup {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.setups) == 0 {
		return ExtractorSetup{}
	}
	return m.setups[len(m.setups)-1]
}

type mockExtractor struct {
	ExtractFunc func(ctx context.Context, path string, ft extract.FileType) extract.Result
	delay       time.Duration

	mu          sync.Mutex
	calls       []string
	inFlight    int
	maxInFlight int
}

func (m *mockExtractor) Extract(ctx context.Context, path string, ft extract.FileType) extract.Result {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.inFlight++
	m.maxInFlight = max(m.maxInFlight, m.inFlight)
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, path, ft)
	}
	return extract.Result{Text: "text of " + path, Method: "Mock " + string(ft)}
}

func (m *mockExtractor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockExtractor) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// ---------------------------------------------------------------------------
// Mock StoreFactory + Saver + HistoryStore
// ---------------------------------------------------------------------------

type mockStoreFactory struct {
	saver      *mockSaver
	history    *mockHistory
	historyErr error

	mu         sync.Mutex
	saverDirs  []string
	openedPath string
}

func (m *mockStoreFactory) NewSaver(dir string, _ func() time.Time) Saver {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saverDirs = append(m.saverDirs, dir)
	return m.saver
}

func (m *mockStoreFactory) OpenHistory(_ context.Context, path string) (HistoryStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openedPath = path
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history, nil
}

type mockSaver struct {
	err error

	mu      sync.Mutex
	records []store.Record
}

func (m *mockSaver) Save(r store.Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	if m.err != nil {
		return "", m.err
	}
	return "extracts/" + r.FileType + ".txt", nil
}

func (m *mockSaver) Records() []store.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Record(nil), m.records...)
}

type mockHistory struct {
	listed  []store.Entry
	listErr error

	mu        sync.Mutex
	added     []store.Entry
	listLimit int
	closed    bool
}

func (m *mockHistory) Add(_ context.Context, e store.Entry) (store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, e)
	return e, nil
}

func (m *mockHistory) List(_ context.Context, limit int) ([]store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listLimit = limit
	return m.listed, m.listErr
}

func (m *mockHistory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockHistory) Added() []store.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Entry(nil), m.added...)
}
