package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/RodimusGPT/wisekeep-sub001/internal/backend"
	"github.com/RodimusGPT/wisekeep-sub001/internal/blob"
	"github.com/RodimusGPT/wisekeep-sub001/internal/config"
	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
	"github.com/RodimusGPT/wisekeep-sub001/internal/process"
	"github.com/RodimusGPT/wisekeep-sub001/internal/store"
	"github.com/RodimusGPT/wisekeep-sub001/internal/usage"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	cfg config.Config
	err error
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	return m.cfg, m.err
}

// testConfig returns a fully populated config pointing local state at a
// temp dir.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		UserID:     "user-1",
		BackendURL: "https://api.test",
		StorageURL: "https://blobs.test",
		DataDir:    t.TempDir(),
	}
}

// ---------------------------------------------------------------------------
// Mock StoreOpener (real store in a temp dir)
// ---------------------------------------------------------------------------

type mockStoreOpener struct {
	mu    sync.Mutex
	store *store.Store
}

func (m *mockStoreOpener) Open(path string) (*store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store != nil {
		return m.store, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	m.store = st
	return st, nil
}

// ---------------------------------------------------------------------------
// Mock backend.Client
// ---------------------------------------------------------------------------

type mockBackend struct {
	mu sync.Mutex

	created   []memo.Recording
	updates   []memo.Update
	updateIDs []string
	deleted   []string
	triggered []backend.ProcessRequest

	fetchFunc func(id string) (memo.Recording, error)
	usageInfo usage.Info
	usageErr  error

	createErr  error
	triggerErr error
}

func (m *mockBackend) CreateRecording(_ context.Context, rec memo.Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, rec)
	return nil
}

func (m *mockBackend) FetchRecording(_ context.Context, id string) (memo.Recording, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(id)
	}
	return memo.Recording{}, memo.ErrNotFound
}

func (m *mockBackend) UpdateRecording(_ context.Context, id string, u memo.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateIDs = append(m.updateIDs, id)
	m.updates = append(m.updates, u)
	return nil
}

func (m *mockBackend) DeleteRecording(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockBackend) TriggerProcessing(_ context.Context, req backend.ProcessRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.triggerErr != nil {
		return m.triggerErr
	}
	m.triggered = append(m.triggered, req)
	return nil
}

func (m *mockBackend) FetchUsage(context.Context, string) (usage.Info, error) {
	return m.usageInfo, m.usageErr
}

func (m *mockBackend) ListPending(context.Context) ([]memo.Recording, error) {
	return nil, nil
}

type mockBackendFactory struct {
	client *mockBackend
}

func (f *mockBackendFactory) NewClient(baseURL, apiKey string) backend.Client {
	return f.client
}

// ---------------------------------------------------------------------------
// Mock blob.Storage
// ---------------------------------------------------------------------------

type mockStorage struct {
	mu      sync.Mutex
	puts    []string
	deletes []string
	putErr  error
}

func (m *mockStorage) Put(_ context.Context, objectPath, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.puts = append(m.puts, objectPath)
	return "https://blobs.test/" + objectPath, nil
}

func (m *mockStorage) Delete(_ context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, objectPath)
	return nil
}

type mockStorageFactory struct {
	storage *mockStorage
}

func (f *mockStorageFactory) NewStorage(baseURL, apiKey string) blob.Storage {
	return f.storage
}

// ---------------------------------------------------------------------------
// Mock EngineFactory
// ---------------------------------------------------------------------------

type mockEngineFactory struct {
	engine *process.Engine
}

func (f *mockEngineFactory) NewEngine(bc backend.Client, openaiKey string) *process.Engine {
	return f.engine
}

// ---------------------------------------------------------------------------
// Test Env assembly
// ---------------------------------------------------------------------------

// syncBuffer is a concurrency-safe output sink for command tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testFixture struct {
	env     *Env
	cfg     config.Config
	backend *mockBackend
	storage *mockStorage
	opener  *mockStoreOpener
	stdout  *syncBuffer
	stderr  *syncBuffer
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	cfg := testConfig(t)
	bk := &mockBackend{}
	st := &mockStorage{}
	opener := &mockStoreOpener{}
	var stdout, stderr syncBuffer

	env := NewEnv(
		WithStdout(&stdout),
		WithStderr(&stderr),
		WithGetenv(func(key string) string {
			if key == config.EnvAPIKey {
				return "test-api-key"
			}
			return ""
		}),
		WithConfigLoader(&mockConfigLoader{cfg: cfg}),
		WithStoreOpener(opener),
		WithBackendFactory(&mockBackendFactory{client: bk}),
		WithStorageFactory(&mockStorageFactory{storage: st}),
	)

	return &testFixture{
		env:     env,
		cfg:     cfg,
		backend: bk,
		storage: st,
		opener:  opener,
		stdout:  &stdout,
		stderr:  &stderr,
	}
}

// openStore returns the fixture's local store, opening it on demand.
func (f *testFixture) openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := f.opener.Open(filepath.Join(f.cfg.DataDir, "recordings.json"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return st
}
