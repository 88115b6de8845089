package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/iconidentify/mediagate/internal/artifact"
	"github.com/iconidentify/mediagate/internal/config"
	"github.com/iconidentify/mediagate/internal/downloader"
	"github.com/iconidentify/mediagate/internal/repository"
	"github.com/iconidentify/mediagate/internal/service"
	"github.com/iconidentify/mediagate/internal/stream"
	"github.com/iconidentify/mediagate/pkg/ytdlp"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockProvider is a test implementation of service.Provider. Fetch writes
// one file per entry in outputs, keyed by the suffix replacing .%(ext)s.
type mockProvider struct {
	info     *ytdlp.Info
	probeErr error
	outputs  map[string]string
	fetchErr error
}

func (m *mockProvider) Probe(ctx context.Context, url string) (*ytdlp.Info, error) {
	if m.probeErr != nil {
		return nil, m.probeErr
	}
	if m.info == nil {
		return &ytdlp.Info{}, nil
	}
	return m.info, nil
}

func (m *mockProvider) Fetch(ctx context.Context, url, selector, outputTemplate string) error {
	for suffix, content := range m.outputs {
		path := strings.Replace(outputTemplate, ".%(ext)s", suffix, 1)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return m.fetchErr
}

// mockJournal wraps the in-memory journal with an injectable Count error.
type mockJournal struct {
	*repository.InMemoryAllocationRepository
	countErr error
}

func newMockJournal() *mockJournal {
	return &mockJournal{InMemoryAllocationRepository: repository.NewInMemoryAllocationRepository()}
}

func (m *mockJournal) Count(ctx context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.InMemoryAllocationRepository.Count(ctx)
}

// mockDownloader is a test implementation of downloader.Downloader.
type mockDownloader struct {
	data    []byte
	err     error
	lastURL string
}

func (m *mockDownloader) Download(ctx context.Context, url string) (*downloader.Resource, error) {
	m.lastURL = url
	if m.err != nil {
		return nil, m.err
	}
	return &downloader.Resource{Data: m.data, ContentType: "image/webp"}, nil
}

var errMock = errors.New("mock failure")

type testEnv struct {
	manager *artifact.Manager
	journal *mockJournal
	media   *MediaHandler
	health  *HealthHandler
}

func newTestEnv(t *testing.T, p *mockProvider) *testEnv {
	t.Helper()

	storage := config.StorageConfig{
		TempPath: t.TempDir(),
		Prefix:   "temp_",
		IDLength: 12,
	}
	journal := newMockJournal()
	manager, err := artifact.NewManager(storage, journal, testLogger())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	svc := service.NewMediaService(p, manager, config.ProviderConfig{
		ProbeTimeout: 5 * time.Second,
		FetchTimeout: 5 * time.Second,
	}, storage, testLogger())

	return &testEnv{
		manager: manager,
		journal: journal,
		media:   NewMediaHandler(svc, stream.NewResponder(manager, 4096, testLogger()), testLogger()),
		health:  NewHealthHandler(manager, journal),
	}
}

// assertClean fails the test if any temp file or in-flight handle remains.
func (e *testEnv) assertClean(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(e.manager.Root())
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, en := range entries {
			names = append(names, en.Name())
		}
		t.Errorf("temp files left behind: %v", names)
	}
	if n := e.manager.InFlight(); n != 0 {
		t.Errorf("in-flight handles = %d, want 0", n)
	}
	if n, _ := e.journal.Count(context.Background()); n != 0 {
		t.Errorf("journaled allocations = %d, want 0", n)
	}
}
