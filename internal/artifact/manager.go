// Package artifact manages the temporary files a provider writes while a
// download is prepared and streamed.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iconidentify/mediagate/internal/config"
	"github.com/iconidentify/mediagate/internal/domain"
	"github.com/iconidentify/mediagate/internal/repository"
)

const maxAllocateAttempts = 16

// Handle is an in-flight temp artifact. The provider writes to OutputTemplate
// and the manager resolves the concrete file once the provider has exited.
type Handle struct {
	ID        domain.ArtifactID
	BasePath  string
	CreatedAt time.Time

	mu           sync.Mutex
	state        domain.ArtifactState
	resolvedPath string
	size         int64

	releaseOnce sync.Once
	releaseErr  error
}

// OutputTemplate returns the provider output template for the handle.
// The provider substitutes the real extension for %(ext)s.
func (h *Handle) OutputTemplate() string {
	return h.BasePath + ".%(ext)s"
}

// State returns the current lifecycle state.
func (h *Handle) State() domain.ArtifactState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// ResolvedPath returns the file found by Locate, or "" before resolution.
func (h *Handle) ResolvedPath() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resolvedPath
}

// Size returns the resolved file size in bytes.
func (h *Handle) Size() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Extension returns the resolved file extension without the leading dot.
func (h *Handle) Extension() string {
	return strings.TrimPrefix(filepath.Ext(h.ResolvedPath()), ".")
}

// Stats is a point-in-time view of manager activity.
type Stats struct {
	InFlight  int   `json:"in_flight"`
	Allocated int64 `json:"allocated_total"`
	Released  int64 `json:"released_total"`
}

// Manager allocates collision-free base paths under a single temp root and
// guarantees that every allocation is eventually removed from disk.
type Manager struct {
	root    string
	prefix  string
	idLen   int
	journal repository.AllocationRepository
	logger  *slog.Logger

	mu       sync.Mutex
	inflight map[domain.ArtifactID]*Handle

	allocated atomic.Int64
	released  atomic.Int64
}

// NewManager creates a manager rooted at cfg.TempPath, creating the
// directory if needed.
func NewManager(cfg config.StorageConfig, journal repository.AllocationRepository, logger *slog.Logger) (*Manager, error) {
	if err := os.MkdirAll(cfg.TempPath, 0755); err != nil {
		return nil, fmt.Errorf("create temp root: %w", err)
	}
	if journal == nil {
		journal = repository.NewInMemoryAllocationRepository()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		root:     cfg.TempPath,
		prefix:   cfg.Prefix,
		idLen:    cfg.IDLength,
		journal:  journal,
		logger:   logger,
		inflight: make(map[domain.ArtifactID]*Handle),
	}, nil
}

// Root returns the temp storage root.
func (m *Manager) Root() string {
	return m.root
}

// Allocate reserves a new unique base path. No file is created; the id is
// guaranteed not to collide with any in-flight handle or existing file.
func (m *Manager) Allocate(ctx context.Context) (*Handle, error) {
	for attempt := 0; attempt < maxAllocateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := m.newID()

		m.mu.Lock()
		if _, taken := m.inflight[id]; taken {
			m.mu.Unlock()
			continue
		}
		existing, err := m.matches(id)
		if err != nil {
			m.mu.Unlock()
			return nil, domain.NewMediaError(id, "allocate", err)
		}
		if len(existing) > 0 {
			m.mu.Unlock()
			continue
		}
		h := &Handle{
			ID:        id,
			BasePath:  filepath.Join(m.root, m.prefix+id.String()),
			CreatedAt: time.Now().UTC(),
			state:     domain.ArtifactAllocated,
		}
		m.inflight[id] = h
		m.mu.Unlock()

		if err := m.journal.Record(ctx, domain.Allocation{ID: h.ID, BasePath: h.BasePath, CreatedAt: h.CreatedAt}); err != nil {
			m.mu.Lock()
			delete(m.inflight, id)
			m.mu.Unlock()
			return nil, domain.NewMediaError(id, "allocate", fmt.Errorf("journal allocation: %w", err))
		}

		m.allocated.Add(1)
		m.logger.Debug("artifact allocated", "artifact_id", id, "base_path", h.BasePath)
		return h, nil
	}

	return nil, fmt.Errorf("allocate: no unique id after %d attempts", maxAllocateAttempts)
}

// Locate finds the single file the provider produced for h and records it
// as the handle's resolved path.
func (m *Manager) Locate(h *Handle) (string, error) {
	if err := m.tracked(h); err != nil {
		return "", domain.NewMediaError(h.ID, "locate", err)
	}

	paths, err := m.matches(h.ID)
	if err != nil {
		return "", domain.NewMediaError(h.ID, "locate", err)
	}

	switch {
	case len(paths) == 0:
		return "", domain.NewMediaError(h.ID, "locate", domain.ErrArtifactNotFound)
	case len(paths) > 1:
		m.logger.Warn("multiple files for one artifact", "artifact_id", h.ID, "files", paths)
		return "", domain.NewMediaError(h.ID, "locate", domain.ErrAmbiguousArtifact)
	}

	info, err := os.Stat(paths[0])
	if err != nil {
		return "", domain.NewMediaError(h.ID, "locate", err)
	}
	if info.Size() == 0 {
		return "", domain.NewMediaError(h.ID, "locate", domain.ErrEmptyArtifact)
	}

	h.mu.Lock()
	h.resolvedPath = paths[0]
	h.size = info.Size()
	h.state = domain.ArtifactResolved
	h.mu.Unlock()

	return paths[0], nil
}

// Release removes every file under the handle's base path and forgets the
// allocation. It is safe to call more than once; only the first call acts.
func (m *Manager) Release(h *Handle) error {
	if h == nil {
		return nil
	}

	h.releaseOnce.Do(func() {
		var errs []error

		paths, err := m.matches(h.ID)
		if err != nil {
			errs = append(errs, err)
		}
		for _, p := range paths {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				errs = append(errs, err)
			}
		}

		m.mu.Lock()
		if m.inflight[h.ID] == h {
			delete(m.inflight, h.ID)
		}
		m.mu.Unlock()

		if err := m.journal.Remove(context.Background(), h.ID); err != nil {
			errs = append(errs, fmt.Errorf("journal remove: %w", err))
		}

		h.mu.Lock()
		h.state = domain.ArtifactReleased
		h.mu.Unlock()
		m.released.Add(1)

		if len(errs) > 0 {
			h.releaseErr = domain.NewMediaError(h.ID, "release", errors.Join(errs...))
			m.logger.Warn("artifact release incomplete", "artifact_id", h.ID, "error", h.releaseErr)
			return
		}
		m.logger.Debug("artifact released", "artifact_id", h.ID, "files", len(paths))
	})

	return h.releaseErr
}

// Recover purges files left by allocations journaled by a previous process.
// It returns the number of files removed.
func (m *Manager) Recover(ctx context.Context) (int, error) {
	allocs, err := m.journal.List(ctx, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("list journal: %w", err)
	}

	removed := 0
	for _, a := range allocs {
		if m.isInFlight(a.ID) {
			continue
		}
		n, err := m.purge(a.ID)
		removed += n
		if err != nil {
			m.logger.Warn("failed to purge recovered artifact", "artifact_id", a.ID, "error", err)
			continue
		}
		if err := m.journal.Remove(ctx, a.ID); err != nil {
			m.logger.Warn("failed to drop recovered allocation", "artifact_id", a.ID, "error", err)
		}
	}

	if removed > 0 {
		m.logger.Info("recovered orphaned artifacts", "allocations", len(allocs), "files_removed", removed)
	}
	return removed, nil
}

// Sweep removes prefixed files older than maxAge that belong to no
// in-flight handle, and drops stale journal entries. It returns the number
// of files removed.
func (m *Manager) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, fmt.Errorf("read temp root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() || !strings.HasPrefix(e.Name(), m.prefix) {
			continue
		}
		if m.isInFlight(m.idFromName(e.Name())) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.root, e.Name())); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to sweep file", "file", e.Name(), "error", err)
			continue
		}
		removed++
	}

	stale, err := m.journal.List(ctx, cutoff)
	if err != nil {
		return removed, fmt.Errorf("list journal: %w", err)
	}
	for _, a := range stale {
		if m.isInFlight(a.ID) {
			continue
		}
		if err := m.journal.Remove(ctx, a.ID); err != nil {
			m.logger.Warn("failed to drop stale allocation", "artifact_id", a.ID, "error", err)
		}
	}

	return removed, nil
}

// FreeBytes reports the space available to unprivileged users on the
// volume holding the temp root.
func (m *Manager) FreeBytes() (uint64, error) {
	return diskFree(m.root)
}

// InFlight returns the number of allocated, unreleased handles.
func (m *Manager) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight)
}

// Stats returns allocation counters.
func (m *Manager) Stats() Stats {
	return Stats{
		InFlight:  m.InFlight(),
		Allocated: m.allocated.Load(),
		Released:  m.released.Load(),
	}
}

func (m *Manager) newID() domain.ArtifactID {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return domain.ArtifactID(raw[:m.idLen])
}

func (m *Manager) tracked(h *Handle) error {
	if h == nil {
		return domain.ErrUnknownAllocation
	}
	if h.State() == domain.ArtifactReleased {
		return domain.ErrArtifactReleased
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight[h.ID] != h {
		return domain.ErrUnknownAllocation
	}
	return nil
}

func (m *Manager) isInFlight(id domain.ArtifactID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inflight[id]
	return ok
}

// idFromName extracts the artifact id from a prefixed file name such as
// temp_0123abcd.mp4.part.
func (m *Manager) idFromName(name string) domain.ArtifactID {
	rest := strings.TrimPrefix(name, m.prefix)
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		rest = rest[:i]
	}
	return domain.ArtifactID(rest)
}

// matches returns every file in the root that is the bare base name or the
// base name followed by an extension.
func (m *Manager) matches(id domain.ArtifactID) ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, fmt.Errorf("read temp root: %w", err)
	}

	base := m.prefix + id.String()
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == base || strings.HasPrefix(name, base+".") {
			paths = append(paths, filepath.Join(m.root, name))
		}
	}
	return paths, nil
}

func (m *Manager) purge(id domain.ArtifactID) (int, error) {
	paths, err := m.matches(id)
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
