// Package notes ties the load pipeline together (read, parse, adapt,
// swap) and resolves literature note files for citekeys.
package notes

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/matsen/bibnote/internal/bib"
	"github.com/matsen/bibnote/internal/config"
	"github.com/matsen/bibnote/internal/library"
	"github.com/matsen/bibnote/internal/storage"
	"github.com/matsen/bibnote/internal/worker"
)

// State is the load-cycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateLoadFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadFailed:
		return "load-failed"
	default:
		return "unknown"
	}
}

// ErrLoadInProgress is returned when a load cycle is triggered while a
// previous one is still parsing. Callers drop the trigger; the next
// file-change signal starts a fresh cycle.
var ErrLoadInProgress = errors.New("load already in progress")

// Stats summarizes one completed load cycle.
type Stats struct {
	Entries int `json:"entries"`
	Skipped int `json:"skipped"`
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithChannel replaces the parse channel. Used by tests to stub the
// parse step.
func WithChannel(ch *worker.Channel) ManagerOption {
	return func(m *Manager) {
		m.channel = ch
	}
}

// WithCache attaches a warm-start cache persisted after each
// successful load.
func WithCache(cache *storage.Cache) ManagerOption {
	return func(m *Manager) {
		m.cache = cache
	}
}

// Manager owns the current library and runs load cycles. The library
// reference is swapped atomically: a reader holds either the fully
// previous or the fully new library, never a mix. Re-entrancy is
// enforced by the parse channel's single-flight policy; an in-flight
// parse is never cancelled.
type Manager struct {
	vaultRoot string
	cfg       *config.Config
	channel   *worker.Channel
	logger    *zap.Logger
	cache     *storage.Cache

	lib atomic.Pointer[library.Library]

	mu       sync.Mutex
	state    State
	lastHash string
}

// NewManager creates a manager for the vault at root.
func NewManager(vaultRoot string, cfg *config.Config, opts ...ManagerOption) *Manager {
	m := &Manager{
		vaultRoot: vaultRoot,
		cfg:       cfg,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.channel == nil {
		m.channel = worker.NewChannel(worker.WithLogger(m.logger))
	}
	return m
}

// Library returns the current library, nil while loading or after a
// failed cycle that was never preceded by a successful one.
func (m *Manager) Library() *library.Library {
	return m.lib.Load()
}

// State returns the current load-cycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ContentHash returns the hex blake2b hash of the export bytes behind
// the current library, "" before the first successful load.
func (m *Manager) ContentHash() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHash
}

// HashContent hashes raw export bytes the way the manager does.
func HashContent(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Load runs one load cycle: read the export, parse it off-thread,
// adapt every record, and atomically replace the library.
//
// With force false, a cycle whose export content hash matches the
// currently loaded one is skipped. An overlapping trigger returns
// ErrLoadInProgress and changes nothing.
func (m *Manager) Load(ctx context.Context, force bool) (Stats, error) {
	format, err := m.cfg.Format()
	if err != nil {
		return Stats{}, err
	}
	path, err := m.cfg.ResolveLibraryPath(m.vaultRoot)
	if err != nil {
		return Stats{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		m.failUnlessBusy()
		return Stats{}, fmt.Errorf("reading library export: %w", err)
	}

	hash := HashContent(data)
	if !force {
		if lib := m.unchangedLibrary(hash); lib != nil {
			m.logger.Debug("export unchanged, skipping reload",
				zap.String("path", path))
			return Stats{Entries: lib.Size()}, nil
		}
	}

	resCh, err := m.channel.Post(ctx, worker.Request{Raw: string(data), Format: format})
	if err != nil {
		if errors.Is(err, worker.ErrChannelBlocked) {
			return Stats{}, ErrLoadInProgress
		}
		return Stats{}, err
	}

	// We own this cycle now. Clear the library immediately so stale
	// reads are impossible while the new one is being built.
	m.setState(StateLoading)
	m.lib.Store(nil)
	m.logger.Info("load started",
		zap.String("path", path),
		zap.String("format", string(format)))

	var res worker.Result
	select {
	case res = <-resCh:
	case <-ctx.Done():
		// The parse itself is not cancelled; its result is dropped.
		m.setState(StateLoadFailed)
		return Stats{}, ctx.Err()
	}
	if res.Err != nil {
		m.setState(StateLoadFailed)
		return Stats{}, fmt.Errorf("parsing library export: %w", res.Err)
	}

	entries, skipped := bib.AdaptAll(res.Records)
	if skipped > 0 {
		m.logger.Debug("skipped records without citation keys",
			zap.Int("skipped", skipped))
	}

	lib := library.New(entries)
	m.lib.Store(lib)
	m.completeLoad(hash)

	m.logger.Info("load complete",
		zap.Int("entries", lib.Size()),
		zap.Int("skipped", skipped))

	if m.cache != nil {
		if err := m.cache.Replace(entries, hash); err != nil {
			// Cache is an optimization; a write failure never fails
			// the load cycle.
			m.logger.Warn("persisting library cache failed", zap.Error(err))
		}
	}

	return Stats{Entries: lib.Size(), Skipped: skipped}, nil
}

// LoadFromCache installs cached entries as the current library when
// the cache matches the export's current content hash. Returns false
// on any miss; the caller falls back to a full Load.
func (m *Manager) LoadFromCache() (bool, error) {
	if m.cache == nil {
		return false, nil
	}
	path, err := m.cfg.ResolveLibraryPath(m.vaultRoot)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, nil
	}

	hash := HashContent(data)
	entries, ok, err := m.cache.Load(hash)
	if err != nil || !ok {
		return false, err
	}

	m.lib.Store(library.New(entries))
	m.completeLoad(hash)
	m.logger.Debug("library restored from cache",
		zap.Int("entries", len(entries)))
	return true, nil
}

// unchangedLibrary returns the current library when it was built from
// an export with the given hash, nil otherwise. The library reference
// is captured under the mutex so the caller never re-reads it after a
// concurrent cycle may have cleared it.
func (m *Manager) unchangedLibrary(hash string) *library.Library {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastHash != hash {
		return nil
	}
	return m.lib.Load()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) completeLoad(hash string) {
	m.mu.Lock()
	m.state = StateLoaded
	m.lastHash = hash
	m.mu.Unlock()
}

// failUnlessBusy marks the cycle failed unless another cycle owns the
// channel, in which case that cycle's outcome stands.
func (m *Manager) failUnlessBusy() {
	if m.channel.Busy() {
		return
	}
	m.setState(StateLoadFailed)
}

// Projection returns the template variables for a citekey from the
// current library.
func (m *Manager) Projection(citekey string) (library.Variables, error) {
	lib := m.lib.Load()
	if lib == nil {
		return library.Variables{}, fmt.Errorf("library not loaded")
	}
	return lib.Projection(citekey)
}
