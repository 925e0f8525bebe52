package runs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gigcraft.ai/internal/persistence/archive"
	"gigcraft.ai/internal/persistence/indexdb"
	persistlog "gigcraft.ai/internal/persistence/log"
	"gigcraft.ai/internal/persistence/snapshot"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/engine"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrRunBusy     = errors.New("run already attached")
	ErrDiverged    = errors.New("replay diverged from log")
)

const defaultSnapshotEvery = 13

type Config struct {
	DataDir string
	// SnapshotEvery saves the run every N weeks. Finished runs are always saved.
	SnapshotEvery int
	// Index is optional.
	Index *indexdb.SQLiteIndex
}

// Manager owns the live runs of one server. Each run has a command log and
// periodic snapshots under DataDir/<runID>.
type Manager struct {
	mu sync.Mutex

	eng           *engine.Engine
	dataDir       string
	snapshotEvery int
	index         *indexdb.SQLiteIndex
	runs          map[string]*Run
}

// Run is one career. Commands on a run are serialized.
type Run struct {
	mu sync.Mutex

	id       string
	m        *Manager
	state    *career.GameState
	seq      int
	log      *persistlog.CommandLogger
	attached bool
}

func NewManager(eng *engine.Engine, cfg Config) (*Manager, error) {
	if eng == nil {
		return nil, fmt.Errorf("nil engine")
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("empty data dir")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	every := cfg.SnapshotEvery
	if every <= 0 {
		every = defaultSnapshotEvery
	}
	return &Manager{
		eng:           eng,
		dataDir:       cfg.DataDir,
		snapshotEvery: every,
		index:         cfg.Index,
		runs:          map[string]*Run{},
	}, nil
}

func (m *Manager) Engine() *engine.Engine { return m.eng }
func (m *Manager) DataDir() string        { return m.dataDir }

func (m *Manager) runDir(id string) string { return filepath.Join(m.dataDir, id) }

func (m *Manager) catalogDigest() string { return m.eng.Catalogs().Digest }

// Create starts a new run and saves its opening state.
func (m *Manager) Create(opts engine.NewGameOptions) (*Run, error) {
	s, err := m.eng.NewGame(opts)
	if err != nil {
		return nil, err
	}
	path := snapshot.PathFor(m.dataDir, s.RunID, s.Week)
	h, err := snapshot.WriteSnapshot(path, s, 0, m.catalogDigest())
	if err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}
	r := &Run{
		id:    s.RunID,
		m:     m,
		state: s,
		log:   persistlog.NewCommandLogger(m.runDir(s.RunID)),
	}
	m.index.RecordRun(s)
	m.index.RecordSnapshot(path, h)

	m.mu.Lock()
	m.runs[r.id] = r
	m.mu.Unlock()
	return r, nil
}

// Open returns a live run, loading it from disk if needed: the newest
// snapshot plus every command logged after it.
func (m *Manager) Open(runID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[runID]; ok {
		return r, nil
	}
	if runID == "" || filepath.Base(runID) != runID {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	h, s, err := snapshot.Latest(m.dataDir, runID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	seq := h.Seq
	err = persistlog.ReadEntries(persistlog.CommandsDir(m.runDir(runID)), func(e persistlog.Entry) error {
		if e.Seq <= h.Seq {
			return nil
		}
		out, err := m.eng.Execute(s, e.Command)
		if err != nil {
			return fmt.Errorf("seq %d: %w", e.Seq, err)
		}
		d, err := engine.Digest(out.State)
		if err != nil {
			return err
		}
		if d != e.Digest {
			return fmt.Errorf("%w: seq %d", ErrDiverged, e.Seq)
		}
		s = out.State
		seq = e.Seq
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	r := &Run{
		id:    runID,
		m:     m,
		state: s,
		seq:   seq,
		log:   persistlog.NewCommandLogger(m.runDir(runID)),
	}
	m.runs[runID] = r
	return r, nil
}

// Attach claims a run for one client. Release gives it back.
func (m *Manager) Attach(runID string) (*Run, error) {
	r, err := m.Open(runID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attached {
		return nil, fmt.Errorf("%w: %s", ErrRunBusy, runID)
	}
	r.attached = true
	return r, nil
}

func (m *Manager) Release(r *Run) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.attached = false
	r.mu.Unlock()
}

// RunIDs lists every run with a saved state, live or not.
func (m *Manager) RunIDs() ([]string, error) {
	ents, err := os.ReadDir(m.dataDir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		if weeks, _ := snapshot.Weeks(m.dataDir, e.Name()); len(weeks) > 0 {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Counts reports how many runs are loaded and how many have a client.
func (m *Manager) Counts() (live, attached int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		live++
		r.mu.Lock()
		if r.attached {
			attached++
		}
		r.mu.Unlock()
	}
	return live, attached
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first error
	for id, r := range m.runs {
		r.mu.Lock()
		if err := r.log.Close(); err != nil && first == nil {
			first = err
		}
		r.mu.Unlock()
		delete(m.runs, id)
	}
	return first
}

func (r *Run) ID() string { return r.id }

// State returns the current snapshot. Callers must not mutate it.
func (r *Run) State() *career.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Run) Seq() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Apply executes cmd, logs it with the resulting digest, and saves a
// snapshot when the week crosses a save boundary or the run ends. Rejected
// commands are not logged.
func (r *Run) Apply(cmd engine.Command) (engine.Outcome, persistlog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := r.state
	out, err := r.m.eng.Execute(before, cmd)
	if err != nil {
		return out, persistlog.Entry{}, err
	}
	d, err := engine.Digest(out.State)
	if err != nil {
		return engine.Outcome{State: before}, persistlog.Entry{}, err
	}
	e := persistlog.Entry{
		Seq:      r.seq + 1,
		RunID:    r.id,
		Week:     out.State.Week,
		Command:  cmd,
		Digest:   d,
		Text:     out.Text,
		GameOver: out.State.IsGameOver,
	}
	if err := r.log.WriteCommand(e); err != nil {
		return engine.Outcome{State: before}, persistlog.Entry{}, fmt.Errorf("command log: %w", err)
	}
	r.seq = e.Seq
	r.state = out.State
	_ = r.m.index.WriteCommand(e)

	weekChanged := out.State.Week != before.Week
	// Week 1 holds the opening save that replays start from.
	if out.State.Week > 1 && (out.State.IsGameOver || (weekChanged && out.State.Week%r.m.snapshotEvery == 0)) {
		path := snapshot.PathFor(r.m.dataDir, r.id, out.State.Week)
		h, err := snapshot.WriteSnapshot(path, out.State, r.seq, r.m.catalogDigest())
		if err != nil {
			return out, e, fmt.Errorf("snapshot: %w", err)
		}
		r.m.index.RecordSnapshot(path, h)
		if out.State.IsGameOver && !before.IsGameOver {
			if _, _, err := archive.ArchiveEnding(r.m.dataDir, path, h, out.State); err != nil {
				return out, e, fmt.Errorf("archive: %w", err)
			}
		}
	}
	if out.State.IsGameOver && !before.IsGameOver {
		r.m.index.RecordEnding(out.State)
	}
	return out, e, nil
}
