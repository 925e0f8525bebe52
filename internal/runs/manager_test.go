package runs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gigcraft.ai/internal/autopilot"
	"gigcraft.ai/internal/persistence/archive"
	persistlog "gigcraft.ai/internal/persistence/log"
	"gigcraft.ai/internal/persistence/snapshot"
	"gigcraft.ai/internal/sim/actions"
	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/engine"
	"gigcraft.ai/internal/sim/tuning"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "configs"))
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	eng, err := engine.New(tuning.Defaults(), cats)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng
}

func play(t *testing.T, eng *engine.Engine, r *Run, steps int) {
	t.Helper()
	for i := 0; i < steps; i++ {
		s := r.State()
		if s.IsGameOver {
			return
		}
		if _, _, err := r.Apply(autopilot.Next(eng, s, i)); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func TestManager_ResumeFromSnapshotAndLog(t *testing.T) {
	eng := testEngine(t)
	dir := t.TempDir()
	m, err := NewManager(eng, Config{DataDir: dir, SnapshotEvery: 5})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	r, err := m.Create(engine.NewGameOptions{RunID: "run-resume", Seed: 11})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	play(t, eng, r, 60)
	wantDigest, _ := engine.Digest(r.State())
	wantSeq := r.Seq()
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	weeks, _ := snapshot.Weeks(dir, "run-resume")
	if len(weeks) < 2 {
		t.Fatalf("expected periodic snapshots, got weeks %v", weeks)
	}

	m2, err := NewManager(eng, Config{DataDir: dir, SnapshotEvery: 5})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer m2.Close()
	r2, err := m2.Open("run-resume")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got, _ := engine.Digest(r2.State()); got != wantDigest {
		t.Fatalf("resumed state differs")
	}
	if r2.Seq() != wantSeq {
		t.Fatalf("seq=%d want %d", r2.Seq(), wantSeq)
	}

	// The resumed run keeps logging where it left off.
	play(t, eng, r2, 10)
	rep, err := Verify(eng, dir, "run-resume")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rep.Commands != r2.Seq() || rep.SnapshotsTested == 0 {
		t.Fatalf("report: %+v seq=%d", rep, r2.Seq())
	}
	if d, _ := engine.Digest(r2.State()); d != rep.FinalDigest {
		t.Fatalf("verify ended on a different state")
	}
}

func TestManager_RejectedCommandsNotLogged(t *testing.T) {
	eng := testEngine(t)
	m, err := NewManager(eng, Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer m.Close()
	r, err := m.Create(engine.NewGameOptions{RunID: "run-reject", Seed: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before := r.State()
	out, _, err := r.Apply(engine.Command{Kind: engine.CmdTurn, Action: actions.RecordWeek})
	if !errors.Is(err, engine.ErrUnavailable) {
		t.Fatalf("err=%v", err)
	}
	if out.State != before || r.State() != before || r.Seq() != 0 {
		t.Fatalf("rejected command changed the run")
	}
	if _, e, err := r.Apply(engine.Command{Kind: engine.CmdTurn, Action: actions.Rest}); err != nil || e.Seq != 1 || e.Week != 2 {
		t.Fatalf("rest: entry=%+v err=%v", e, err)
	}
}

func TestManager_AttachIsExclusive(t *testing.T) {
	eng := testEngine(t)
	m, err := NewManager(eng, Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer m.Close()
	r, err := m.Create(engine.NewGameOptions{RunID: "run-attach", Seed: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Attach(r.ID()); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if live, attached := m.Counts(); live != 1 || attached != 1 {
		t.Fatalf("counts live=%d attached=%d", live, attached)
	}
	if _, err := m.Attach(r.ID()); !errors.Is(err, ErrRunBusy) {
		t.Fatalf("second attach: %v", err)
	}
	m.Release(r)
	if _, err := m.Attach(r.ID()); err != nil {
		t.Fatalf("attach after release: %v", err)
	}
	if _, err := m.Open("../etc"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("path escape: %v", err)
	}
	if _, err := m.Open("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("missing: %v", err)
	}
	ids, err := m.RunIDs()
	if err != nil || len(ids) != 1 || ids[0] != "run-attach" {
		t.Fatalf("ids=%v err=%v", ids, err)
	}
}

func TestVerify_DetectsTamperedLog(t *testing.T) {
	eng := testEngine(t)
	dir := t.TempDir()
	m, err := NewManager(eng, Config{DataDir: dir})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	r, err := m.Create(engine.NewGameOptions{RunID: "run-tamper", Seed: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	play(t, eng, r, 5)
	// A command whose recorded digest does not match what it produces.
	bad := persistlog.Entry{
		Seq:     r.Seq() + 1,
		RunID:   "run-tamper",
		Command: autopilot.Next(eng, r.State(), 5),
		Digest:  strings.Repeat("0", 64),
	}
	if err := r.log.WriteCommand(bad); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = m.Close()
	if _, err := Verify(eng, dir, "run-tamper"); !errors.Is(err, ErrDiverged) {
		t.Fatalf("verify: %v", err)
	}
}

func TestManager_ArchivesFinishedRun(t *testing.T) {
	eng := testEngine(t)
	dir := t.TempDir()
	m, err := NewManager(eng, Config{DataDir: dir})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	defer m.Close()
	r, err := m.Create(engine.NewGameOptions{RunID: "run-end", Seed: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	play(t, eng, r, 5000)
	st := r.State()
	if !st.IsGameOver || st.Ending == nil {
		t.Fatalf("run did not finish")
	}
	category := st.Ending.Category
	if category == "" {
		category = "none"
	}
	runDir := filepath.Join(archive.Dir(dir), category, "run-end")
	meta, err := archive.ReadMeta(runDir)
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	if meta.Week != st.Week || meta.Seq != r.Seq() {
		t.Fatalf("meta: %+v week=%d seq=%d", meta, st.Week, r.Seq())
	}
	if _, err := os.Stat(filepath.Join(runDir, meta.Snapshot)); err != nil {
		t.Fatalf("archived snapshot: %v", err)
	}
	ids, _ := m.RunIDs()
	if len(ids) != 1 || ids[0] != "run-end" {
		t.Fatalf("archive dir listed as a run: %v", ids)
	}
}
