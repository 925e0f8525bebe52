package indexdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	persistlog "gigcraft.ai/internal/persistence/log"
	"gigcraft.ai/internal/persistence/snapshot"
	"gigcraft.ai/internal/sim/actions"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/engine"
)

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqRun}

	st := career.NewState("run-1", 1, "normal", career.Player{})
	st.IsGameOver = true
	st.Ending = &career.EndingRecord{Category: "obscurity"}

	s.RecordRun(st)
	_ = s.WriteCommand(persistlog.Entry{Seq: 1})
	s.RecordSnapshot("/tmp/1.snap.zst", snapshot.Header{RunID: "run-1", Week: 1})
	s.RecordEnding(st)

	got := s.Stats()
	if got.DropRunTotal != 1 || got.DropCommandTotal != 1 || got.DropSnapshotTotal != 1 || got.DropEndingTotal != 1 {
		t.Fatalf("drops: %+v", got)
	}
	if got.QueueDepth != 1 || got.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", got.QueueDepth, got.QueueCapacity)
	}
}

func TestSQLiteIndex_RunsCommandsEndings(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer func() { _ = idx.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mk := func(id, band string, fans int) *career.GameState {
		st := career.NewState(id, 9, "normal", career.Player{Name: "Kit", BandName: band, Fans: fans})
		return st
	}
	a, b, c := mk("run-a", "Static Lungs", 900), mk("run-b", "Paper Moons", 42000), mk("run-c", "Still Going", 5)
	for _, st := range []*career.GameState{a, b, c} {
		idx.RecordRun(st)
	}
	for i := 1; i <= 3; i++ {
		_ = idx.WriteCommand(persistlog.Entry{
			Seq: i, RunID: "run-a", Week: i + 1, Digest: "d" + string(rune('0'+i)),
			Command: engine.Command{Kind: engine.CmdTurn, Action: actions.Practice},
		})
	}
	idx.RecordSnapshot("/data/run-a/snapshots/000004.snap.zst", snapshot.Header{RunID: "run-a", Week: 4, Digest: "d3"})
	for _, st := range []*career.GameState{a, b} {
		st.IsGameOver = true
		st.GameOverReason = career.ReasonTimeLimit
		st.Ending = &career.EndingRecord{Category: "survivor", Variation: "comfortable", Title: "Still Standing", Score: 40}
		idx.RecordEnding(st)
	}
	idx.RecordEnding(c)

	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	p, err := idx.Run(ctx, "run-a")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if p.LastWeek != 4 || p.LastDigest != "d3" || p.Commands != 3 {
		t.Fatalf("progress: %+v", p)
	}

	top, err := idx.TopEndings(ctx, 5)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("unfinished run indexed: %+v", top)
	}
	if top[0].RunID != "run-b" || top[0].BandName != "Paper Moons" || top[1].Fans != 900 {
		t.Fatalf("order: %+v", top)
	}
}
